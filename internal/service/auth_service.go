package service

import (
	"alcyxob/bmi-coach/internal/config"
	"alcyxob/bmi-coach/internal/domain"
	"alcyxob/bmi-coach/internal/email"
	"alcyxob/bmi-coach/internal/repository"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("username or email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid username or password")
	ErrWeakPassword         = errors.New("password must be at least 6 characters and include upper, lower, and a number")
	ErrInvalidResetToken    = errors.New("invalid or expired reset link")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// --- Service Interface ---
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (token string, user *domain.User, err error)
	Login(ctx context.Context, username, password string) (token string, user *domain.User, err error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetJWTSecret() string
}

// --- Service Implementation ---

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	resetRepo     repository.PasswordResetRepository
	mailer        email.Mailer
	jwtSecret     string
	jwtExpiration time.Duration
	resetTokenTTL time.Duration
	resetBaseURL  string
}

// NewAuthService creates a new instance of authService.
func NewAuthService(
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetRepository,
	mailer email.Mailer,
	jwtCfg config.JWTConfig,
	resetCfg config.ResetConfig,
) AuthService {
	if jwtCfg.Secret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	jwtExpiration := jwtCfg.Expiration
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	resetTokenTTL := resetCfg.TokenTTL
	if resetTokenTTL <= 0 {
		resetTokenTTL = 30 * time.Minute
	}
	return &authService{
		userRepo:      userRepo,
		resetRepo:     resetRepo,
		mailer:        mailer,
		jwtSecret:     jwtCfg.Secret,
		jwtExpiration: jwtExpiration,
		resetTokenTTL: resetTokenTTL,
		resetBaseURL:  resetCfg.BaseURL,
	}
}

// Register handles new account creation and logs the user straight in.
func (s *authService) Register(ctx context.Context, username, emailAddr, password string) (string, *domain.User, error) {
	username = strings.TrimSpace(username)
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if username == "" || emailAddr == "" {
		return "", nil, errors.New("username and email cannot be empty")
	}
	if !isValidPassword(password) {
		return "", nil, ErrWeakPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, ErrHashingFailed
	}

	user := &domain.User{
		Username:     username,
		Email:        emailAddr,
		PasswordHash: string(hashedPassword),
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// Unique indexes on username and email catch the race between any
		// pre-check and the insert, so the insert error is authoritative.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return "", nil, ErrUserAlreadyExists
		}
		return "", nil, err
	}
	user.ID = userID

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, ErrAuthenticationFailed
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// ForgotPassword issues a reset token and mails the reset link. It succeeds
// from the caller's point of view whether or not the email exists, so the
// endpoint cannot be used to enumerate accounts.
func (s *authService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if emailAddr == "" {
		return nil
	}

	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	reset := &domain.PasswordReset{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(s.resetTokenTTL),
	}
	if _, err := s.resetRepo.Create(ctx, reset); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(s.resetBaseURL, "/"), reset.Token)
	body := fmt.Sprintf(
		"Hi %s,\n\nReset your password (valid %d min):\n%s\n",
		user.Username, int(s.resetTokenTTL.Minutes()), resetURL,
	)
	if err := s.mailer.Send(user.Email, "Password Reset", body); err != nil {
		// The token is already stored; a delivery failure should not leak
		// account existence either. Log and move on.
		log.Printf("ERROR: failed to send password reset email: %v", err)
	}

	return nil
}

// ResetPassword redeems a reset token and replaces the password hash.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	reset, err := s.resetRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if !reset.IsUsable(time.Now().UTC()) {
		return ErrInvalidResetToken
	}
	if !isValidPassword(newPassword) {
		return ErrWeakPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrHashingFailed
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, reset.UserID, string(hashedPassword)); err != nil {
		return err
	}
	return s.resetRepo.MarkUsed(ctx, reset.ID)
}

// GetJWTSecret returns the JWT secret for middleware authentication.
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}

// isValidPassword enforces the registration password policy: at least six
// characters with an upper-case letter, a lower-case letter and a digit.
func isValidPassword(password string) bool {
	if len(password) < 6 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	expirationTime := time.Now().Add(s.jwtExpiration)
	claims := &jwtClaims{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "bmi-coach",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
