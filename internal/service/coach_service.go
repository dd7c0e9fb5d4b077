package service

import (
	"alcyxob/bmi-coach/internal/domain"
	"alcyxob/bmi-coach/internal/llm"
	"alcyxob/bmi-coach/internal/repository"
	"context"
	"errors"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrNoBMIRecorded = errors.New("please calculate your BMI at least once before using the AI coach")
	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrNoPlan        = errors.New("no coach plan has been generated yet")
	ErrPlanSaveFail  = errors.New("failed to save generated plan")
)

// Generation parameters. Plan generation gets a generous token ceiling for
// four weeks of content; follow-up answers run tighter and cooler.
const (
	planTemperature = 0.7
	planMaxTokens   = 950
	askTemperature  = 0.6
	askMaxTokens    = 500

	defaultGoal = "lose weight"
)

// WeekView is the per-week slice of the active plan served to the UI.
type WeekView struct {
	Week    int    `json:"week"`
	Goal    string `json:"goal"`
	Content string `json:"content"`
}

// --- Service Interface ---
type CoachService interface {
	// Generate creates a new plan for the user, persists it and resets the
	// session (weeks recomputed, transcript cleared).
	Generate(ctx context.Context, userID primitive.ObjectID, goal string) (*domain.CoachSession, error)

	// WeekView loads the active plan if needed and returns the requested
	// week's section, clamped and with the full-text fallback applied.
	WeekView(ctx context.Context, userID primitive.ObjectID, week int) (*WeekView, error)

	// Ask answers a follow-up question and appends it to the bounded transcript.
	Ask(ctx context.Context, userID primitive.ObjectID, question string, week int) (string, error)

	// Transcript returns the current conversation turns, oldest first.
	Transcript(ctx context.Context, userID primitive.ObjectID) ([]domain.ConversationTurn, error)
}

// --- Service Implementation ---

// coachService mediates between the per-user session cache, durable storage
// and the LLM gateway.
type coachService struct {
	userRepo repository.UserRepository
	bmiRepo  repository.BMIRepository
	planRepo repository.PlanRepository
	gateway  llm.Gateway

	// Session cache keyed by user. The mutex is for memory safety only;
	// concurrent generates for one user stay last-insert-wins.
	mu       sync.RWMutex
	sessions map[primitive.ObjectID]*domain.CoachSession
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(
	userRepo repository.UserRepository,
	bmiRepo repository.BMIRepository,
	planRepo repository.PlanRepository,
	gateway llm.Gateway,
) CoachService {
	return &coachService{
		userRepo: userRepo,
		bmiRepo:  bmiRepo,
		planRepo: planRepo,
		gateway:  gateway,
		sessions: make(map[primitive.ObjectID]*domain.CoachSession),
	}
}

// Generate requires a previously recorded BMI sample, asks the model for a
// fresh 4-week plan and makes it the active plan for the user.
func (s *coachService) Generate(ctx context.Context, userID primitive.ObjectID, goal string) (*domain.CoachSession, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		goal = defaultGoal
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sample, err := s.bmiRepo.GetLatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoBMIRecorded
		}
		return nil, err
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: buildPlanPrompt(user.Username, sample.BMI, goal)},
	}

	planText, err := s.gateway.Complete(ctx, messages, planTemperature, planMaxTokens)
	if err != nil {
		return nil, err
	}

	plan := &domain.CoachPlan{
		UserID:   userID,
		Goal:     goal,
		PlanText: planText,
	}
	if _, err := s.planRepo.Insert(ctx, plan); err != nil {
		return nil, ErrPlanSaveFail
	}

	session := &domain.CoachSession{
		Goal:     goal,
		PlanText: planText,
		Weeks:    SegmentPlan(planText),
		// Transcript intentionally empty: regeneration resets the conversation.
	}

	s.mu.Lock()
	s.sessions[userID] = session
	// Snapshot before releasing the lock: once the session is published a
	// concurrent Ask may append to its transcript.
	snapshot := snapshotSession(session)
	s.mu.Unlock()

	return snapshot, nil
}

// WeekView serves one week of the active plan.
func (s *coachService) WeekView(ctx context.Context, userID primitive.ObjectID, week int) (*WeekView, error) {
	session, err := s.ensurePlanLoaded(ctx, userID)
	if err != nil {
		return nil, err
	}

	week = ClampWeek(week)
	return &WeekView{
		Week:    week,
		Goal:    session.Goal,
		Content: SelectWeek(session.Weeks, session.PlanText, week),
	}, nil
}

// Ask answers a live follow-up question. A plan is not required, but a
// recorded BMI is; the active plan's goal contextualizes the answer when
// one exists.
func (s *coachService) Ask(ctx context.Context, userID primitive.ObjectID, question string, week int) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	sample, err := s.bmiRepo.GetLatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNoBMIRecorded
		}
		return "", err
	}

	goal := defaultGoal
	session, err := s.ensurePlanLoaded(ctx, userID)
	switch {
	case err == nil:
		goal = session.Goal
	case errors.Is(err, ErrNoPlan):
		// Q&A still works without a plan; fall back to the default goal.
	default:
		return "", err
	}

	week = ClampWeek(week)
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: buildAskPrompt(user.Username, sample.BMI, goal, week, question)},
	}

	answer, err := s.gateway.Complete(ctx, messages, askTemperature, askMaxTokens)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	live := s.sessions[userID]
	if live == nil {
		live = &domain.CoachSession{Goal: goal, Weeks: SegmentPlan("")}
		s.sessions[userID] = live
	}
	live.AppendTurns(
		domain.ConversationTurn{Role: domain.TurnRoleUser, Content: question},
		domain.ConversationTurn{Role: domain.TurnRoleAssistant, Content: answer},
	)
	s.mu.Unlock()

	return answer, nil
}

// Transcript returns the bounded conversation log for the user. A user with
// no session simply has an empty transcript.
func (s *coachService) Transcript(_ context.Context, userID primitive.ObjectID) ([]domain.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := s.sessions[userID]
	if session == nil {
		return []domain.ConversationTurn{}, nil
	}
	turns := make([]domain.ConversationTurn, len(session.Transcript))
	copy(turns, session.Transcript)
	return turns, nil
}

// ensurePlanLoaded returns the cached session for the user, loading the most
// recently stored plan and re-deriving its week map on a cache miss. Returns
// ErrNoPlan when the user has never generated a plan.
func (s *coachService) ensurePlanLoaded(ctx context.Context, userID primitive.ObjectID) (*domain.CoachSession, error) {
	s.mu.RLock()
	if session := s.sessions[userID]; session != nil && session.PlanText != "" {
		// Snapshot while still holding the lock; the cached session's
		// transcript slice is mutated by concurrent Asks.
		snapshot := snapshotSession(session)
		s.mu.RUnlock()
		return snapshot, nil
	}
	s.mu.RUnlock()

	plan, err := s.planRepo.GetLatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPlan
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check under the write lock; another request may have loaded or
	// regenerated in the meantime.
	if live := s.sessions[userID]; live != nil && live.PlanText != "" {
		return snapshotSession(live), nil
	}
	loaded := &domain.CoachSession{
		Goal:     plan.Goal,
		PlanText: plan.PlanText,
		Weeks:    SegmentPlan(plan.PlanText),
	}
	if live := s.sessions[userID]; live != nil {
		// Keep any transcript accumulated from plan-less Q&A.
		loaded.Transcript = live.Transcript
	}
	s.sessions[userID] = loaded
	return snapshotSession(loaded), nil
}

// snapshotSession copies a session so callers never share mutable state with
// the cache.
func snapshotSession(session *domain.CoachSession) *domain.CoachSession {
	snapshot := &domain.CoachSession{
		Goal:     session.Goal,
		PlanText: session.PlanText,
		Weeks:    make(domain.WeekMap, len(session.Weeks)),
	}
	for week, text := range session.Weeks {
		snapshot.Weeks[week] = text
	}
	snapshot.Transcript = make([]domain.ConversationTurn, len(session.Transcript))
	copy(snapshot.Transcript, session.Transcript)
	return snapshot
}
