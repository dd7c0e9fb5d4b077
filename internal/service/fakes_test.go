package service

import (
	"alcyxob/bmi-coach/internal/domain"
	"alcyxob/bmi-coach/internal/llm"
	"alcyxob/bmi-coach/internal/repository"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes shared by the service tests.

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return user.ID, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	if user, ok := r.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

type fakeBMIRepo struct {
	samples []domain.BMISample
}

func (r *fakeBMIRepo) Insert(_ context.Context, sample *domain.BMISample) (primitive.ObjectID, error) {
	sample.ID = primitive.NewObjectID()
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = time.Now().UTC()
	}
	r.samples = append(r.samples, *sample)
	return sample.ID, nil
}

func (r *fakeBMIRepo) GetLatestByUser(_ context.Context, userID primitive.ObjectID) (*domain.BMISample, error) {
	var latest *domain.BMISample
	for i := range r.samples {
		s := &r.samples[i]
		if s.UserID != userID {
			continue
		}
		if latest == nil || s.RecordedAt.After(latest.RecordedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeBMIRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.BMISample, error) {
	var out []domain.BMISample
	for _, s := range r.samples {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	if out == nil {
		out = []domain.BMISample{}
	}
	return out, nil
}

func (r *fakeBMIRepo) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	var kept []domain.BMISample
	for _, s := range r.samples {
		if s.UserID != userID {
			kept = append(kept, s)
		}
	}
	r.samples = kept
	return nil
}

type fakePlanRepo struct {
	plans []domain.CoachPlan
}

func (r *fakePlanRepo) Insert(_ context.Context, plan *domain.CoachPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	r.plans = append(r.plans, *plan)
	return plan.ID, nil
}

func (r *fakePlanRepo) GetLatestByUser(_ context.Context, userID primitive.ObjectID) (*domain.CoachPlan, error) {
	var latest *domain.CoachPlan
	for i := range r.plans {
		p := &r.plans[i]
		if p.UserID != userID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

type fakeResetRepo struct {
	resets map[string]*domain.PasswordReset
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{resets: make(map[string]*domain.PasswordReset)}
}

func (r *fakeResetRepo) Create(_ context.Context, reset *domain.PasswordReset) (primitive.ObjectID, error) {
	reset.ID = primitive.NewObjectID()
	reset.CreatedAt = time.Now().UTC()
	clone := *reset
	r.resets[reset.Token] = &clone
	return reset.ID, nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, token string) (*domain.PasswordReset, error) {
	if reset, ok := r.resets[token]; ok {
		clone := *reset
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id primitive.ObjectID) error {
	for _, reset := range r.resets {
		if reset.ID == id {
			reset.Used = true
			return nil
		}
	}
	return repository.ErrNotFound
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	sent []sentMail
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// fakeGateway records calls and replies with a scripted response or error.
// Safe for concurrent callers.
type fakeGateway struct {
	mu       sync.Mutex
	response string
	err      error

	calls        int
	lastMessages []llm.Message
	lastTemp     float64
	lastTokens   int
}

func (g *fakeGateway) Complete(_ context.Context, messages []llm.Message, temperature float64, maxTokens int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastMessages = messages
	g.lastTemp = temperature
	g.lastTokens = maxTokens
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}
