package service

import (
	"alcyxob/bmi-coach/internal/domain"
	"alcyxob/bmi-coach/internal/llm"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newCoachFixture(t *testing.T, gateway *fakeGateway) (CoachService, *domain.User, *fakeBMIRepo, *fakePlanRepo) {
	t.Helper()

	user := &domain.User{
		ID:       primitive.NewObjectID(),
		Username: "alice",
		Email:    "alice@example.com",
	}
	bmiRepo := &fakeBMIRepo{}
	planRepo := &fakePlanRepo{}
	svc := NewCoachService(newFakeUserRepo(user), bmiRepo, planRepo, gateway)
	return svc, user, bmiRepo, planRepo
}

func recordSample(t *testing.T, bmiRepo *fakeBMIRepo, userID primitive.ObjectID, bmi float64) {
	t.Helper()
	_, err := bmiRepo.Insert(context.Background(), &domain.BMISample{
		UserID:     userID,
		Weight:     80,
		Height:     1.8,
		BMI:        bmi,
		Category:   domain.CategoryForBMI(bmi),
		RecordedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestGenerateWithoutBMISample(t *testing.T) {
	gateway := &fakeGateway{response: wellFormedPlan}
	svc, user, _, planRepo := newCoachFixture(t, gateway)

	_, err := svc.Generate(context.Background(), user.ID, "lose weight")

	require.ErrorIs(t, err, ErrNoBMIRecorded)
	assert.Zero(t, gateway.calls, "gateway must not be called without a BMI")
	assert.Empty(t, planRepo.plans, "no plan row may be inserted")
}

func TestGeneratePersistsPlanAndDerivesWeeks(t *testing.T) {
	gateway := &fakeGateway{response: wellFormedPlan}
	svc, user, bmiRepo, planRepo := newCoachFixture(t, gateway)
	recordSample(t, bmiRepo, user.ID, 24.69)

	session, err := svc.Generate(context.Background(), user.ID, "build muscle")
	require.NoError(t, err)

	// Plan persisted as a new row.
	require.Len(t, planRepo.plans, 1)
	assert.Equal(t, "build muscle", planRepo.plans[0].Goal)
	assert.Equal(t, wellFormedPlan, planRepo.plans[0].PlanText)

	// Session carries the derived week map and a clean transcript.
	assert.Equal(t, SegmentPlan(wellFormedPlan), session.Weeks)
	assert.Empty(t, session.Transcript)

	// Prompt embeds name, BMI and goal, with the plan generation parameters.
	require.Len(t, gateway.lastMessages, 2)
	assert.Equal(t, llm.RoleSystem, gateway.lastMessages[0].Role)
	assert.Contains(t, gateway.lastMessages[1].Content, "alice")
	assert.Contains(t, gateway.lastMessages[1].Content, "24.69")
	assert.Contains(t, gateway.lastMessages[1].Content, "build muscle")
	assert.InDelta(t, 0.7, gateway.lastTemp, 0.001)
	assert.Equal(t, 950, gateway.lastTokens)
}

func TestGenerateDefaultsEmptyGoal(t *testing.T) {
	gateway := &fakeGateway{response: wellFormedPlan}
	svc, user, bmiRepo, planRepo := newCoachFixture(t, gateway)
	recordSample(t, bmiRepo, user.ID, 27.5)

	session, err := svc.Generate(context.Background(), user.ID, "  ")
	require.NoError(t, err)
	assert.Equal(t, "lose weight", session.Goal)
	assert.Equal(t, "lose weight", planRepo.plans[0].Goal)
}

func TestGenerateGatewayFailureInsertsNothing(t *testing.T) {
	gateway := &fakeGateway{err: &llm.GatewayError{Kind: llm.KindUpstream, Status: 401, Detail: `{"error":"bad key"}`}}
	svc, user, bmiRepo, planRepo := newCoachFixture(t, gateway)
	recordSample(t, bmiRepo, user.ID, 27.5)

	_, err := svc.Generate(context.Background(), user.ID, "lose weight")

	gwErr, ok := llm.AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, llm.KindUpstream, gwErr.Kind)
	assert.Equal(t, 401, gwErr.Status)
	assert.Contains(t, gwErr.Error(), "401")
	assert.Contains(t, gwErr.Error(), "bad key")
	assert.Empty(t, planRepo.plans)
}

func TestGenerateSupersedesPreviousPlanAndClearsTranscript(t *testing.T) {
	gateway := &fakeGateway{response: wellFormedPlan}
	svc, user, bmiRepo, planRepo := newCoachFixture(t, gateway)
	recordSample(t, bmiRepo, user.ID, 27.5)

	_, err := svc.Generate(context.Background(), user.ID, "lose weight")
	require.NoError(t, err)

	gateway.response = "sure, here is an answer"
	_, err = svc.Ask(context.Background(), user.ID, "what should I eat?", 1)
	require.NoError(t, err)

	turns, err := svc.Transcript(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)

	// Regeneration inserts a second row and resets the conversation.
	gateway.response = wellFormedPlan
	session, err := svc.Generate(context.Background(), user.ID, "get fit")
	require.NoError(t, err)

	assert.Len(t, planRepo.plans, 2)
	assert.Empty(t, session.Transcript)

	turns, err = svc.Transcript(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAskValidation(t *testing.T) {
	gateway := &fakeGateway{response: "answer"}
	svc, user, bmiRepo, _ := newCoachFixture(t, gateway)

	t.Run("empty question", func(t *testing.T) {
		_, err := svc.Ask(context.Background(), user.ID, "   ", 1)
		assert.ErrorIs(t, err, ErrEmptyQuestion)
	})

	t.Run("no BMI recorded", func(t *testing.T) {
		_, err := svc.Ask(context.Background(), user.ID, "how much protein?", 1)
		assert.ErrorIs(t, err, ErrNoBMIRecorded)
	})

	t.Run("works without a plan once BMI exists", func(t *testing.T) {
		recordSample(t, bmiRepo, user.ID, 22.0)
		answer, err := svc.Ask(context.Background(), user.ID, "how much protein?", 1)
		require.NoError(t, err)
		assert.Equal(t, "answer", answer)
		assert.InDelta(t, 0.6, gateway.lastTemp, 0.001)
		assert.Equal(t, 500, gateway.lastTokens)
	})
}

func TestAskTranscriptBounded(t *testing.T) {
	gateway := &fakeGateway{}
	svc, user, bmiRepo, _ := newCoachFixture(t, gateway)
	recordSample(t, bmiRepo, user.ID, 22.0)

	for i := 0; i < 15; i++ {
		gateway.response = fmt.Sprintf("answer %d", i)
		_, err := svc.Ask(context.Background(), user.ID, fmt.Sprintf("question %d", i), 1)
		require.NoError(t, err)
	}

	turns, err := svc.Transcript(context.Background(), user.ID)
	require.NoError(t, err)

	// 15 asks produce 30 turns; only the most recent 20 survive, in order.
	require.Len(t, turns, domain.MaxTranscriptTurns)
	assert.Equal(t, domain.TurnRoleUser, turns[0].Role)
	assert.Equal(t, "question 5", turns[0].Content)
	assert.Equal(t, domain.TurnRoleAssistant, turns[len(turns)-1].Role)
	assert.Equal(t, "answer 14", turns[len(turns)-1].Content)
}

// Exercises the session cache from concurrent requests for one user. Run with
// the race detector: readers must only ever see snapshots, never the live
// session whose transcript Ask mutates.
func TestConcurrentSessionAccess(t *testing.T) {
	gateway := &fakeGateway{response: wellFormedPlan}
	svc, user, bmiRepo, _ := newCoachFixture(t, gateway)
	recordSample(t, bmiRepo, user.ID, 24.69)

	_, err := svc.Generate(context.Background(), user.ID, "lose weight")
	require.NoError(t, err)

	const rounds = 100
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if _, err := svc.Ask(context.Background(), user.ID, "what next?", 1); err != nil {
				t.Errorf("Ask: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			view, err := svc.WeekView(context.Background(), user.ID, 2)
			if err != nil {
				t.Errorf("WeekView: %v", err)
				return
			}
			if !strings.Contains(view.Content, "bodyweight squats") {
				t.Errorf("unexpected week 2 content: %q", view.Content)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds/10; i++ {
			if _, err := svc.Generate(context.Background(), user.ID, "get fit"); err != nil {
				t.Errorf("Generate: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	turns, err := svc.Transcript(context.Background(), user.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(turns), domain.MaxTranscriptTurns)
}

func TestWeekViewLoadsStoredPlan(t *testing.T) {
	gateway := &fakeGateway{}
	svc, user, bmiRepo, planRepo := newCoachFixture(t, gateway)
	recordSample(t, bmiRepo, user.ID, 22.0)

	// Plan exists in durable storage but not in the session cache.
	_, err := planRepo.Insert(context.Background(), &domain.CoachPlan{
		UserID:   user.ID,
		Goal:     "lose weight",
		PlanText: wellFormedPlan,
	})
	require.NoError(t, err)

	view, err := svc.WeekView(context.Background(), user.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, view.Week)
	assert.Equal(t, "lose weight", view.Goal)
	assert.Contains(t, view.Content, "bodyweight squats")
	assert.Zero(t, gateway.calls, "viewing a week never calls the model")
}

func TestWeekViewClampsAndFallsBack(t *testing.T) {
	gateway := &fakeGateway{}
	svc, user, _, planRepo := newCoachFixture(t, gateway)

	raw := "no headings at all, just advice"
	_, err := planRepo.Insert(context.Background(), &domain.CoachPlan{
		UserID:   user.ID,
		Goal:     "lose weight",
		PlanText: raw,
	})
	require.NoError(t, err)

	// Week 9 clamps to 4; week 4 has no content, so the raw text is served.
	view, err := svc.WeekView(context.Background(), user.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Week)
	assert.Equal(t, raw, view.Content)
}

func TestWeekViewNoPlan(t *testing.T) {
	gateway := &fakeGateway{}
	svc, user, _, _ := newCoachFixture(t, gateway)

	_, err := svc.WeekView(context.Background(), user.ID, 1)
	assert.ErrorIs(t, err, ErrNoPlan)
}

func TestLatestStoredPlanWins(t *testing.T) {
	gateway := &fakeGateway{}
	svc, user, _, planRepo := newCoachFixture(t, gateway)

	older := &domain.CoachPlan{UserID: user.ID, Goal: "old", PlanText: "old plan", CreatedAt: time.Now().UTC().Add(-time.Hour)}
	newer := &domain.CoachPlan{UserID: user.ID, Goal: "new", PlanText: "new plan", CreatedAt: time.Now().UTC()}
	_, err := planRepo.Insert(context.Background(), older)
	require.NoError(t, err)
	_, err = planRepo.Insert(context.Background(), newer)
	require.NoError(t, err)

	view, err := svc.WeekView(context.Background(), user.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", view.Goal)
	assert.Equal(t, "new plan", view.Content)
}
