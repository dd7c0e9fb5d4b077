package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanWeekCount is the fixed number of weeks in a generated coach plan.
const PlanWeekCount = 4

// MaxTranscriptTurns bounds a coach conversation; oldest turns are dropped first.
const MaxTranscriptTurns = 20

// CoachPlan is one stored plan generation event. Plans are append-only;
// the latest row by CreatedAt is the active plan for a user.
type CoachPlan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Goal      string             `bson:"goal" json:"goal"`
	PlanText  string             `bson:"planText" json:"planText"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// WeekMap maps week number (1..PlanWeekCount) to that week's section text.
// All four keys are always present; an empty value means the model produced
// no parseable content for that week.
type WeekMap map[int]string

// TurnRole identifies the speaker of a conversation turn.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// ConversationTurn is one message in the coach Q&A transcript.
type ConversationTurn struct {
	Role    TurnRole `json:"role"`
	Content string   `json:"content"`
}

// CoachSession is the per-user session state the coach controller operates on.
// It is reset (new plan text, new weeks, cleared transcript) on every regenerate.
type CoachSession struct {
	Goal       string             `json:"goal"`
	PlanText   string             `json:"planText"`
	Weeks      WeekMap            `json:"weeks"`
	Transcript []ConversationTurn `json:"transcript"`
}

// AppendTurns appends turns to the transcript and enforces the
// MaxTranscriptTurns bound, keeping the most recent turns.
func (s *CoachSession) AppendTurns(turns ...ConversationTurn) {
	s.Transcript = append(s.Transcript, turns...)
	if excess := len(s.Transcript) - MaxTranscriptTurns; excess > 0 {
		s.Transcript = s.Transcript[excess:]
	}
}
