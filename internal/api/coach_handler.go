package api

import (
	"alcyxob/bmi-coach/internal/domain"
	"alcyxob/bmi-coach/internal/llm"
	"alcyxob/bmi-coach/internal/service"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// CoachHandler holds the coach service dependency.
type CoachHandler struct {
	coachService service.CoachService
}

// NewCoachHandler creates a new CoachHandler.
func NewCoachHandler(coachService service.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

// --- DTOs ---

type GeneratePlanRequest struct {
	Goal string `json:"goal"` // defaults server-side when empty
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
	Week     int    `json:"week"` // clamped server-side
}

// PlanResponse is the full active plan with its week sections.
type PlanResponse struct {
	Goal     string         `json:"goal"`
	PlanText string         `json:"planText"`
	Weeks    domain.WeekMap `json:"weeks"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

// --- Handler Methods ---

// GeneratePlan asks the model for a fresh 4-week plan, stores it and returns
// it with the week map. Any previous conversation is cleared.
func (h *CoachHandler) GeneratePlan(c *gin.Context) {
	var req GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	session, err := h.coachService.Generate(c.Request.Context(), userID, req.Goal)
	if err != nil {
		abortWithCoachError(c, err)
		return
	}

	c.JSON(http.StatusCreated, PlanResponse{
		Goal:     session.Goal,
		PlanText: session.PlanText,
		Weeks:    session.Weeks,
	})
}

// GetWeek serves one week of the active plan. The week query parameter is
// clamped to 1..4; an unparseable value falls back to week 1.
func (h *CoachHandler) GetWeek(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	week, err := strconv.Atoi(c.DefaultQuery("week", "1"))
	if err != nil {
		week = 1
	}

	view, err := h.coachService.WeekView(c.Request.Context(), userID, week)
	if err != nil {
		abortWithCoachError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Ask answers a follow-up question and appends it to the conversation.
func (h *CoachHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	answer, err := h.coachService.Ask(c.Request.Context(), userID, req.Question, req.Week)
	if err != nil {
		abortWithCoachError(c, err)
		return
	}

	c.JSON(http.StatusOK, AskResponse{Answer: answer})
}

// GetConversation returns the bounded Q&A transcript, oldest first.
func (h *CoachHandler) GetConversation(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	turns, err := h.coachService.Transcript(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve conversation.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"turns": turns})
}

// abortWithCoachError maps coach/gateway failures onto HTTP statuses. Gateway
// failures keep their descriptive message so the client can show diagnostics.
func abortWithCoachError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoBMIRecorded):
		abortWithError(c, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, service.ErrEmptyQuestion):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoPlan):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		if gwErr, ok := llm.AsGatewayError(err); ok {
			switch gwErr.Kind {
			case llm.KindUnavailable:
				abortWithError(c, http.StatusServiceUnavailable, gwErr.Error())
			case llm.KindTimeout:
				abortWithError(c, http.StatusGatewayTimeout, gwErr.Error())
			default: // upstream, network, malformed
				abortWithError(c, http.StatusBadGateway, gwErr.Error())
			}
			return
		}
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
