package api

import (
	"alcyxob/bmi-coach/internal/service"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BMIHandler holds the BMI service dependency.
type BMIHandler struct {
	bmiService service.BMIService
}

// NewBMIHandler creates a new BMIHandler.
func NewBMIHandler(bmiService service.BMIService) *BMIHandler {
	return &BMIHandler{bmiService: bmiService}
}

// --- DTOs ---

// RecordBMIRequest carries one measurement. Height is in meters, weight in kg.
type RecordBMIRequest struct {
	Weight float64 `json:"weight" binding:"required,gt=0"`
	Height float64 `json:"height" binding:"required,gt=0"`
}

// --- Handler Methods ---

// RecordBMI computes and stores a BMI sample for the authenticated user.
func (h *BMIHandler) RecordBMI(c *gin.Context) {
	var req RecordBMIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	result, err := h.bmiService.Record(c.Request.Context(), userID, req.Weight, req.Height)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMeasurement) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to record BMI.")
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetHistory returns the user's BMI history, newest first, plus the latest
// sample from a previous day.
func (h *BMIHandler) GetHistory(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	history, err := h.bmiService.History(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve BMI history.")
		return
	}

	c.JSON(http.StatusOK, history)
}

// ClearHistory deletes the user's entire BMI history.
func (h *BMIHandler) ClearHistory(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	if err := h.bmiService.ClearHistory(c.Request.Context(), userID); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to clear BMI history.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "History cleared."})
}
