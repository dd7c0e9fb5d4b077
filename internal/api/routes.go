package api

import (
	"alcyxob/bmi-coach/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	bmiService service.BMIService,
	coachService service.CoachService,
) {
	authHandler := NewAuthHandler(authService)
	bmiHandler := NewBMIHandler(bmiService)
	coachHandler := NewCoachHandler(coachService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/forgot", authHandler.ForgotPassword)
			authGroup.POST("/reset", authHandler.ResetPassword)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			username, _ := getUsernameFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "username": username})
		})

		// --- BMI Routes ---
		bmiGroup := protected.Group("/bmi")
		{
			// POST /api/v1/bmi
			bmiGroup.POST("", bmiHandler.RecordBMI)
			// GET /api/v1/bmi/history
			bmiGroup.GET("/history", bmiHandler.GetHistory)
			// DELETE /api/v1/bmi/history
			bmiGroup.DELETE("/history", bmiHandler.ClearHistory)
		}

		// --- AI Coach Routes ---
		coachGroup := protected.Group("/coach")
		{
			// POST /api/v1/coach/plan (generate a fresh plan)
			coachGroup.POST("/plan", coachHandler.GeneratePlan)
			// GET /api/v1/coach/plan?week=n (week-by-week view)
			coachGroup.GET("/plan", coachHandler.GetWeek)
			// POST /api/v1/coach/ask
			coachGroup.POST("/ask", coachHandler.Ask)
			// GET /api/v1/coach/conversation
			coachGroup.GET("/conversation", coachHandler.GetConversation)
		}
	}
}
