package main

import (
	"alcyxob/bmi-coach/internal/api"
	"alcyxob/bmi-coach/internal/config"
	"alcyxob/bmi-coach/internal/email"
	"alcyxob/bmi-coach/internal/llm"
	"alcyxob/bmi-coach/internal/repository/mongo"
	"alcyxob/bmi-coach/internal/service"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting BMI Coach Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation in the background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureBMIIndexes(ctx, appDB.Collection("bmi_samples"))
		mongo.EnsurePlanIndexes(ctx, appDB.Collection("coach_plans"))
		mongo.EnsurePasswordResetIndexes(ctx, appDB.Collection("password_resets"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Outbound Services ---
	log.Println("Initializing LLM gateway and mailer...")
	gateway := llm.NewOpenRouterGateway(cfg.LLM)
	mailer := email.NewMailer(cfg.Email)

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	bmiRepo := mongo.NewMongoBMIRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	resetRepo := mongo.NewMongoPasswordResetRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, resetRepo, mailer, cfg.JWT, cfg.Reset)
	bmiService := service.NewBMIService(bmiRepo)
	coachService := service.NewCoachService(userRepo, bmiRepo, planRepo, gateway)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, bmiService, coachService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
		// Plan generation blocks on the LLM call, so the write timeout must
		// exceed the gateway timeout.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
