package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redipay/bridge-service/internal/config"
	"github.com/redipay/bridge-service/internal/handler"
	"github.com/redipay/bridge-service/internal/integrations/collateral"
	"github.com/redipay/bridge-service/internal/middleware"
	"github.com/redipay/bridge-service/internal/repository"
	"github.com/redipay/bridge-service/internal/scheduler"
	"github.com/redipay/bridge-service/internal/service"
	"github.com/redipay/bridge-service/internal/utils/email"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	if err := repo.EnsureSchema(); err != nil {
		logger.Fatalf("Failed to ensure schema: %v", err)
	}
	ledger := collateral.NewClient(cfg, logger)
	notifier := email.NewSender(cfg, logger)
	svc := service.NewService(repo, ledger, notifier, logger, cfg)
	h := handler.NewHandler(svc)

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/plans", h.CreatePlan).Methods("POST")
	authRouter.HandleFunc("/plans", h.GetUserPlans).Methods("GET")
	authRouter.HandleFunc("/plans/{id}", h.GetPlan).Methods("GET")
	authRouter.HandleFunc("/plans/{id}/next-due", h.GetNextDue).Methods("GET")
	authRouter.HandleFunc("/plans/{id}/installments/{number}/collect", h.CollectInstallment).Methods("POST")

	// Start due-installment collection sweep
	collector := scheduler.NewCollector(svc, repo, logger)
	if err := collector.Start(cfg.CollectCron); err != nil {
		logger.Fatalf("Failed to start collection scheduler: %v", err)
	}
	defer collector.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
