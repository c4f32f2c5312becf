package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/vzolin/cashplan-service/internal/config"
	"github.com/vzolin/cashplan-service/internal/handler"
	"github.com/vzolin/cashplan-service/internal/integrations/cbr"
	"github.com/vzolin/cashplan-service/internal/integrations/orderimport"
	"github.com/vzolin/cashplan-service/internal/middleware"
	"github.com/vzolin/cashplan-service/internal/planner"
	"github.com/vzolin/cashplan-service/internal/repository"
	"github.com/vzolin/cashplan-service/internal/service"
	"github.com/vzolin/cashplan-service/internal/utils/email"
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
	cbrClient := cbr.NewCBRClient(cfg, logger)
	importClient := orderimport.NewClient(cfg, logger)
	mailer := email.NewSender(cfg, logger)
	svc := service.NewService(repo, logger, cfg, cbrClient, importClient, mailer)
	h := handler.NewHandler(svc)

	// Scheduled jobs: refresh the CNY rate every morning, then send
	// payment reminders and a cash-gap alert if one is projected.
	c := cron.New()
	if _, err := c.AddFunc("0 7 * * *", func() {
		if err := svc.RefreshCNYRate(); err != nil {
			logger.Errorf("CNY rate refresh failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule rate refresh: %v", err)
	}
	if _, err := c.AddFunc("30 7 * * *", func() {
		if err := svc.SendDueReminders(); err != nil {
			logger.Errorf("Reminder job failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule reminders: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// CBR currency rate endpoint
	r.HandleFunc("/cny-rate", func(w http.ResponseWriter, r *http.Request) {
		rate, err := cbrClient.GetCurrencyRate(planner.CurrencyCNY)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get CNY rate: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]float64{"cny_rate": rate})
	}).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/accounts", h.ListAccounts).Methods("GET")
	authRouter.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	authRouter.HandleFunc("/accounts/{id}", h.UpdateAccount).Methods("PUT")
	authRouter.HandleFunc("/accounts/{id}", h.DeleteAccount).Methods("DELETE")
	authRouter.HandleFunc("/counterparties", h.ListCounterparties).Methods("GET")
	authRouter.HandleFunc("/counterparties", h.CreateCounterparty).Methods("POST")
	authRouter.HandleFunc("/suppliers", h.ListSuppliers).Methods("GET")
	authRouter.HandleFunc("/suppliers", h.CreateSupplier).Methods("POST")
	authRouter.HandleFunc("/payments", h.ListPayments).Methods("GET")
	authRouter.HandleFunc("/payments", h.CreatePayment).Methods("POST")
	authRouter.HandleFunc("/payments/{id}", h.UpdatePayment).Methods("PUT")
	authRouter.HandleFunc("/payments/{id}", h.DeletePayment).Methods("DELETE")
	authRouter.HandleFunc("/orders", h.ListOrders).Methods("GET")
	authRouter.HandleFunc("/orders", h.CreateOrder).Methods("POST")
	authRouter.HandleFunc("/orders/impact", h.OrderImpact).Methods("POST")
	authRouter.HandleFunc("/orders/import", h.ImportOrders).Methods("POST")
	authRouter.HandleFunc("/orders/{id}", h.UpdateOrder).Methods("PUT")
	authRouter.HandleFunc("/orders/{id}", h.DeleteOrder).Methods("DELETE")
	authRouter.HandleFunc("/expenses", h.ListExpenses).Methods("GET")
	authRouter.HandleFunc("/expenses", h.CreateExpense).Methods("POST")
	authRouter.HandleFunc("/expenses/{id}", h.UpdateExpense).Methods("PUT")
	authRouter.HandleFunc("/expenses/{id}", h.DeleteExpense).Methods("DELETE")
	authRouter.HandleFunc("/settings", h.GetSettings).Methods("GET")
	authRouter.HandleFunc("/settings", h.UpdateSettings).Methods("PUT")
	authRouter.HandleFunc("/plan", h.GetPlan).Methods("GET")
	authRouter.HandleFunc("/plan/balance", h.GetBalanceOnDate).Methods("GET")

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
