package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/guardianlink/guardianlink360/internal/cooling"
	"github.com/guardianlink/guardianlink360/internal/handlers"
	"github.com/guardianlink/guardianlink360/internal/notifier"
	"github.com/guardianlink/guardianlink360/internal/oracle"
	"github.com/guardianlink/guardianlink360/internal/presence"
	"github.com/guardianlink/guardianlink360/internal/repository"
	"github.com/guardianlink/guardianlink360/internal/service"
	"github.com/guardianlink/guardianlink360/pkg/config"
	"github.com/guardianlink/guardianlink360/pkg/database"
	"github.com/guardianlink/guardianlink360/pkg/events"
	"github.com/guardianlink/guardianlink360/pkg/logger"
	mw "github.com/guardianlink/guardianlink360/pkg/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	alertRepo := repository.NewAlertRepository(pool)
	incidentRepo := repository.NewIncidentRepository(pool)
	otpStore := repository.NewRedisOTPStore(redisClient)

	// Oracle risk scorer
	oracleClient := oracle.NewHTTPClient(cfg.Oracle)

	// Off-band delivery: gateway in production, logs in dev
	var notifierSvc notifier.Service
	if cfg.Notify.DevMode {
		notifierSvc = notifier.NewDevNotifier()
	} else {
		notifierSvc = notifier.NewGatewayNotifier(cfg.Notify)
	}
	mailer := notifier.NewMailer(cfg.Notify.MailerSendKey)
	consumer := notifier.NewConsumer(notifierSvc, mailer)
	if err := consumer.Start(eventBus); err != nil {
		logger.Error("Failed to start notification consumer", "error", err)
		os.Exit(1)
	}

	// Realtime hub
	hub := presence.NewHub(cfg.Auth.JWTSecret, func(ctx context.Context, guardianPhone string) ([]string, error) {
		seniors, err := userRepo.ListSeniorsByGuardian(ctx, guardianPhone)
		if err != nil {
			return nil, err
		}
		phones := make([]string, 0, len(seniors))
		for _, s := range seniors {
			phones = append(phones, s.Phone)
		}
		return phones, nil
	})

	// Cooling registry. The expiry callback needs the transaction service,
	// which needs the registry; the sweeper only starts after both exist.
	var transactionService service.TransactionService
	coolingStore := cooling.NewRedisStore(redisClient)
	registry := cooling.NewRegistry(coolingStore, cfg.Cooling, func(ctx context.Context, e cooling.Entry, policy config.ExpiryPolicy) {
		transactionService.HandleExpiry(ctx, e, policy)
	})

	// Initialize services
	authService := service.NewAuthService(userRepo, otpStore, notifierSvc, cfg)
	alertService := service.NewAlertService(userRepo, alertRepo, incidentRepo, oracleClient, hub, eventBus)
	transactionService = service.NewTransactionService(userRepo, alertRepo, incidentRepo, registry, hub, eventBus)
	dashboardService := service.NewDashboardService(alertRepo, incidentRepo, hub)

	registry.Start(ctx)
	defer registry.Stop()

	// Initialize handlers
	h := handlers.New(authService, alertService, transactionService, dashboardService, cfg)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000", "*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health)

	// Routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/otp/request", h.RequestOTP)
			r.Post("/otp/verify", h.VerifyOTP)
			r.With(h.RequireJWT("")).Get("/user/{phone}", h.GetUser)
		})

		r.Route("/alert", func(r chi.Router) {
			r.Post("/panic", h.TriggerPanic)
			r.Post("/verify-caller", h.VerifyCaller)
			r.Post("/scam-check", h.ScamCheck)
			r.Get("/history/{seniorPhone}", h.AlertHistory)
		})

		r.Route("/transaction", func(r chi.Router) {
			r.Post("/flag", h.FlagTransaction)
			r.With(h.RequireJWT("guardian")).Post("/approve", h.ApproveTransaction)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(h.RequireJWT("guardian"))
			r.Get("/alerts/{guardianPhone}", h.DashboardAlerts)
			r.Get("/incidents/{guardianPhone}", h.DashboardIncidents)
			r.Get("/stats/{guardianPhone}", h.DashboardStats)
			r.Post("/resolve/{incidentID}", h.ResolveIncident)
			r.Post("/resolve-alert/{alertID}", h.ResolveAlert)
		})
	})

	r.Get("/ws", hub.ServeWS)

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API server error", "error", err)
		os.Exit(1)
	}
}
