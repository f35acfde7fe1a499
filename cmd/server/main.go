package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/eduauth/internal"
	"github.com/DukeRupert/eduauth/internal/authflow"
	"github.com/DukeRupert/eduauth/internal/csrf"
	"github.com/DukeRupert/eduauth/internal/email"
	"github.com/DukeRupert/eduauth/internal/gateway"
	"github.com/DukeRupert/eduauth/internal/gateway/betterauth"
	"github.com/DukeRupert/eduauth/internal/gateway/mock"
	"github.com/DukeRupert/eduauth/internal/handler"
	"github.com/DukeRupert/eduauth/internal/metrics"
	"github.com/DukeRupert/eduauth/internal/middleware"
)

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize auth gateway
	client, devGateway, err := newGateway(cfg, logger)
	if err != nil {
		return fmt.Errorf("auth gateway initialization failed: %w", err)
	}
	logger.Info("Auth gateway ready", "gateway", cfg.AuthGateway)

	// One credential form controller per visit and mode
	registry := authflow.NewRegistry(authflow.Options{
		Gateway: client,
		Routes:  authflow.DefaultRoutes(cfg.BaseURL),
		Logger:  logger,
	}, cfg.VisitTTL)
	defer registry.Close()

	// Initialize middleware
	isSecure := cfg.IsSecure()
	authMw := middleware.NewAuthMiddleware(client, logger)
	rateLimiter := middleware.NewAuthRateLimiter(logger)
	defer rateLimiter.Close()

	formActions := append([]string{}, middleware.DefaultFormActionOrigins...)
	if cfg.AuthAPIURL != "" {
		formActions = append(formActions, cfg.AuthAPIURL)
	}
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure, formActions...)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		logger.Warn("METRICS_USERNAME and METRICS_PASSWORD are empty; /metrics is unprotected")
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(registry, client, gateway.Providers, logger, isSecure)
	dashboardHandler := handler.NewDashboardHandler(logger, isSecure)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	staticFS := http.FileServer(http.Dir("web/static"))
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticFS))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus scrape endpoint
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})

	// Auth routes (public - no session required)
	authHandler.RegisterRoutes(mux, handler.Guards{
		CSRF:        csrf.Protect(handler.CSRFFailureResponse(logger)),
		LimitLogin:  rateLimiter.LimitLogin,
		LimitSignup: rateLimiter.LimitSignup,
		LimitOAuth:  rateLimiter.LimitOAuth,
		SignedIn:    authMw.RedirectIfSignedIn("/dashboard"),
	})

	// Dashboard (requires a session)
	mux.Handle("GET /dashboard", authMw.RequireUser(http.HandlerFunc(dashboardHandler.Show)))

	if devGateway != nil {
		registerDevRoutes(mux, devGateway, logger)
	}

	// Global middleware, outermost first. metrics.Middleware must sit
	// directly on the mux to see the matched route pattern.
	root := middleware.Stack(
		loggingMw.Handler,
		securityMw.Handler,
		authMw.WithSession,
		metrics.Middleware,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newGateway builds the configured auth gateway. The mock gateway is also
// returned on its own so development routes can reach it.
func newGateway(cfg *internal.Config, logger *slog.Logger) (gateway.Client, *mock.Gateway, error) {
	switch cfg.AuthGateway {
	case internal.GatewayBetterAuth:
		client, err := betterauth.New(betterauth.Config{
			BaseURL:        cfg.AuthAPIURL,
			Origin:         cfg.BaseURL,
			CookiePrefix:   cfg.AuthCookiePrefix,
			RequestTimeout: cfg.AuthRequestTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil

	default:
		g := mock.New(mock.Config{
			GoogleClientID:           cfg.GoogleClientID,
			GoogleClientSecret:       cfg.GoogleClientSecret,
			GitHubClientID:           cfg.GitHubClientID,
			GitHubClientSecret:       cfg.GitHubClientSecret,
			RequireEmailVerification: cfg.RequireEmailVerification,
			Mailer:                   newMailer(cfg, logger),
			VerifyURL:                cfg.BaseURL + "/dev/verify-email",
		}, logger)

		if _, err := g.AddUser("Demo Learner", "demo@example.com", "password123"); err != nil {
			return nil, nil, fmt.Errorf("seed demo user: %w", err)
		}
		logger.Info("Mock gateway seeded", "email", "demo@example.com")
		return g, g, nil
	}
}

// newMailer sends through SMTP when SMTP_HOST is set and logs otherwise.
func newMailer(cfg *internal.Config, logger *slog.Logger) email.Mailer {
	if cfg.SMTPHost == "" {
		return email.NewLogMailer(logger)
	}
	return email.NewSMTPMailer(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, logger)
}

// registerDevRoutes exposes helpers that stand in for the provider's email
// flow when running against the mock gateway.
func registerDevRoutes(mux *http.ServeMux, g *mock.Gateway, logger *slog.Logger) {
	// GET /dev/verify-email?email=... marks the address verified, as clicking
	// the link in a verification email would.
	mux.HandleFunc("GET /dev/verify-email", func(w http.ResponseWriter, r *http.Request) {
		if !g.VerifyEmail(r.URL.Query().Get("email")) {
			handler.NotFoundResponse(w, r, logger)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
