package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/techhub5500/Yield-sub002/src/config"
	"github.com/techhub5500/Yield-sub002/src/database"
	"github.com/techhub5500/Yield-sub002/src/handlers"
	"github.com/techhub5500/Yield-sub002/src/logger"
	"github.com/techhub5500/Yield-sub002/src/metrics"
	"github.com/techhub5500/Yield-sub002/src/orchestrator"
	"github.com/techhub5500/Yield-sub002/src/repository"
	"github.com/techhub5500/Yield-sub002/src/security"
	"github.com/techhub5500/Yield-sub002/src/services"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000":    true,
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Yield backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid: must be at least 32 characters.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	repo := repository.NewSQLiteRepository(database.DB)
	authService := security.NewAuthService(config.Cfg.JWTSecret)

	priceService := services.NewPriceService(
		config.Cfg.MarketDataBaseURL,
		config.Cfg.RatesAPIBaseURL,
		config.Cfg.QuoteRequestTimeout,
		config.Cfg.PriceCacheTTL,
	)
	ratesService := services.NewRatesService(
		config.Cfg.RatesAPIBaseURL,
		config.Cfg.QuoteRequestTimeout,
		config.Cfg.BenchmarkCacheTTL,
	)
	benchmarkService := services.NewBenchmarkService(ratesService, priceService)
	valuationService := services.NewValuationService(repo, priceService)
	profitabilityService := services.NewProfitabilityService(repo, priceService, benchmarkService)

	registry := metrics.NewRegistry()
	metrics.RegisterInvestments(registry, valuationService, profitabilityService)
	engine := metrics.NewEngine(registry)
	logger.L.Info("Metric registry initialized", "metrics", registry.IDs())

	var planner orchestrator.Planner
	var agents []orchestrator.Agent
	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: config.Cfg.GeminiAPIKey})
	if err != nil {
		logger.L.Warn("Gemini client unavailable, chat orchestration degraded", "error", err)
	} else {
		planner = orchestrator.NewGeminiPlanner(genaiClient, config.Cfg.GeminiModel)
		agents = orchestrator.NewDefaultAgents(genaiClient, config.Cfg.GeminiModel)
	}
	queue := orchestrator.NewQueue(config.Cfg.AgentTimeout, agents...)
	orchestratorService := orchestrator.NewService(planner, queue, config.Cfg.MaxPlanAgents)

	metricsHandler := handlers.NewMetricsHandler(engine)
	assetHandler := handlers.NewAssetHandler(repo)
	chatHandler := handlers.NewChatHandler(orchestratorService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Yield Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(handlers.AuthMiddleware(authService))

			r.Get("/assets", assetHandler.HandleListAssets)
			r.Post("/assets", assetHandler.HandleUpsertAsset)
			r.Delete("/assets/{assetID}", assetHandler.HandleDeleteAsset)
			r.Post("/transactions", assetHandler.HandleAddTransaction)

			r.Post("/metrics/query", metricsHandler.HandleQueryMetrics)
			r.Post("/cards/query", metricsHandler.HandleQueryCards)

			r.Post("/chat/orchestrate", chatHandler.HandleOrchestrate)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
