package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/tradelog/backend/src/config"
	"github.com/username/tradelog/backend/src/database"
	"github.com/username/tradelog/backend/src/handlers"
	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/services"
	"github.com/username/tradelog/backend/src/store"
	"golang.org/x/time/rate"
)

var limiter *rate.Limiter

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
	allowedOrigins := map[string]bool{}
	for _, origin := range config.Cfg.CORSAllowedOrigins {
		allowedOrigins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-API-Key")
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

	logger.L.Info("Trade Logger backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath, config.Cfg.MigrationsPath)

	limiter = rate.NewLimiter(rate.Every(config.Cfg.RateLimitInterval), config.Cfg.RateLimitBurst)
	summaryCache := cache.New(config.Cfg.SummaryCacheTTL, 2*config.Cfg.SummaryCacheTTL)

	tradeStore := store.NewSQLiteStore(database.DB)
	tradeService := services.NewTradeService(tradeStore, summaryCache)

	tradeHandler := handlers.NewTradeHandler(tradeService)
	healthHandler := handlers.NewHealthHandler(tradeService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": handlers.ServiceName,
			"version": handlers.ServiceVersion,
			"health":  "/health",
		})
	})
	r.Get("/health", healthHandler.HandleHealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Use(handlers.APIKeyMiddleware(config.Cfg.APIKey))

		r.Post("/trades", tradeHandler.HandleCreateTrade)
		r.Get("/trades", tradeHandler.HandleGetTrades)
		r.Get("/trades/check", tradeHandler.HandleCheckTrade)
		r.Get("/stats/summary", tradeHandler.HandleGetSummary)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
