package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quote-api/internal/captcha"
	"quote-api/internal/common/config"
	"quote-api/internal/common/database"
	"quote-api/internal/common/logger"
	"quote-api/internal/common/observability"
	"quote-api/internal/mailer"
	"quote-api/internal/ratelimit"
	"quote-api/internal/server"
)

func main() {
	zapLog := logger.New("info", "json")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger with the configured level/format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log = logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// Rate-limit store: Redis primary with an in-memory fallback. A Redis
	// outage at startup is not fatal, the fallback covers it.
	var primary ratelimit.Store
	if cfg.Redis.Address != "" {
		redisClient, err := database.NewRedis(cfg.Redis)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := redisClient.Ping(pingCtx); err != nil {
				log.Warn("redis unreachable, rate limiting degrades to in-memory", map[string]interface{}{
					"error": err.Error(),
				})
			}
			cancel()
			defer redisClient.Close()
			primary = ratelimit.NewRedisStore(redisClient.GetClient())
		}
	} else {
		log.Warn("no redis address configured, rate limiting is in-memory only", nil)
	}

	memStore := ratelimit.NewMemoryStore(time.Minute)
	defer memStore.Stop()

	store := ratelimit.NewFallbackStore(primary, memStore, log)
	limiter := ratelimit.NewLimiter(store, cfg.RateLimit.Window(), cfg.RateLimit.MaxRequests, log)

	verifier := captcha.NewVerifier(cfg.Captcha, log)
	if !verifier.Enabled() {
		log.Warn("captcha secret not configured, verification disabled", nil)
	}

	// Email backend. A missing API key leaves the dispatcher fail-closed for
	// the dispatch step only; the rest of the pipeline still runs.
	var m mailer.Mailer
	switch cfg.Email.Provider {
	case "ses":
		sesMailer, err := mailer.NewSESMailer(ctx, cfg.Email.AWSRegion)
		if err != nil {
			log.Error("ses mailer init failed", map[string]interface{}{"error": err.Error()})
		} else {
			m = sesMailer
		}
	default:
		httpMailer, err := mailer.NewHTTPMailer(cfg.Email)
		if err != nil {
			log.Error("email provider not configured", map[string]interface{}{"error": err.Error()})
		} else {
			m = httpMailer
		}
	}

	dispatcher := mailer.NewDispatcher(m, cfg.Email.FromEmail, cfg.Email.ContactEmail, log)
	handler := server.NewQuoteHandler(limiter, verifier, dispatcher, obs, log)
	router := server.NewRouter(cfg, handler, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("server listening", map[string]interface{}{
			"port":        cfg.Server.Port,
			"environment": cfg.App.Environment,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}
