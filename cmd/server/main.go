package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/waforge/gateway-go/internal/config"
	"github.com/waforge/gateway-go/internal/credentials"
	"github.com/waforge/gateway-go/internal/handler"
	"github.com/waforge/gateway-go/internal/media"
	"github.com/waforge/gateway-go/internal/middleware"
	"github.com/waforge/gateway-go/internal/ring"
	"github.com/waforge/gateway-go/internal/session"
	"github.com/waforge/gateway-go/internal/waclient"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	dialer, err := waclient.DefaultDialer()
	if err != nil {
		log.Fatal().Err(err).Msg("no session transport linked into this build")
	}

	credStore := credentials.NewStore(cfg.CredentialDir())
	mediaStore, err := media.NewStore(cfg.MediaDir(), cfg.MediaRetention())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open media store")
	}
	messages := ring.NewBuffer(cfg.MessageBufferSize)

	manager := session.NewManager(session.Config{
		UserDomain:     cfg.UserDomain,
		IgnoreGroups:   cfg.IgnoreGroups,
		RestartDelay:   cfg.ReconnectRestartDelay(),
		TransientDelay: cfg.ReconnectTransientDelay(),
		FailureDelay:   cfg.ReconnectFailureDelay(),
		LogoutTimeout:  config.LogoutTimeout,
	}, dialer, credStore, mediaStore, messages)
	manager.Start()

	sweepJob := media.NewSweepJob(mediaStore, cfg.MediaSweepInterval())
	sweepJob.Start()
	defer sweepJob.Stop()

	authMiddleware := middleware.NewAuthMiddleware(cfg.APIToken)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	gatewayHandler := handler.NewGatewayHandler(manager)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/", gatewayHandler.Routes())
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	manager.Stop()

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
