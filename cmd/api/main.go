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

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/auth"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/config"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/db"
	internalhttp "github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/http"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/live"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/repo"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/service"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/votacao"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	repository := repo.New(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	sessions := auth.NewSessionStore(redisClient, cfg.JWTAccessTTL)
	authService := service.NewAuthService(repository, sessions, jwtManager)

	events := live.Fanout{live.NewRedisPublisher(redisClient, cfg.LiveChannelPrefix)}
	if webhook := live.NewWebhookNotifier(cfg.LiveWebhookURL); webhook != nil {
		events = append(events, webhook)
		log.Info().Str("url", cfg.LiveWebhookURL).Msg("webhook de votação habilitado")
	}

	store := votacao.NewPostgresStore(pool)
	stats := votacao.NewAggregator(store, redisClient, cfg.StatsCacheTTL)
	votacaoHandler := votacao.NewHandler(
		votacao.NewPautaService(store, stats, events),
		votacao.NewLedger(store, stats, events),
		stats,
	)

	handler := internalhttp.NewRouter(cfg, internalhttp.Dependencies{
		Auth:      authService,
		Directory: repository,
		Votacao:   votacaoHandler,
		Live:      live.NewStreamHandler(redisClient, cfg.LiveChannelPrefix),
		Checks: map[string]internalhttp.ReadinessCheck{
			"db":    pool.Ping,
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	// streams SSE ficam abertos; o shutdown espera no máximo o timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
