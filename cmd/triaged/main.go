// Command triaged serves the customer-message triage API.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/iris-triage/internal/config"
	"github.com/tbourn/iris-triage/internal/conversation"
	"github.com/tbourn/iris-triage/internal/events"
	httpapi "github.com/tbourn/iris-triage/internal/http"
	"github.com/tbourn/iris-triage/internal/http/handlers"
	"github.com/tbourn/iris-triage/internal/observability"
	"github.com/tbourn/iris-triage/internal/redisstore"
	"github.com/tbourn/iris-triage/internal/repo"
	"github.com/tbourn/iris-triage/internal/response"
	"github.com/tbourn/iris-triage/internal/search"
	"github.com/tbourn/iris-triage/internal/services"
	"github.com/tbourn/iris-triage/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	log.Logger = sysutil.NewLogger(os.Stderr, cfg.LogPretty, cfg.OTEL.ServiceName)
	zerolog.DefaultContextLogger = &log.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("triaged exited")
	}
}

// backend is the storage behind the conversation store.
type backend interface {
	conversation.Backend
	services.MessageLister
	handlers.Pinger
}

// wiring holds what run builds from cfg and must release on exit.
type wiring struct {
	handlers *handlers.Handlers
	idem     httpapi.IdempotencyStore
	db       *gorm.DB
	closers  []func()
}

func (w *wiring) close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
}

func run(ctx context.Context, cfg config.Config) error {
	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion,
		observability.AttrStorageBackend.String(cfg.Storage.Backend),
		observability.AttrResponseMode.String(cfg.Triage.ResponseMode),
	)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(sctx)
	}()

	w, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer w.close()

	if w.db != nil {
		go sysutil.Every(ctx, time.Hour, func(ctx context.Context) {
			n, err := repo.DeleteExpiredIdempotency(ctx, w.db, time.Now().UTC())
			if err != nil {
				log.Warn().Err(err).Msg("idempotency cleanup failed")
				return
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("expired idempotency records removed")
			}
		})
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, w.handlers, w.idem, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", appVersion).Str("storage", cfg.Storage.Backend).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

// migrate is swapped in tests.
var migrate = repo.AutoMigrate

// build opens the storage backend and assembles the pipeline and handlers.
func build(ctx context.Context, cfg config.Config) (*wiring, error) {
	w := &wiring{}
	checks := map[string]handlers.Pinger{}

	var be backend
	var stats handlers.MessageStatsFunc
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := repo.OpenSQLite(cfg.Storage.DBPath, repo.SQLiteOptions{BusyTimeout: min(cfg.Storage.Timeout, 5*time.Second)})
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			w.closers = append(w.closers, func() { _ = sqlDB.Close() })
		}
		if err := migrate(db); err != nil {
			w.close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		w.db = db
		be = repo.NewBackend(db)
		w.idem = httpapi.SQLIdempotency{DB: db}
		stats = func(ctx context.Context, userID, sessionID string) (int64, *time.Time, error) {
			return repo.MessagesStats(ctx, db, userID, sessionID)
		}
	case config.BackendRedis:
		client, err := redisstore.NewClient(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB)
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, func() { _ = client.Close() })
		rb := redisstore.NewBackend(client, cfg.Triage.ContextRetention, redisstore.DefaultMaxMessages)
		be = rb
		w.idem = httpapi.RedisIdempotency{Backend: rb}
	default:
		log.Warn().Msg("memory storage: state is lost on restart and idempotent replay is disabled")
		be = conversation.NewMemoryBackend()
	}
	checks["storage"] = be

	store, err := conversation.NewStore(be, conversation.Config{
		MaxConversations:    cfg.Triage.MaxConversations,
		MaxProfiles:         cfg.Triage.ProfileCacheSize,
		ContextExpiry:       cfg.Triage.ContextExpiry,
		ContextRetention:    cfg.Triage.ContextRetention,
		MaxHistory:          cfg.Triage.MaxHistory,
		SentimentHistoryCap: cfg.Triage.SentimentHistoryCap,
		StorageTimeout:      cfg.Storage.Timeout,
	})
	if err != nil {
		w.close()
		return nil, fmt.Errorf("conversation store: %w", err)
	}

	sel, err := selector(cfg)
	if err != nil {
		w.close()
		return nil, err
	}

	p := services.NewPipeline(store, sel)
	p.IntentThreshold = cfg.Triage.IntentThreshold
	p.SentimentThreshold = cfg.Triage.SentimentThreshold
	p.MaxInputRunes = cfg.Triage.MaxInputRunes
	p.RequestTimeout = cfg.Triage.RequestTimeout

	if cfg.NATS.Enabled {
		nc, err := events.NewClient(ctx, cfg.NATS.URL)
		if err != nil {
			w.close()
			return nil, err
		}
		w.closers = append(w.closers, nc.Close)
		p.Publisher = events.NewPublisher(nc.JetStream())
		checks["nats"] = pingFunc(func(context.Context) error {
			if !nc.Healthy() {
				return errors.New("disconnected")
			}
			return nil
		})
	}

	w.handlers = handlers.New(handlers.Deps{
		Pipeline:       p,
		Detector:       p.Detector,
		Sessions:       services.NewSessionService(store, be),
		Idempotency:    w.idem,
		Stats:          stats,
		Checks:         checks,
		MaxInputRunes:  cfg.Triage.MaxInputRunes,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})
	return w, nil
}

// selector builds the reply selector, layering the FAQ index over the
// templates when KNOWLEDGE_PATH is set.
func selector(cfg config.Config) (response.Selector, error) {
	mode, err := response.ParseMode(cfg.Triage.ResponseMode)
	if err != nil {
		return nil, err
	}
	var src rand.Source
	if cfg.Triage.ResponseSeed != 0 {
		src = rand.NewPCG(cfg.Triage.ResponseSeed, cfg.Triage.ResponseSeed)
	}
	templates := response.NewTemplateSelector(mode, src)
	if cfg.Knowledge.Path == "" {
		return templates, nil
	}

	idx, err := search.NewIndexFromMarkdown(cfg.Knowledge.Path)
	if err != nil {
		return nil, fmt.Errorf("knowledge base %s: %w", cfg.Knowledge.Path, err)
	}
	log.Info().Str("path", cfg.Knowledge.Path).Int("entries", idx.Len()).Msg("knowledge base loaded")
	return &response.KnowledgeSelector{Index: idx, Threshold: cfg.Knowledge.Threshold, Fallback: templates}, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
