package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/spanner"
	httpadapter "github.com/wuyiadepoju/paywall/internal/app/adapters/http"
	"github.com/wuyiadepoju/paywall/internal/app/content/usecases/reveal_article"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/adapters"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/repo"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/usecases/check_entitlement"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/usecases/create_checkout"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/usecases/sync_payment_event"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	closers    []func() error
}

// persistence is the store and processed-event log selected by configuration
type persistence struct {
	store   contracts.SubscriptionStore
	events  contracts.ProcessedEventLog
	closers []func() error
}

func NewRuntime(ctx context.Context, configPath, envFile string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath, envFile)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	p, err := openPersistence(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.StripeWebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET is not set; webhook deliveries will be rejected")
	}

	processor := adapters.NewStripeClient(cfg.StripeSecretKey, cfg.RequestTimeout, logger)
	clock := domain.RealClock{}

	gate := check_entitlement.NewInteractor(p.store, logger)
	syncer := sync_payment_event.NewInteractor(
		p.store,
		processor,
		adapters.NewStripeEventDecoder(),
		p.events,
		clock,
		sync_payment_event.Config{
			WebhookSecret:  cfg.StripeWebhookSecret,
			Prices:         cfg.Prices,
			RequestTimeout: cfg.RequestTimeout,
		},
		logger,
	)

	handler := httpadapter.NewHandler(
		syncer,
		create_checkout.NewInteractor(processor, cfg.SiteURL, logger),
		gate,
		reveal_article.NewInteractor(gate, logger),
		logger,
	)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Runtime{cfg: cfg, logger: logger, httpServer: httpServer, closers: p.closers}, nil
}

// openPersistence connects the configured store. The event log follows the
// store unless REDIS_URL selects Redis.
func openPersistence(ctx context.Context, cfg Config, logger *slog.Logger) (*persistence, error) {
	p := &persistence{}

	switch cfg.StoreDriver {
	case StoreSpanner:
		client, err := spanner.NewClient(ctx, cfg.SpannerDatabasePath())
		if err != nil {
			return nil, fmt.Errorf("connect spanner: %w", err)
		}
		p.store = repo.NewSpannerStore(client)
		p.events = repo.NewSpannerEventLog(client)
		p.closers = append(p.closers, func() error { client.Close(); return nil })
	case StoreMySQL:
		db, err := repo.OpenMySQL(cfg.MySQLDSN, logger)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("mysql handle: %w", err)
		}
		p.store = repo.NewGormStore(db)
		p.events = repo.NewGormEventLog(db)
		p.closers = append(p.closers, sqlDB.Close)
	default:
		logger.Warn("using in-memory subscription store; state is lost on restart")
		p.store = repo.NewMemoryStore()
		p.events = repo.NewMemoryEventLog()
	}

	if cfg.RedisURL != "" {
		client, err := repo.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			p.close()
			return nil, err
		}
		p.events = repo.NewRedisEventLog(client, cfg.EventDedupTTL)
		p.closers = append(p.closers, client.Close)
	}

	logger.Info("persistence ready", "store", cfg.StoreDriver, "event_log", fmt.Sprintf("%T", p.events))
	return p, nil
}

func (p *persistence) close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		_ = p.closers[i]()
	}
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server listening", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), r.cfg.ShutdownTimeout)
	defer cancel()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown failed", "error", err)
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("close resource failed", "error", err)
		}
	}
	return runErr
}
