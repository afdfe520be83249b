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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/fxledger/internal/adapter/http"
	"github.com/iho/fxledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/fxledger/internal/adapter/http/middleware"
	"github.com/iho/fxledger/internal/adapter/rateprovider"
	"github.com/iho/fxledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/fxledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/fxledger/internal/adapter/repository/redis"
	"github.com/iho/fxledger/internal/infrastructure/config"
	"github.com/iho/fxledger/internal/infrastructure/idgen"
	"github.com/iho/fxledger/internal/infrastructure/logger"
	"github.com/iho/fxledger/internal/infrastructure/metrics"
	"github.com/iho/fxledger/internal/infrastructure/postgres"
	"github.com/iho/fxledger/internal/infrastructure/redis"
	"github.com/iho/fxledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := newApp(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer app.close()

	app.start(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      app.router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageBackend).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// storage is the selected backend: the KV store, its change feed and the
// optional shared report cache.
type storage struct {
	kv       usecase.KVStore
	notifier usecase.ChangeNotifier
	cache    usecase.ReportCache
	pool     *pgxpool.Pool
	redis    *goredis.Client
}

func (s *storage) close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (*storage, error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.Info().Msg("connected to redis")

		kv := redisRepo.NewKVStore(client, m)
		return &storage{kv: kv, notifier: kv, cache: redisRepo.NewCache(client), redis: client}, nil

	case config.StoragePostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}

		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		kv := postgresRepo.NewKVRepository(pool, m)
		return &storage{kv: kv, notifier: kv, pool: pool}, nil

	default:
		kv := memory.NewKVStore()
		return &storage{kv: kv, notifier: kv}, nil
	}
}

type app struct {
	log       zerolog.Logger
	storage   *storage
	overrides *usecase.OverrideStore
	resolver  *usecase.RateResolver
	balance   *usecase.BalanceUseCase
	limiter   *apimiddleware.RateLimiter
	router    http.Handler
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	m := metrics.New(reg)

	store, err := openStorage(ctx, cfg, log, m)
	if err != nil {
		return nil, err
	}

	overrides := usecase.NewOverrideStore(usecase.OverrideStoreConfig{
		Store:   store.kv,
		Policy:  cfg.EditPolicy(),
		Logger:  log.With().Str("component", "overrides").Logger(),
		Metrics: m,
	})
	if err := overrides.Load(ctx); err != nil {
		store.close()
		return nil, err
	}

	resolver := usecase.NewRateResolver(usecase.RateResolverConfig{
		Overrides:    overrides,
		Provider:     rateprovider.NewHTTPProvider(cfg.RatesURL, nil),
		IDGenerator:  idgen.NewULIDGenerator(),
		FetchTimeout: cfg.RatesFetchTimeout,
		Logger:       log.With().Str("component", "rates").Logger(),
		Metrics:      m,
	})

	balanceUC := usecase.NewBalanceUseCase(usecase.BalanceUseCaseConfig{
		Store:    store.kv,
		Rates:    resolver,
		Cache:    store.cache,
		CacheTTL: cfg.ReportCacheTTL,
		MemoSize: cfg.ReportMemoSize,
		Logger:   log.With().Str("component", "balance").Logger(),
		Metrics:  m,
	})
	resolver.OnRefresh(balanceUC.Invalidate)

	limiter := apimiddleware.NewRateLimiter(1, 5)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:          log,
		BalanceHandler:  handler.NewBalanceHandler(balanceUC, resolver),
		RateHandler:     handler.NewRateHandler(resolver, overrides),
		OverrideHandler: handler.NewOverrideHandler(overrides),
		LedgerHandler:   handler.NewLedgerHandler(balanceUC, resolver),
		HealthHandler:   handler.NewHealthHandler(store.pool, store.redis),
		RateLimiter:     limiter,
		HTTPMetrics:     apimiddleware.NewHTTPMetrics(reg),
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	return &app{
		log:       log,
		storage:   store,
		overrides: overrides,
		resolver:  resolver,
		balance:   balanceUC,
		limiter:   limiter,
		router:    router,
	}, nil
}

// start launches the one-shot live rate fetch and the background watchers.
func (a *app) start(ctx context.Context) {
	a.resolver.StartRefresh(ctx)

	go func() {
		err := a.storage.notifier.Watch(ctx, func(key string) {
			a.dispatchChange(ctx, key)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error().Err(err).Msg("storage change feed stopped")
		}
	}()

	go a.limiter.RunCleanup(ctx, 10*time.Minute, time.Hour)
}

func (a *app) dispatchChange(ctx context.Context, key string) {
	a.log.Debug().Str("bucket", key).Msg("storage change")
	a.overrides.HandleChange(ctx, key)
	a.balance.HandleChange(ctx, key)
}

func (a *app) close() {
	a.storage.close()
}
