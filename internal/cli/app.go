package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kjstillabower/solawi/internal/auth"
	"github.com/kjstillabower/solawi/internal/cache"
	"github.com/kjstillabower/solawi/internal/config"
	"github.com/kjstillabower/solawi/internal/observability"
	"github.com/kjstillabower/solawi/internal/service"
	"github.com/kjstillabower/solawi/internal/store"
)

// app bundles the dependencies a command needs.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *store.Store
	cache     cache.Cache
	cachePing func() error
	svc       *service.Service

	closers []func() error
}

// newApp loads configuration, opens the database and builds the service. The schema is
// applied when migrate is true.
func newApp(ctx context.Context, opts *RootOptions, migrate bool) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger, err = observability.NewLogger()
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
	}

	a := &app{cfg: cfg, logger: logger}

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.closers = append(a.closers, st.Close)
	logger.Info("database connected", zap.Stringer("dialect", st.Dialect()))

	if migrate {
		if err := st.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	if err := a.buildCache(); err != nil {
		a.Close()
		return nil, err
	}

	tokens := auth.NewTokenIssuer(cfg.SecretKey, cfg.TokenTTL)
	a.svc = service.New(st, a.cache, tokens, service.WithPaymentStatusTTL(cfg.PaymentStatusTTL))
	return a, nil
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigDir != "" {
		return config.LoadDir(opts.ConfigDir)
	}
	return config.Load()
}

// buildCache selects the payment status cache backend. Remote backends expose a ping
// for the health check.
func (a *app) buildCache() error {
	switch a.cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(a.cfg.MemcachedAddrs, a.cfg.MemcachedTimeout, a.cfg.MemcachedMaxIdleConns)
		if err != nil {
			return fmt.Errorf("memcached cache: %w", err)
		}
		a.cache, a.cachePing = mc, mc.Ping
		a.closers = append(a.closers, mc.Close)
		a.logger.Info("cache backend: memcached", zap.String("addrs", a.cfg.MemcachedAddrs))
	case "redis":
		rc, err := cache.NewRedisCache(a.cfg.RedisURL, a.cfg.RedisTimeout)
		if err != nil {
			return fmt.Errorf("redis cache: %w", err)
		}
		a.cache, a.cachePing = rc, rc.Ping
		a.closers = append(a.closers, rc.Close)
		a.logger.Info("cache backend: redis")
	case "none":
		a.logger.Info("cache backend: none")
	default:
		a.cache = cache.NewInMemoryCache()
		a.logger.Info("cache backend: in_memory")
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
}
