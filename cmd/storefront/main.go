package main

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"CacaoStore/internal/cart"
	"CacaoStore/internal/catalog"
	"CacaoStore/internal/config"
	"CacaoStore/internal/session"
	"CacaoStore/internal/storefront"
	"CacaoStore/pkg/kit"
)

const sweepEvery = 5 * time.Minute

func main() {
	service := "storefront"

	cfg, err := config.Load(".env")
	if err != nil {
		boot := kit.NewLogger(service, os.Getenv("APP_ENV"), "info")
		boot.Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.AppEnv, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := kit.WithSignals(context.Background())
	defer stop()

	c, err := loadCatalog(ctx, cfg, log)
	if err != nil {
		log.Fatal("load catalog failed", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)

	var sessions cart.Sessions
	if cfg.RedisAddr != "" {
		rs := cart.NewRedisSessions(cfg.RedisAddr, cfg.SessionTTL)
		defer func() { _ = rs.Close() }()
		if err := rs.Ping(ctx); err != nil {
			log.Fatal("redis ping failed", zap.Error(err), zap.String("addr", cfg.RedisAddr))
		}
		sessions = rs
		log.Info("cart sessions in redis", zap.String("addr", cfg.RedisAddr))
	} else {
		ms := cart.NewMemSessions(cfg.SessionTTL)
		g.Go(func() error { return ms.RunSweeper(gctx, sweepEvery, log) })
		sessions = ms
		log.Info("cart sessions in memory", zap.Duration("ttl", cfg.SessionTTL))
	}

	reg := prometheus.NewRegistry()
	h, err := storefront.NewHandler(storefront.Deps{
		Catalog:       c,
		Sessions:      sessions,
		Tokens:        session.NewTokenMaker(cfg.SessionSecret, cfg.SessionTTL),
		CheckoutDelay: cfg.CheckoutDelay,
		SecureCookie:  cfg.AppEnv != config.EnvDev,
		TrustProxy:    cfg.TrustProxy,
	}, storefront.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   cfg.MetricsToken,
	})
	if err != nil {
		log.Fatal("init storefront handler failed", zap.Error(err))
	}

	g.Go(func() error { return kit.RunHTTPServer(gctx, cfg.Addr(), h, log) })

	if err := g.Wait(); err != nil {
		log.Fatal("storefront stopped", zap.Error(err))
	}
}

func loadCatalog(ctx context.Context, cfg config.Config, log *zap.Logger) (*catalog.Catalog, error) {
	if cfg.DatabaseURL == "" {
		log.Info("catalog from builtin products")
		return catalog.Load(ctx, catalog.BuiltinSource{})
	}

	db, err := catalog.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	c, err := catalog.Load(ctx, catalog.NewPostgresSource(db))
	if err != nil {
		return nil, err
	}
	log.Info("catalog from postgres", zap.Int("products", c.Len()))
	return c, nil
}
