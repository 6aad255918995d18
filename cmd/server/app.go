package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"window_calculator/internal/cache"
	"window_calculator/internal/config"
	"window_calculator/internal/database"
	"window_calculator/internal/handlers"
	"window_calculator/internal/logger"
	"window_calculator/internal/metrics"
	"window_calculator/internal/middleware"
	"window_calculator/internal/preview"
	"window_calculator/internal/pricing"
	"window_calculator/internal/routes"
	"window_calculator/internal/services"
	"window_calculator/internal/store"
)

const (
	shutdownTimeout       = 10 * time.Second
	rateLimitIdle         = 10 * time.Minute
	memoryCalculationsMax = 10000
)

type app struct {
	router  *gin.Engine
	limiter *middleware.RateLimiter
	conns   *database.Connections
}

// buildApp assemble stores, services et handlers. Sans conns, tout reste en mémoire.
func buildApp(ctx context.Context, cfg *config.Config, log *logger.Logger, conns *database.Connections) (*app, error) {
	table := pricing.DefaultTable()
	if cfg.PricingFile != "" {
		t, err := pricing.LoadTable(cfg.PricingFile)
		if err != nil {
			return nil, fmt.Errorf("load pricing table: %w", err)
		}
		table = t
		log.Info("✅ Pricing table loaded", zap.String("file", cfg.PricingFile))
	}
	engine := pricing.NewEngine(table)

	if conns == nil {
		conns = &database.Connections{}
	}

	var calcs store.CalculationStore
	if conns.Database != nil {
		mongoStore := store.NewMongoCalculationStore(conns.Database.Collection(store.CalculationsCollection))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Warn("⚠️ Could not create calculation indexes", zap.Error(err))
		}
		calcs = mongoStore
	} else {
		calcs = store.NewMemoryCalculationStore(memoryCalculationsMax)
	}

	var carts cache.CartStore
	if conns.Redis != nil {
		carts = cache.NewRedisCartStore(conns.Redis)
		calcs = cache.NewCachedCalculationStore(calcs, conns.Redis, log)
	} else {
		carts = cache.NewMemoryCartStore()
	}

	m := metrics.New()
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log).WithRedis(conns.Redis)
	bridge := services.NewCalculationBridge(engine, calcs, log, m)

	router := routes.NewRouter(routes.Dependencies{
		Log:          log,
		Metrics:      m,
		Sessions:     middleware.NewCookieStore(cfg.SessionSecret, cfg.IsProduction()),
		RateLimiter:  limiter,
		CORSOrigins:  cfg.CORSOrigins,
		PublicDir:    cfg.PublicDir,
		Calculations: handlers.NewCalculationHandler(bridge, log),
		Cart:         handlers.NewCartHandler(services.NewCartService(carts, calcs, log), log),
		Pricing:      handlers.NewPricingHandler(engine, log),
		Preview:      handlers.NewPreviewHandler(engine, preview.NewSigner(cfg.SessionSecret+":preview", cfg.BaseURL), log),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"mongodb": conns.PingMongo,
			"redis":   conns.PingRedis,
		}),
	})
	routes.LogRouteStatus(router, log)

	return &app{router: router, limiter: limiter, conns: conns}, nil
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(cfg.IsProduction(), cfg.LogDir)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	conns := database.Connect(ctx, cfg.MongoURI, cfg.RedisHost, cfg.RedisPassword, log)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := conns.Close(closeCtx); err != nil {
			log.Warn("⚠️ Error while closing stores", zap.Error(err))
		}
	}()

	a, err := buildApp(ctx, cfg, log, conns)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("🚀 Window calculator listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				a.limiter.Cleanup(rateLimitIdle)
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("🛑 Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func printRoutes(w io.Writer, cfg *config.Config) error {
	a, err := buildApp(context.Background(), cfg, logger.Nop(), nil)
	if err != nil {
		return err
	}
	for _, line := range routes.Describe(a.router) {
		fmt.Fprintln(w, line)
	}
	return nil
}
