package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/menu-catalog/internal/config"
	"github.com/iliyamo/menu-catalog/internal/database"
	"github.com/iliyamo/menu-catalog/internal/handler"
	"github.com/iliyamo/menu-catalog/internal/logger"
	"github.com/iliyamo/menu-catalog/internal/middleware"
	"github.com/iliyamo/menu-catalog/internal/observability"
	"github.com/iliyamo/menu-catalog/internal/queue"
	"github.com/iliyamo/menu-catalog/internal/repository"
	"github.com/iliyamo/menu-catalog/internal/repository/memstore"
	"github.com/iliyamo/menu-catalog/internal/router"
	"github.com/iliyamo/menu-catalog/internal/service"
)

// stores is the storage backend selected by STORE_DRIVER.
type stores struct {
	catalogs   service.CatalogStore
	companies  service.CompanyStore
	items      service.ItemStore
	essentials service.EssentialsStore
	users      handler.UserStore
	checks     map[string]handler.Check
	close      func() error
}

func openStores(cfg config.Config, log *logger.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on restart")
		st := memstore.New()
		return &stores{
			catalogs:   st.Catalogs(),
			companies:  st.Companies(),
			items:      st.Items(),
			essentials: st.Essentials(),
			users:      st.Users(),
			checks:     map[string]handler.Check{},
			close:      func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, err
	}
	if cfg.DBMigrate {
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("database migrated")
	}
	r := repository.Repositories(db)
	return &stores{
		catalogs:   r.Catalogs,
		companies:  r.Companies,
		items:      r.Items,
		essentials: r.Essentials,
		users:      r.Users,
		checks:     map[string]handler.Check{"mysql": db.PingContext},
		close:      db.Close,
	}, nil
}

func main() {
	// .env is a development convenience; production reads the real environment.
	if env := os.Getenv("APP_ENV"); env != "prod" && env != "production" {
		_ = godotenv.Load()
	}
	cfg := config.Load() // Load environment config

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracingCfg := config.LoadTracingConfig(cfg.Env)
	shutdownTracing, err := observability.InitTracing(ctx, tracingCfg, log)
	if err != nil {
		log.Fatal("init tracing", "error", err)
	}

	st, err := openStores(cfg, log)
	if err != nil {
		log.Fatal("open store", "driver", cfg.StoreDriver, "error", err)
	}
	defer func() { _ = st.close() }()

	// Redis is optional: without it the public routes run uncached and
	// unlimited.
	var rdb *redis.Client
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()
	if cacheCfg.Enabled || rateCfg.Enabled {
		if rdb, err = config.NewRedisClient(config.LoadRedisConfig()); err != nil {
			log.Warn("redis unavailable, cache and rate limit disabled", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
			st.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}

	opts := []service.Option{
		service.WithLogger(log.With("component", "catalog")),
		service.WithQRBasePath(cfg.QRCodeBasePath),
	}
	queueCfg := config.LoadQueueConfig()
	if queueCfg.Enabled {
		opts = append(opts, service.WithEvents(queue.NewPublisher(queueCfg, log)))
		if queueCfg.ConsumerEnabled && rdb != nil {
			go queue.StartCatalogConsumer(ctx, queueCfg, invalidateMenus(rdb, cacheCfg.Prefix, log), log)
		}
	}
	catalogs := service.NewCatalogService(st.catalogs, st.companies, st.items, st.essentials, opts...)
	client := service.NewClientService(st.catalogs, st.companies, st.items)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	if tracingCfg.Enabled {
		e.Use(observability.Middleware(tracingCfg.ServiceName))
	}

	router.RegisterRoutes(e, st.checks)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, st.users, log), cfg.JWTSecret)
	router.RegisterCatalogs(e, handler.NewCatalogHandler(catalogs, log), cfg.JWTSecret)
	router.RegisterClient(e, handler.NewClientHandler(client, log),
		middleware.NewTokenBucket(rateCfg, rdb, log),
		middleware.NewRedisCache(cacheCfg, rdb, log),
	)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown", "error", err)
	}
}

// invalidateMenus evicts the cached public responses of the changed
// catalog and of its company's menu.
func invalidateMenus(rdb *redis.Client, prefix string, log *logger.Logger) queue.Handler {
	return func(ctx context.Context, ev queue.CatalogChangedEvent) error {
		tags := []string{middleware.CacheTag("catalogId", strconv.FormatUint(ev.CatalogID, 10))}
		if ev.CompanyName != "" {
			tags = append(tags, middleware.CacheTag("companyName", ev.CompanyName))
		}
		n, err := middleware.InvalidateCacheTags(ctx, rdb, prefix, tags...)
		if err != nil {
			return err
		}
		log.Debug("menu cache invalidated", "catalog_id", ev.CatalogID, "action", ev.Action, "keys", n)
		return nil
	}
}
