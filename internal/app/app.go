package app

import (
	"context"
	"fmt"
	"os"

	redisclient "github.com/examtree/examtree-backend/internal/clients/redis"
	"github.com/examtree/examtree-backend/internal/data/tree"
	"github.com/examtree/examtree-backend/internal/db"
	httpserver "github.com/examtree/examtree-backend/internal/http"
	httpMW "github.com/examtree/examtree-backend/internal/http/middleware"
	"github.com/examtree/examtree-backend/internal/platform/cache"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Server   *httpserver.Server
	Services Services
	bus      redisclient.InvalidationBus
	cancel   context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig()

	var store tree.Store
	var details tree.DetailStore
	pg, err := db.NewPostgresService(log)
	if err != nil {
		// The service still comes up on the in-memory store so local
		// runs and demos work without a database.
		log.Warn("Postgres unavailable, using in-memory store", "error", err)
		mem := tree.NewMemoryStore()
		store, details = mem, mem
	} else {
		if err := db.AutoMigrateAll(pg.DB()); err != nil {
			log.Sync()
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
		gs := tree.NewGormStore(pg.DB(), log)
		store, details = gs, gs
	}

	readCache := cache.New(cfg.CacheCapacity, cfg.CacheTTL)

	var bus redisclient.InvalidationBus
	if os.Getenv("REDIS_ADDR") != "" {
		bus, err = redisclient.NewInvalidationBus(log)
		if err != nil {
			log.Warn("Redis unavailable, cache invalidation stays local", "error", err)
			bus = nil
		}
	}

	serviceset := wireServices(log, store, details, readCache, bus)
	handlerset := wireHandlers(log, serviceset)

	ctx, cancel := context.WithCancel(context.Background())
	if bus != nil {
		if err := bus.StartForwarder(ctx, serviceset.Invalidator.DropPrefix); err != nil {
			log.Warn("Invalidation forwarder failed to start", "error", err)
		}
	}

	server := httpserver.NewServer(httpserver.RouterConfig{
		Log:               log,
		NodeHandler:       handlerset.Node,
		NavigationHandler: handlerset.Navigation,
		TreeHandler:       handlerset.Tree,
		HealthHandler:     handlerset.Health,
		RoleGate:          httpMW.NewRoleGate(log, cfg.JWTSecretKey),
		AllowedOrigins:    cfg.AllowedOrigins,
	})

	return &App{
		Log:      log,
		Cfg:      cfg,
		Server:   server,
		Services: serviceset,
		bus:      bus,
		cancel:   cancel,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.bus != nil {
		_ = a.bus.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
