package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/readmehub/internal/auth"
	"github.com/MrSnakeDoc/readmehub/internal/config"
	"github.com/MrSnakeDoc/readmehub/internal/docstore"
	"github.com/MrSnakeDoc/readmehub/internal/httpserver"
	"github.com/MrSnakeDoc/readmehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readmehub/internal/index"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
	"github.com/MrSnakeDoc/readmehub/internal/optimizer"
	"github.com/MrSnakeDoc/readmehub/internal/redis"
	"github.com/MrSnakeDoc/readmehub/internal/scheduler"
	"github.com/MrSnakeDoc/readmehub/internal/sources/siteprofile"
	redisstore "github.com/MrSnakeDoc/readmehub/internal/store/redis"
	"github.com/MrSnakeDoc/readmehub/internal/syncer"
	"github.com/MrSnakeDoc/readmehub/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	reloader    *scheduler.DocumentReloader
	listener    *scheduler.InvalidationListener
	warmer      *scheduler.CacheWarmer
}

// BuildStore creates the configured document store backend.
func BuildStore(cfg *config.Config, log logger.Logger) (docstore.Store, error) {
	switch cfg.DocstoreBackend {
	case config.BackendMemory:
		log.Warn("using the in-memory document store, nothing will be persisted")
		return docstore.NewMemoryStore(nil), nil
	case config.BackendGitHub:
		if cfg.GitHubToken == "" {
			log.Warn("GITHUB_TOKEN is not set, the document is read-only")
		}
		return docstore.NewGitHubStore(docstore.GitHubOptions{
			BaseURL: cfg.GitHubAPIURL,
			Owner:   cfg.GitHubOwner,
			Repo:    cfg.GitHubRepo,
			Path:    cfg.GitHubPath,
			Branch:  cfg.GitHubBranch,
			Token:   cfg.GitHubToken,
			Timeout: cfg.GitHubTimeout,
		}, log.With(logger.String("component", "github")))
	default:
		return nil, fmt.Errorf("unknown document store backend %q", cfg.DocstoreBackend)
	}
}

// BuildSynchronizer wires the store and site profile into a Synchronizer.
func BuildSynchronizer(cfg *config.Config, log logger.Logger) (*syncer.Synchronizer, siteprofile.Profile, error) {
	profile, err := siteprofile.NewLoader(cfg.SiteProfileFile).Load()
	if err != nil {
		return nil, siteprofile.Profile{}, err
	}
	store, err := BuildStore(cfg, log)
	if err != nil {
		return nil, siteprofile.Profile{}, err
	}
	return syncer.New(store, nil, profile.AuthorValue(), log), profile, nil
}

// BuildRewriter creates the configured optimizer backend.
func BuildRewriter(cfg *config.Config) (optimizer.Rewriter, error) {
	switch cfg.Optimizer {
	case config.OptimizerAnthropic:
		return optimizer.NewAnthropicRewriter(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	case config.OptimizerLorem:
		return optimizer.NewLoremRewriter(), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", cfg.Optimizer)
	}
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	synchronizer, profile, err := BuildSynchronizer(cfg, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to set up document store: %w", err)
	}
	loggerClient.Info("document store ready",
		logger.String("backend", synchronizer.StoreName()),
		logger.String("author", profile.Author.Name))

	memIndex := index.NewDocumentIndex()
	synchronizer.Subscribe(memIndex)

	// Redis is optional: without it each instance only sees its own writes
	// until the next periodic reload.
	var (
		redisClient *goredis.Client
		store       *redisstore.Store
		revoker     auth.Revoker
		cache       scheduler.DocumentCache
		pinger      deps.Pinger
	)
	if cfg.RedisAddr != "" {
		redisClient, err = redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("continuing without redis", logger.Error(err))
		}
	} else {
		loggerClient.Info("READMEHUB_REDIS_ADDR not set, running single instance")
	}

	var (
		listener *scheduler.InvalidationListener
		warmer   *scheduler.CacheWarmer
	)
	reloadTrigger := make(chan struct{}, 1)

	if redisClient != nil {
		store = redisstore.NewStore(redisClient, uuid.NewString(), cfg.CacheTTL, loggerClient)
		synchronizer.Subscribe(store)
		revoker, cache, pinger = store, store, store
		warmer = scheduler.NewCacheWarmer(store, memIndex, loggerClient)
	} else {
		revoker = auth.NewMemoryRevoker()
	}

	reloader := scheduler.NewDocumentReloader(synchronizer, cache, memIndex, loggerClient, cfg.ReloadInterval, reloadTrigger)
	if store != nil {
		listener = scheduler.NewInvalidationListener(store, memIndex, reloader, loggerClient, 0)
	}

	sessions, err := auth.NewManager(
		auth.Credentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword},
		cfg.SessionSecret, cfg.SessionTTL, revoker)
	if err != nil {
		return nil, fmt.Errorf("failed to set up sessions: %w", err)
	}

	rewriter, err := BuildRewriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up optimizer: %w", err)
	}
	opt := optimizer.NewService(rewriter, profile.OptimizerDefaults(), loggerClient)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Sync:           synchronizer,
		Index:          memIndex,
		Sessions:       sessions,
		Optimizer:      opt,
		Redis:          pinger,
		ReloadTrigger:  reloadTrigger,
		SecureCookies:  cfg.SecureCookies,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg.ListenPort, d),
		redisClient: redisClient,
		reloader:    reloader,
		listener:    listener,
		warmer:      warmer,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting readmehub %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("readmehub %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A warm index keeps serving the cached document if the store is down at start.
	if a.warmer != nil {
		if err := a.warmer.Warm(ctx); err != nil {
			a.logger.Warn("failed to warm index from redis", logger.Error(err))
		}
	}

	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start document reloader: %w", err)
	}
	a.logger.Info("document reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	if a.listener != nil {
		a.listener.Start(ctx)
		a.logger.Info("listening for invalidations from other instances")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	if a.listener != nil {
		a.listener.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ readmehub stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
