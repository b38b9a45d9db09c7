package app

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"stencil/internal/cache"
	mcpserver "stencil/internal/mcp"
	"stencil/internal/secret"
	"stencil/internal/service"
	"stencil/internal/storage"
)

// logEmitter logs service events; there is no GUI to push them to.
type logEmitter struct{}

func (logEmitter) Emit(_ context.Context, event string, data any) {
	log.Debug("event", "name", event, "data", data)
}

// Config is the environment-derived service configuration.
type Config struct {
	DataDir   string // STENCIL_DATA_DIR, default ~/.local/share/stencil
	OrgID     string // STENCIL_ORG_ID, default "default"
	RedisAddr string // STENCIL_REDIS_ADDR; file cache when empty
	RedisPass string // STENCIL_REDIS_PASSWORD
	RedisDB   int    // STENCIL_REDIS_DB
}

// ConfigFromEnv reads the configuration from the environment.
func ConfigFromEnv() Config {
	cfg := Config{
		DataDir:   os.Getenv("STENCIL_DATA_DIR"),
		OrgID:     os.Getenv("STENCIL_ORG_ID"),
		RedisAddr: os.Getenv("STENCIL_REDIS_ADDR"),
		RedisPass: os.Getenv("STENCIL_REDIS_PASSWORD"),
	}
	if cfg.DataDir == "" {
		homeDir, _ := os.UserHomeDir()
		cfg.DataDir = filepath.Join(homeDir, ".local", "share", "stencil")
	}
	if cfg.OrgID == "" {
		cfg.OrgID = "default"
	}
	if db := os.Getenv("STENCIL_REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.RedisDB = n
		}
	}
	return cfg
}

// App wires storage, services, and the MCP server together.
type App struct {
	cfg Config

	db         *storage.DB
	draftCache cache.Cache
	templates  *service.TemplateService
	sessions   *service.SessionService
	sends      *service.SendService
	mcpSrv     *mcpserver.Server
}

// New builds the full service stack from the configuration.
func New(ctx context.Context, cfg Config) (*App, error) {
	db, err := storage.New(filepath.Join(cfg.DataDir, "stencil.db"))
	if err != nil {
		return nil, err
	}

	draftCache := buildCache(cfg)

	secrets, err := secret.NewFileStore(filepath.Join(cfg.DataDir, "secrets.json"))
	if err != nil {
		db.Close()
		return nil, err
	}

	templateStore := storage.NewTemplateStore(db)
	draftStore := storage.NewDraftStore(db)
	recipientStore := storage.NewRecipientListStore(db)
	sendJobStore := storage.NewSendJobStore(db)
	connStore := storage.NewDBConnectionStore(db)

	wireSourceAdapters(recipientStore, connStore, secrets)

	emitter := logEmitter{}
	templates := service.NewTemplateService(templateStore, draftStore, draftCache, emitter)
	sessions := service.NewSessionService(templates, emitter)

	sender := newOutboxSender(filepath.Join(cfg.DataDir, "outbox"))
	sends := service.NewSendService(sendJobStore, templates, sender, emitter)

	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter:     emitter,
		Templates:   templates,
		Sessions:    sessions,
		Sends:       sends,
		Connections: connStore,
		Secrets:     secrets,
		OrgID:       cfg.OrgID,
	})

	return &App{
		cfg:        cfg,
		db:         db,
		draftCache: draftCache,
		templates:  templates,
		sessions:   sessions,
		sends:      sends,
		mcpSrv:     mcpSrv,
	}, nil
}

// buildCache picks the draft cache backend: Redis when configured, a file
// cache otherwise, and a null cache if both fail. Drafts survive in
// storage either way. The cache is scoped per organization.
func buildCache(cfg Config) cache.Cache {
	var backend cache.Cache
	if cfg.RedisAddr != "" {
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			log.Warn("redis unavailable, falling back to file cache", "addr", cfg.RedisAddr, "err", err)
		} else {
			backend = c
		}
	}
	if backend == nil {
		c, err := cache.NewFileCache(filepath.Join(cfg.DataDir, "cache"))
		if err != nil {
			log.Warn("file cache unavailable, drafts will not be cached", "err", err)
			backend = cache.NewNullCache()
		} else {
			backend = c
		}
	}
	return cache.NewScopedCache(backend, "org:"+cfg.OrgID+":")
}

// Run serves MCP over stdio until the context is cancelled or stdin
// closes, then shuts the stack down in order.
func Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := ConfigFromEnv()
	a, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	// Arm cron/file-watch triggers for enabled jobs.
	a.sends.RestartWatchers(ctx)

	log.Info("stencil serving", "dataDir", cfg.DataDir, "org", cfg.OrgID)
	return a.mcpSrv.ServeStdio()
}

// Close flushes sessions and stops background work.
func (a *App) Close(ctx context.Context) {
	a.sessions.CloseAll(ctx)
	a.sends.Stop()

	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a.sends.WaitRunning(waitCtx)

	if err := a.draftCache.Close(); err != nil {
		log.Debug("cache close", "err", err)
	}
	if err := a.db.Close(); err != nil {
		log.Debug("db close", "err", err)
	}
}
