package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/five82/flowdecoder/internal/codec"
	"github.com/five82/flowdecoder/internal/config"
	"github.com/five82/flowdecoder/internal/editor"
	"github.com/five82/flowdecoder/internal/logging"
	"github.com/five82/flowdecoder/internal/prefs"
	"github.com/five82/flowdecoder/internal/session"
	redisstore "github.com/five82/flowdecoder/internal/session/redis"
	sqlitestore "github.com/five82/flowdecoder/internal/session/sqlite"
	"github.com/five82/flowdecoder/internal/toast"
	"github.com/five82/flowdecoder/internal/ui"
)

// Options configure the flowdecoder application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/flowdecoder/prefs.toml
	Backend    string // overrides the configured storage backend
	Lenient    bool   // accept raw characters that percent-encoding forbids
	Clipboard  editor.Clipboard
	// Logger replaces the file logger, mainly for tests.
	Logger *slog.Logger
}

// App holds the wired components for one process.
type App struct {
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *slog.Logger
	Editor    *editor.Editor

	cancel  context.CancelFunc
	closers []io.Closer
}

// Open loads configuration and connects every component. Close must be
// called to flush pending edits and release the backend.
func Open(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	switch opts.Backend {
	case "":
	case config.BackendSQLite, config.BackendRedis, config.BackendMemory:
		cfg.Storage.Backend = opts.Backend
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
	if opts.Lenient {
		cfg.Editor.Strict = false
	}

	a := &App{Config: cfg, PrefsPath: opts.PrefsPath}

	a.Logger = opts.Logger
	if a.Logger == nil {
		logger, closer, err := logging.Open(cfg.Log.Path, cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("open log: %w", err)
		}
		a.Logger = logger
		a.closers = append(a.closers, closer)
	}

	a.Prefs, _ = prefs.Load(opts.PrefsPath)

	bgCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	backend, err := a.openBackend(bgCtx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	store, err := session.NewManager(backend, session.Options{
		Debounce:      cfg.Editor.Debounce,
		StatusDisplay: cfg.Editor.StatusDisplay,
		Logger:        a.Logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	toastCfg := toast.DefaultConfig()
	toastCfg.Max = cfg.Toasts.Max
	toastCfg.ExitDelay = cfg.Toasts.ExitDelay
	toasts, err := toast.New(toastCfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init toasts: %w", err)
	}

	a.Editor, err = editor.New(store, toasts, editor.Options{
		Codec:     codec.Options{Indent: cfg.Editor.Indent, Lenient: !cfg.Editor.Strict},
		Clipboard: opts.Clipboard,
		Logger:    a.Logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Logger.Debug("app opened",
		"backend", cfg.Storage.Backend,
		"namespace", cfg.Storage.Namespace,
	)
	return a, nil
}

func (a *App) openBackend(ctx context.Context) (session.Backend, error) {
	st := a.Config.Storage
	switch st.Backend {
	case config.BackendMemory:
		return session.NewMemoryBackend(), nil

	case config.BackendRedis:
		store, err := redisstore.Connect(ctx, st.RedisURL, st.Namespace, st.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("open redis session store: %w", err)
		}
		a.closers = append(a.closers, store)
		return store, nil

	default:
		store, err := sqlitestore.New(st.Path, st.Namespace, st.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		a.closers = append(a.closers, store)
		StartPruner(ctx, store, st.SessionTTL, 0, a.Logger)
		return store, nil
	}
}

// Close flushes pending edits and releases resources in reverse order.
func (a *App) Close() error {
	var errs []error
	if a.Editor != nil {
		if err := a.Editor.Flush(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("flush session: %w", err))
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Run boots the flowdecoder TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) (err error) {
	a, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return ui.Run(ui.Options{
		Context:   ctx,
		Editor:    a.Editor,
		Prefs:     a.Prefs,
		PrefsPath: a.PrefsPath,
		Backend:   a.Config.Storage.Backend,
		Logger:    a.Logger,
	})
}
