package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/scout/internal/config"
	"github.com/five82/scout/internal/logsource"
	"github.com/five82/scout/internal/prefs"
	"github.com/five82/scout/internal/state"
	"github.com/five82/scout/internal/ui"
)

// Options configure the scout application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses default ~/.config/scout/prefs.toml
	URL        string        // initial discover URL; empty reopens the last one
	Source     string        // JSON-lines file overriding source_file
	PollEvery  time.Duration // UI refresh interval; zero uses the UI default
	Debug      bool
}

// Run boots the scout TUI until the user quits or the context is
// cancelled. It returns the discover URL open at exit.
func Run(ctx context.Context, opts Options) (string, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	logger, logFile, err := openLog(cfg.LogPath(), opts.Debug)
	if err != nil {
		return "", err
	}
	defer func() { _ = logFile.Close() }()

	src, label, err := openSource(cfg, opts.Source, logger)
	if err != nil {
		return "", err
	}

	href := opts.URL
	if href == "" {
		href = userPrefs.LastURL
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	sess, err := newSession(ctx, sessionOptions{
		Config:  cfg,
		Fetcher: src,
		Store:   store,
		Href:    href,
		Logger:  logger,
	})
	if err != nil {
		return "", err
	}
	if err := sess.start(); err != nil {
		sess.close()
		return "", fmt.Errorf("start discover: %w", err)
	}
	logger.Info("scout started", "source", label, "href", store.Snapshot().Href)

	interval := ui.DefaultUIInterval
	if opts.PollEvery > 0 {
		interval = opts.PollEvery
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sess.run(gctx) })
	g.Go(func() error { return sess.refresh(gctx) })
	g.Go(func() error {
		defer cancel()
		return ui.Run(ui.Options{
			Context:   gctx,
			Store:     store,
			Machine:   sess.machine,
			Discover:  sess.container,
			History:   sess.hist,
			Views:     sess.views,
			Config:    &cfg,
			PollTick:  interval,
			Prefs:     userPrefs,
			PrefsPath: opts.PrefsPath,
			Source:    label,
		})
	})
	runErr := g.Wait()

	final := sess.close()
	saveLastURL(opts.PrefsPath, final, logger)
	logger.Info("scout stopped", "href", final)
	return final, runErr
}

// saveLastURL reloads prefs so settings changed in the UI are kept.
func saveLastURL(path, href string, logger *slog.Logger) {
	p, _ := prefs.Load(path)
	p.LastURL = href
	if err := prefs.Save(path, p); err != nil {
		logger.Warn("save prefs failed", "error", err)
	}
}

// Serve exposes the configured source over HTTP at addr until ctx ends, so
// other scout instances can read it through the log API.
func Serve(ctx context.Context, opts Options, addr string) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, logFile, err := openLog(cfg.LogPath(), opts.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	src, label, err := openSource(cfg, opts.Source, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           logsource.Handler(src, logger.With("component", "api")),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving log api", "addr", addr, "source", label)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve log api: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
