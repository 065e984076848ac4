package browse

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/config"
	"github.com/nicolastakashi/banshee-console/internal/feed"
	"github.com/nicolastakashi/banshee-console/internal/format"
)

var logFile string

func RegisterFlags(fs *flag.FlagSet, configFile *string) {
	fs.StringVar(configFile, "config-file", "", "Path to the configuration file, it takes precedence over the command line flags.")
	fs.StringVar(&logFile, "log-file", "", "Write logs to this file while the browser owns the terminal (logs are discarded when empty).")

	config.RegisterUpstreamFlags(fs)
	config.RegisterBrowserFlags(fs)
	config.RegisterCacheFlags(fs)
}

// filterFromConfig returns the initial browser filter.
func filterFromConfig(cfg config.BrowserConfig) (feed.Filter, error) {
	mode, err := feed.ParseMode(cfg.Mode)
	if err != nil {
		return feed.Filter{}, err
	}
	f := feed.Filter{
		Project: cfg.Project,
		Pattern: cfg.Pattern,
		Limit:   cfg.Limit,
		Sort:    cfg.Sort,
		Mode:    mode,
	}
	if cfg.Past != "" {
		seconds := format.TimeSpanToSeconds(cfg.Past)
		if seconds <= 0 {
			return feed.Filter{}, fmt.Errorf("invalid past %q", cfg.Past)
		}
		f.Past = time.Duration(seconds) * time.Second
	}
	return f, nil
}

func Run() error {
	cfg := config.DefaultConfig

	filter, err := filterFromConfig(cfg.Browser)
	if err != nil {
		return fmt.Errorf("browser filter: %w", err)
	}

	restore, err := redirectLogs(logFile)
	if err != nil {
		return err
	}
	defer restore()

	reg := prometheus.NewRegistry()
	client, store, err := banshee.NewClientFromConfig(cfg, reg)
	if err != nil {
		return fmt.Errorf("create banshee client: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("error closing cache", "err", err)
		}
	}()

	redraw := make(chan struct{}, 1)
	chart := feed.NewChart(client, reg, feed.WithNotify(func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	}))
	browser := feed.NewBrowser(client, chart, filter,
		feed.WithRefresh(cfg.Browser.RefreshInterval),
		feed.WithDebounce(cfg.Browser.Debounce),
		feed.WithSize(cfg.Browser.Size),
	)

	graphiteURL, err := client.GraphiteURL(context.Background())
	if err != nil {
		slog.Warn("unable to retrieve graphite url", "err", err)
	}

	var g run.Group

	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return browser.Run(ctx)
		}, func(error) {
			cancel()
		})
	}

	{
		p := tea.NewProgram(newModel(browser, graphiteURL, redraw), tea.WithAltScreen())
		g.Add(func() error {
			_, err := p.Run()
			return err
		}, func(error) {
			p.Quit()
		})
	}

	{
		g.Add(run.SignalHandler(context.Background(), syscall.SIGTERM))
	}

	if err := g.Run(); err != nil {
		if !errors.As(err, &run.SignalError{}) {
			return err
		}
	}
	return nil
}

// redirectLogs keeps log lines off the terminal the browser draws on.
func redirectLogs(path string) (func(), error) {
	previous := slog.Default()
	var (
		w      io.Writer = io.Discard
		closer           = func() error { return nil }
	)
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f.Close
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})))
	return func() {
		slog.SetDefault(previous)
		_ = closer()
	}, nil
}
