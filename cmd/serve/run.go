package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"syscall"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	"github.com/nicolastakashi/banshee-console/api/routes"
	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/config"
	"github.com/nicolastakashi/banshee-console/internal/tracing"
)

func RegisterFlags(fs *flag.FlagSet, configFile *string) {
	fs.StringVar(configFile, "config-file", "", "Path to the configuration file, it takes precedence over the command line flags.")

	config.RegisterServerFlags(fs)
	config.RegisterUpstreamFlags(fs)
	config.RegisterCacheFlags(fs)
	config.RegisterMemoryLimitFlags(fs)
}

func Run() error {
	cfg := config.DefaultConfig

	upstreamURL, err := url.Parse(cfg.Upstream.URL)
	if err != nil {
		slog.Error("unable to parse upstream", "err", err)
		return fmt.Errorf("parse upstream: %w", err)
	}

	if upstreamURL.Scheme != "http" && upstreamURL.Scheme != "https" {
		slog.Error(fmt.Sprintf("invalid scheme for upstream URL %q, only 'http' and 'https' are supported", cfg.Upstream.URL))
		return fmt.Errorf("invalid upstream scheme: %s", upstreamURL.Scheme)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if cfg.IsTracingEnabled() {
		tp, err := tracing.WithTracing(context.Background(), slog.Default(), cfg)
		if err != nil {
			slog.Error("unable to set up tracing", "err", err)
			return fmt.Errorf("set up tracing: %w", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				slog.Error("error shutting down tracer provider", "err", err)
			}
		}()
	}

	client, store, err := banshee.NewClientFromConfig(cfg, reg)
	if err != nil {
		slog.Error("unable to create banshee client", "err", err)
		return fmt.Errorf("create banshee client: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("error closing cache", "err", err)
		}
	}()

	var g run.Group

	{
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		routesHandler, err := routes.NewRoutes(
			routes.WithProxy(upstreamURL),
			routes.WithClient(client, reg),
			routes.WithLanguage(cfg.Locale.Language),
			routes.WithHandlers(reg, cfg.IsTracingEnabled()),
			routes.WithConfig(cfg),
		)
		if err != nil {
			slog.Error("unable to create routes", "err", err)
			return fmt.Errorf("create routes: %w", err)
		}

		mux := http.NewServeMux()
		mux.Handle("/", routesHandler)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			mux.ServeHTTP(w, r)
		})

		corsHandler := cors.New(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   cfg.CORS.AllowedMethods,
			AllowedHeaders:   append(cfg.CORS.AllowedHeaders, routes.ConfirmHeader),
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		}).Handler(handler)

		l, err := net.Listen("tcp", cfg.Server.InsecureListenAddress)
		if err != nil {
			slog.Error("failed to listen on address", "err", err)
			return fmt.Errorf("listen: %w", err)
		}

		srv := &http.Server{
			Handler: corsHandler,
		}

		g.Add(func() error {
			slog.Info("listening insecurely", "addr", l.Addr(), "upstream", upstreamURL.String())
			if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
				slog.Error("server stopped", "err", err)
				return err
			}
			return nil
		}, func(error) {
			slog.Info("stopping HTTP Server")
			cancel()
			if err := srv.Shutdown(ctx); err != nil {
				slog.Error("error shutting down server", "err", err)
			}
		})
	}

	{
		g.Add(run.SignalHandler(context.Background(), syscall.SIGINT, syscall.SIGTERM))
	}

	if err := g.Run(); err != nil {
		if !errors.As(err, &run.SignalError{}) {
			return err
		}
	}
	return nil
}
