package admin

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/config"
	"github.com/nicolastakashi/banshee-console/internal/i18n"
)

var opts options

func RegisterFlags(fs *flag.FlagSet, configFile *string) {
	fs.StringVar(configFile, "config-file", "", "Path to the configuration file, it takes precedence over the command line flags.")
	fs.StringVar(&opts.kind, "kind", "", "Entity kind of an apply command: team, project, rule, user, webhook, project_user, project_webhook.")
	fs.StringVar(&opts.action, "action", "", "Action of an apply command: create, update, delete.")
	fs.IntVar(&opts.parentID, "parent", 0, "Parent id: the team of a new project, the project of a rule or membership.")
	fs.IntVar(&opts.id, "id", 0, "Id of the entity to update or delete; the user or webhook id for memberships.")
	fs.StringVar(&opts.payload, "payload", "", "JSON entity of an apply command, or @path to read it from a file.")
	fs.BoolVar(&opts.yes, "yes", false, "Confirm destructive commands without prompting.")
	fs.IntVar(&opts.past, "past", banshee.DefaultEventsPast, "Events window in seconds.")
	fs.IntVar(&opts.level, "level", 0, "Minimum events level (0-2).")

	config.RegisterUpstreamFlags(fs)
	config.RegisterCacheFlags(fs)
}

// Run executes one admin command:
//
//	list <teams|users|webhooks> [project]
//	list projects [team]
//	list <user-projects|webhook-projects> <id>
//	rules <project>
//	events <project>
//	apply -kind ... -action ... [-parent n] [-id n] [-payload json|@file]
//	import <project> <file>
//	info
func Run(args []string) error {
	cfg := config.DefaultConfig

	client, store, err := banshee.NewClientFromConfig(cfg, prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("create banshee client: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("error closing cache", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lang := cfg.Locale.Language
	if lang == "" {
		if lang, err = client.Language(ctx); err != nil {
			slog.Warn("unable to retrieve banshee language, using english", "err", err)
		}
	}

	c := &commander{
		client:  client,
		phrases: i18n.Lookup(lang),
		in:      os.Stdin,
		out:     os.Stdout,
		opts:    opts,
	}
	return c.run(ctx, args)
}
