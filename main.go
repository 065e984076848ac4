package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/KimMachineGun/automemlimit/memlimit"

	"github.com/nicolastakashi/banshee-console/cmd/admin"
	"github.com/nicolastakashi/banshee-console/cmd/browse"
	"github.com/nicolastakashi/banshee-console/cmd/serve"
	"github.com/nicolastakashi/banshee-console/internal/config"
)

const usage = `usage: banshee-console <command> [flags]

commands:
  serve   run the console HTTP server in front of the banshee API
  browse  browse metric feeds in the terminal
  admin   manage teams, projects, rules, users and webhooks
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var (
		configFile string
		runFn      func(args []string) error
	)

	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	switch os.Args[1] {
	case "serve":
		serve.RegisterFlags(fs, &configFile)
		runFn = func([]string) error { return serve.Run() }
	case "browse":
		browse.RegisterFlags(fs, &configFile)
		runFn = func([]string) error { return browse.Run() }
	case "admin":
		admin.RegisterFlags(fs, &configFile)
		runFn = admin.Run
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		slog.Error("unable to parse flags", "err", err)
		os.Exit(1)
	}

	if configFile != "" {
		if err := config.LoadConfig(configFile); err != nil {
			slog.Error("unable to load config file", "err", err, "file", configFile)
			os.Exit(1)
		}
	}

	if err := config.DefaultConfig.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if ratio := config.DefaultConfig.Memory.LimitRatio; ratio > 0 {
		if _, err := memlimit.SetGoMemLimitWithOpts(
			memlimit.WithRatio(ratio),
			memlimit.WithProvider(
				memlimit.ApplyFallback(memlimit.FromCgroup, memlimit.FromSystem),
			),
			memlimit.WithLogger(slog.Default()),
		); err != nil {
			slog.Warn("unable to set memory limit", "err", err)
		}
	}

	if err := runFn(fs.Args()); err != nil {
		slog.Error("command failed", "command", os.Args[1], "err", err)
		os.Exit(1)
	}
}
