package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/cancaonovachor/nova-internal-tools/internal/app"
	"github.com/cancaonovachor/nova-internal-tools/internal/config"
	"github.com/cancaonovachor/nova-internal-tools/internal/logging"
)

func main() {
	var (
		configPath    = flag.String("config", "", "path to the YAML config file (falls back to CHORALNEWS_CONFIG)")
		once          = flag.Bool("once", false, "run a single pass and exit instead of scheduling")
		local         = flag.Bool("local", false, "preview notifications on stdout without posting or saving history (implies -once)")
		ignoreHistory = flag.Bool("ignore-history", false, "treat every candidate as new and skip history writes")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.New("error", "text").Error("configuration failed", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	application := app.New(cfg, app.Options{Local: *local, IgnoreHistory: *ignoreHistory}, logger)

	if *once || *local {
		application.RunOnce(ctx)
		application.Close(context.Background())
		return
	}

	err = application.RunScheduled(ctx)
	application.Close(context.Background())
	if err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
