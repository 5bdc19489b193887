package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	defer Logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := LoadConfig("")
	if err != nil {
		Logger.Errorf("failed to load config: %v", err)
		return 1
	}
	system, err := NewSystem(config, os.Stdout)
	if err != nil {
		Logger.Errorf("failed to create system: %v", err)
		return 1
	}

	if config.Mode == ModeCheck {
		if err := system.CheckConnection(ctx); err != nil {
			Logger.Errorf("connection check failed: %v", err)
			return 1
		}
		Logger.Infof("connection check passed")
		return 0
	}

	outcome, err := system.Run(ctx)
	if err != nil {
		Logger.Errorf("benchmark failed: %v", err)
		return 1
	}
	if skipped := outcome.Report.Skipped(); len(skipped) > 0 {
		for _, comparison := range skipped {
			Logger.Errorf("query %q skipped: %v", comparison.Name, comparison.Reason)
		}
		return 1
	}
	Logger.Infof("benchmark %v finished", outcome.Run)
	return 0
}
