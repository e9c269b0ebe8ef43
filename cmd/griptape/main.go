// griptape runs embedding and prompt drivers against hosted model APIs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ashkaaar/griptape/internal/cli"
	"github.com/ashkaaar/griptape/internal/config"
	"github.com/ashkaaar/griptape/internal/log"
	"github.com/ashkaaar/griptape/internal/telemetry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Telemetry consent comes from config; a broken config is reported by
	// the command itself, so fall back to no telemetry here.
	optedIn := false
	if cfg, err := config.Load(); err == nil {
		optedIn = cfg.TelemetryEnabled
	}

	telemetryClient := telemetry.New(optedIn)
	defer telemetryClient.Close()
	defer func() { _ = log.Close() }()

	if err := cli.Execute(ctx, telemetryClient); err != nil {
		telemetryClient.Close()
		_ = log.Close()
		os.Exit(1)
	}
}
