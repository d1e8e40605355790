package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/base-14/examples/go/parking-lot/internal/config"
	"github.com/base-14/examples/go/parking-lot/internal/logging"
	"github.com/base-14/examples/go/parking-lot/internal/parking"
	"github.com/base-14/examples/go/parking-lot/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryProvider, err := parking.NewTelemetryProvider(ctx, parking.TelemetryConfig{
		ServiceName:     cfg.OTelServiceName,
		ServiceVersion:  cfg.OTelServiceVersion,
		Environment:     cfg.Environment,
		Endpoint:        cfg.OTelEndpoint,
		MetricsInterval: cfg.MetricsInterval,
		Disabled:        cfg.OTelDisabled,
	})
	if err != nil {
		return errors.Wrap(err, "initialize telemetry")
	}
	defer shutdownTelemetry(cfg, telemetryProvider)

	// Shell output owns stdout in cli mode.
	logOutput := io.Writer(os.Stdout)
	if cfg.Mode != config.ModeServer {
		logOutput = os.Stderr
	}
	logging.InitWithWriter(logOutput, cfg.OTelServiceName, cfg.Environment, cfg.LogLevel)

	parkingLot, err := parking.NewInstrumentedParkingLot(telemetryProvider)
	if err != nil {
		return errors.Wrap(err, "create parking lot")
	}

	switch cfg.Mode {
	case config.ModeCLI:
		return runCLI(ctx, cfg, telemetryProvider, parkingLot)
	case config.ModeServer:
		return runServer(ctx, cfg, parkingLot)
	default:
		return runBoth(ctx, cfg, telemetryProvider, parkingLot)
	}
}

func runCLI(ctx context.Context, cfg *config.Config, telemetryProvider *parking.TelemetryProvider, parkingLot *parking.InstrumentedParkingLot) error {
	input := io.Reader(os.Stdin)
	if cfg.InputFile != "" {
		f, err := os.Open(cfg.InputFile)
		if err != nil {
			return errors.Wrap(err, "open input file")
		}
		defer f.Close()
		input = f
	}

	shell := parking.NewShell(parkingLot, telemetryProvider, input, os.Stdout)
	if err := shell.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServer(ctx context.Context, cfg *config.Config, parkingLot *parking.InstrumentedParkingLot) error {
	srv := server.NewServer(cfg.Port, cfg.OTelServiceName, parkingLot)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	select {
	case err := <-serverDone:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	case <-ctx.Done():
		logging.Logger().Info("received shutdown signal")
	}

	return shutdownServer(cfg, srv)
}

// runBoth serves HTTP and runs the shell against the same lot until either
// stops or a signal arrives.
func runBoth(ctx context.Context, cfg *config.Config, telemetryProvider *parking.TelemetryProvider, parkingLot *parking.InstrumentedParkingLot) error {
	srv := server.NewServer(cfg.Port, cfg.OTelServiceName, parkingLot)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	cliDone := make(chan error, 1)
	go func() {
		cliDone <- runCLI(ctx, cfg, telemetryProvider, parkingLot)
	}()

	select {
	case err := <-serverDone:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	case err := <-cliDone:
		logging.Logger().Info("CLI exited")
		if err != nil {
			logging.Logger().Error("CLI error", "error", err)
		}
	case <-ctx.Done():
		logging.Logger().Info("received shutdown signal")
	}

	return shutdownServer(cfg, srv)
}

func shutdownServer(cfg *config.Config, srv *server.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server shutdown")
	}
	return nil
}

func shutdownTelemetry(cfg *config.Config, telemetryProvider *parking.TelemetryProvider) {
	logging.Logger().Info("shutting down telemetry")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()

	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		logging.Logger().Error("error shutting down telemetry", "error", err)
	}
}
