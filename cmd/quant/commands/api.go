package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/insiderlab/quant/internal/api"
	"github.com/insiderlab/quant/internal/api/handlers"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Serve backtests and live signals over HTTP.

Endpoints:
  GET  /health
  POST /api/backtest
  POST /api/backtest/sweep
  GET  /api/signals

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --strategy config/strategy/insider_topn_v1.yaml`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	params, err := d.loadParams()
	if err != nil {
		return err
	}

	backtestHandler := handlers.NewBacktestHandler(d.newPipeline(params), d.cfg.Backtest, d.log)
	signalHandler := handlers.NewSignalHandler(d.newSignalService(params), d.cfg.Backtest.TopN, d.log)
	router := api.NewRouter(backtestHandler, signalHandler, d.log)
	server := api.New(d.cfg, d.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		d.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	fmt.Println("Server stopped")
	return nil
}
