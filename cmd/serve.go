package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/randsearch/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr       string
	serveResultsDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the experiment HTTP server",
	Long: `Starts the HTTP job server. Experiments are submitted as JSON to
/api/v1/jobs and report progress over polling or SSE; finished jobs
write CSV artifacts under the results directory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveResultsDir, "results-dir", "./results", "Directory for finished-job CSV artifacts (empty = in-memory results only)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	s := server.NewServer(serveAddr, serveResultsDir)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}
