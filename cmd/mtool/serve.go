package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Studio-Todos/mtool/internal/logger"
	"github.com/Studio-Todos/mtool/internal/web"

	"github.com/spf13/cobra"
)

var servePort int

// serveCmd starts the web interface server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start web interface server",
	Long: `Starts a web server with a graphical interface for mtool.
The web interface allows you to:
- Submit image and video compression jobs
- Monitor compression progress in real-time
- View statistics and results

Access the interface at http://localhost:<port> (default: 8080)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to run web server on")
	rootCmd.AddCommand(serveCmd)
}

// runServe starts the web server and handles graceful shutdown.
func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := setupLogger(cfg)
	logger.WithOperation(log, "serve").Infof("web interface listening on port %d", servePort)
	server := web.NewServer(cfg, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(servePort); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	if !quiet {
		fmt.Printf("mtool web interface started on http://localhost:%d\n", servePort)
		fmt.Println("Press Ctrl+C to stop the server")
	}

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed to start: %w", err)
	case <-sigChan:
	}

	if !quiet {
		fmt.Println("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
