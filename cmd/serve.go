package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pastemark/internal/live"
	"github.com/ziadkadry99/pastemark/internal/paste"
	"github.com/ziadkadry99/pastemark/internal/server"
	"github.com/ziadkadry99/pastemark/internal/site"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the paste server",
	Long:  `Starts the HTTP server with the paste REST API, the show pages and the live highlight websocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}

		database, store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		pages, err := site.New(store, newRenderer(cfg), cfg.RenderCacheSize)
		if err != nil {
			return fmt.Errorf("creating site: %w", err)
		}

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: cfg.AllowAllOrigins,
		}, database)

		paste.RegisterRoutes(srv.Timed(), store, pages.Forget)
		pages.RegisterRoutes(srv.Timed())
		live.New(pages).RegisterRoutes(srv.Router())

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if every := cfg.ReapEvery(); every > 0 {
			go store.RunReaper(ctx, every, pages.Forget)
		}

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "pastemark server %s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())
		fmt.Fprintf(os.Stderr, "  Style: %s\n", cfg.Style)
		fmt.Fprintf(os.Stderr, "  Reap interval: %s\n", cfg.ReapInterval)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
