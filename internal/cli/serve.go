package cli

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

	"github.com/lazypower/vigor/internal/engine"
	"github.com/lazypower/vigor/internal/server"
	"github.com/lazypower/vigor/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the evaluation engine and HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	a.tracker.OnChange(func() { a.engine.Notify(engine.SourceActivity) })

	if cfg.Telemetry.Provider == "file" {
		err := telemetry.Watch(ctx, cfg.Telemetry.Dir, func(sig telemetry.Signal) {
			a.engine.Notify(engine.Source(sig))
		})
		if err != nil {
			return fmt.Errorf("watch telemetry: %w", err)
		}
		fmt.Fprintf(os.Stderr, "  telemetry: watching %s\n", cfg.Telemetry.Dir)
	} else {
		fmt.Fprintf(os.Stderr, "  telemetry: %s\n", cfg.Telemetry.Provider)
	}
	if cfg.Redis.Enabled() {
		fmt.Fprintf(os.Stderr, "  feed: redis stream %s\n", cfg.Redis.Stream)
	}

	engineDone := make(chan error, 1)
	go func() { engineDone <- a.engine.Run(ctx) }()

	srv := server.New(a.db, a.engine, a.events, a.tracker, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "vigor serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", a.db.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	case err := <-serveErr:
		stop()
		<-engineDone
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	<-engineDone
	return err
}
