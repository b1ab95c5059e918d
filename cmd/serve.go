package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/embedder"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/identity"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
	"github.com/kozaktomas/face-attendance/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Face Attendance web server.
The server exposes registration, recognition, attendance listing and a
health check under /api/v1.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

// resolveServeHostPort resolves host and port from flags, falling back to the
// configuration.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) (string, int) {
	host := mustGetString(cmd, "host")
	port := mustGetInt(cmd, "port")

	if host == "" {
		host = cfg.Web.Host
	}
	if port == 0 {
		port = cfg.Web.Port
	}
	return host, port
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	registry := identity.NewRegistry(be.store)
	if err := registry.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load identities: %w", err)
	}
	fmt.Printf("Loaded %d enrolled identities\n", registry.Snapshot().Size())

	threshold := cfg.MatchThreshold()
	fmt.Printf("Match threshold: %.2f (model %s)\n", threshold, cfg.Embedder.Model)

	embClient := embedder.NewClient(cfg.Embedder.URL, cfg.Embedder.Model)
	rec := recognizer.New(registry, facematch.NewLinearMatcher(), be.ledger, threshold)

	host, port := resolveServeHostPort(cmd, cfg)
	server := web.NewServer(host, port, web.Deps{
		Embedder:   embClient,
		Registry:   registry,
		Recognizer: rec,
		Ledger:     be.ledger,
		Audit:      identity.NewAuditTrail(cfg.Storage.DataDir),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Println("Press Ctrl+C to stop")
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
