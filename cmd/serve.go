package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-id/internal/config"
	"github.com/kozaktomas/face-id/internal/gallery"
	"github.com/kozaktomas/face-id/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recognition web server",
	Long: `Start the Face ID web server.
The server exposes a JSON API for recognizing uploaded face images
against the trained model and for similarity search over the enrolled
training gallery.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("model", "", "Model file path (default from config)")
	serveCmd.Flags().Bool("no-index", false, "Skip building the in-memory similarity index")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx := context.Background()
	modelStore, cleanup, err := openStore(ctx, cfg, mustGetString(cmd, "model"))
	if err != nil {
		return err
	}
	defer cleanup()

	model, err := modelStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	fmt.Printf("Loaded model: %d eigenfaces, %d images, %d people\n",
		model.K(), len(model.Labels), len(model.People()))

	var index *gallery.Index
	if !mustGetBool(cmd, "no-index") {
		fmt.Printf("Building in-memory similarity index...\n")
		index, err = gallery.Build(model)
		if err != nil {
			return fmt.Errorf("building similarity index: %w", err)
		}
		fmt.Printf("Similarity index ready with %d entries\n", index.Size())
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(model, index, cfg.Recognition.Threshold, host, port)

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

	fmt.Printf("Starting Face ID API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
