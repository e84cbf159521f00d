package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-id/internal/config"
	"github.com/kozaktomas/face-id/internal/store"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect trained models",
}

var modelInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print statistics about the trained model",
	RunE:  runModelInfo,
}

var modelExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the configured model store to a gob file",
	Long: `Export loads the model from the configured store (PostgreSQL when
DATABASE_URL is set, the local model file otherwise) and writes it to
the given gob file.`,
	Args: cobra.ExactArgs(1),
	RunE: runModelExport,
}

var modelImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a gob model file into the configured model store",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelImport,
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelInfoCmd)
	modelCmd.AddCommand(modelExportCmd)
	modelCmd.AddCommand(modelImportCmd)

	modelInfoCmd.Flags().String("model", "", "Model file path (default from config)")
}

func runModelInfo(cmd *cobra.Command, args []string) error {
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

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Image size:\t%dx%d\n", model.Width, model.Height)
	fmt.Fprintf(w, "Eigenfaces:\t%d\n", model.K())
	fmt.Fprintf(w, "Training images:\t%d\n", len(model.Labels))
	fmt.Fprintf(w, "People:\t%d\n", len(model.People()))
	_ = w.Flush()

	fmt.Println("\nExplained variance:")
	total := model.TotalVariance()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  COMPONENT\tEIGENVALUE\tSHARE")
	cumulative := 0.0
	for i, value := range model.Eigenvalues {
		cumulative += value
		fmt.Fprintf(w, "  %d\t%.4g\t%.1f%%\n", i+1, value, 100*cumulative/total)
	}
	_ = w.Flush()

	fmt.Println("\nPeople:")
	for _, person := range model.People() {
		count := 0
		for _, label := range model.Labels {
			if label == person {
				count++
			}
		}
		fmt.Printf("  %s (%d images)\n", person, count)
	}
	return nil
}

func runModelExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx := context.Background()
	modelStore, cleanup, err := openStore(ctx, cfg, "")
	if err != nil {
		return err
	}
	defer cleanup()

	model, err := modelStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	if err := store.NewFileStore(args[0]).Save(ctx, model); err != nil {
		return fmt.Errorf("writing model file: %w", err)
	}
	fmt.Printf("Exported model to %s (%d eigenfaces, %d images)\n", args[0], model.K(), len(model.Labels))
	return nil
}

func runModelImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx := context.Background()
	model, err := store.NewFileStore(args[0]).Load(ctx)
	if err != nil {
		return fmt.Errorf("reading model file: %w", err)
	}

	modelStore, cleanup, err := openStore(ctx, cfg, "")
	if err != nil {
		return err
	}
	defer cleanup()

	if err := modelStore.Save(ctx, model); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	fmt.Printf("Imported model from %s (%d eigenfaces, %d images)\n", args[0], model.K(), len(model.Labels))
	return nil
}
