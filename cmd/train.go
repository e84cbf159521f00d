package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-id/internal/config"
	"github.com/kozaktomas/face-id/internal/dataset"
	"github.com/kozaktomas/face-id/internal/eigenface"
)

var trainCmd = &cobra.Command{
	Use:   "train <dataset-dir>",
	Short: "Train an eigenface model from a directory of labeled faces",
	Long: `Train builds an eigenface model from a dataset directory. The directory
must contain one subdirectory per person, named after the person, with
their face images inside. Images are resized to the configured training
size before vectorization.

The model is written to the gob file given by --output, or to PostgreSQL
when DATABASE_URL is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().Int("eigenfaces", 0, "Target number of eigenfaces (default from config)")
	trainCmd.Flags().Int("width", 0, "Training image width in pixels (default from config)")
	trainCmd.Flags().Int("height", 0, "Training image height in pixels (default from config)")
	trainCmd.Flags().Float64("tolerance", 0, "Power iteration convergence tolerance (default from config)")
	trainCmd.Flags().Int("max-iterations", 0, "Power iteration budget per eigenpair (default from config)")
	trainCmd.Flags().Int64("seed", 0, "Random seed for reproducible training (default from config)")
	trainCmd.Flags().String("output", "", "Model file path (default from config)")
}

// phaseDescriptions maps builder progress phases to progress bar labels.
var phaseDescriptions = map[string]string{
	"vectorizing": "Vectorizing images",
	"decomposing": "Extracting eigenfaces",
	"projecting":  "Projecting training set",
}

// newTrainProgressBar creates a bar in the same shape the other commands use.
func newTrainProgressBar(count int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(count,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyTrainFlags(cmd, cfg)

	fmt.Printf("Loading dataset from %s...\n", args[0])
	set, err := dataset.Load(args[0], cfg.Training.ImageWidth, cfg.Training.ImageHeight)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	builder := eigenface.NewBuilder(
		eigenface.Vectorizer{Width: cfg.Training.ImageWidth, Height: cfg.Training.ImageHeight},
		eigenface.NewSolver(cfg.Solver.Tolerance, cfg.Solver.MaxIterations, cfg.Solver.Seed),
	)

	var bar *progressbar.ProgressBar
	var barPhase string
	builder.OnProgress = func(info eigenface.ProgressInfo) {
		if info.Phase != barPhase {
			if bar != nil {
				_ = bar.Finish()
				fmt.Println()
			}
			bar = newTrainProgressBar(info.Total, phaseDescriptions[info.Phase])
			barPhase = info.Phase
		}
		_ = bar.Set(info.Current)
	}

	model, err := builder.Train(set, cfg.Training.Eigenfaces)
	if err != nil {
		return fmt.Errorf("training model: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	ctx := context.Background()
	modelStore, cleanup, err := openStore(ctx, cfg, mustGetString(cmd, "output"))
	if err != nil {
		return err
	}
	defer cleanup()

	if err := modelStore.Save(ctx, model); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}

	printTrainSummary(model, cfg)
	return nil
}

// applyTrainFlags overrides config values with flags the user actually set.
func applyTrainFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("eigenfaces") {
		cfg.Training.Eigenfaces = mustGetInt(cmd, "eigenfaces")
	}
	if cmd.Flags().Changed("width") {
		cfg.Training.ImageWidth = mustGetInt(cmd, "width")
	}
	if cmd.Flags().Changed("height") {
		cfg.Training.ImageHeight = mustGetInt(cmd, "height")
	}
	if cmd.Flags().Changed("tolerance") {
		cfg.Solver.Tolerance = mustGetFloat64(cmd, "tolerance")
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.Solver.MaxIterations = mustGetInt(cmd, "max-iterations")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Solver.Seed = mustGetInt64(cmd, "seed")
	}
}

func printTrainSummary(model *eigenface.Model, cfg *config.Config) {
	fmt.Println("Training complete")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Images:\t%d\n", len(model.Labels))
	fmt.Fprintf(w, "  People:\t%d\n", len(model.People()))
	fmt.Fprintf(w, "  Eigenfaces:\t%d (requested %d)\n", model.K(), cfg.Training.Eigenfaces)
	fmt.Fprintf(w, "  Image size:\t%dx%d\n", model.Width, model.Height)
	_ = w.Flush()
}
