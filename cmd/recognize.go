package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-id/internal/config"
	"github.com/kozaktomas/face-id/internal/dataset"
	"github.com/kozaktomas/face-id/internal/eigenface"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Recognize a face image against a trained model",
	Long: `Recognize projects an image into the trained face space and reports the
nearest enrolled person. Faces farther than the rejection threshold from
every training image are reported as unknown.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("model", "", "Model file path (default from config)")
	recognizeCmd.Flags().Float64("threshold", 0, "Rejection threshold for unknown faces (default from config)")
	recognizeCmd.Flags().Bool("json", false, "Output the result as JSON")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cmd.Flags().Changed("threshold") {
		cfg.Recognition.Threshold = mustGetFloat64(cmd, "threshold")
	}

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

	img, err := dataset.LoadImage(args[0], model.Width, model.Height)
	if err != nil {
		return fmt.Errorf("loading image: %w", err)
	}

	result, err := eigenface.Recognize(model, img, cfg.Recognition.Threshold)
	if err != nil {
		return fmt.Errorf("recognizing face: %w", err)
	}

	if mustGetBool(cmd, "json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	printRecognizeResult(result, cfg.Recognition.Threshold)
	return nil
}

func printRecognizeResult(result *eigenface.Result, threshold float64) {
	if result.Known {
		fmt.Printf("Recognized: %s (distance %.2f, threshold %.2f)\n", result.Label, result.Distance, threshold)
	} else {
		fmt.Printf("Unknown face (distance %.2f exceeds threshold %.2f)\n", result.Distance, threshold)
	}

	if len(result.Matches) == 0 {
		return
	}
	fmt.Println("\nClosest matches:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  RANK\tPERSON\tDISTANCE")
	for i, match := range result.Matches {
		fmt.Fprintf(w, "  %d\t%s\t%.2f\n", i+1, match.Label, match.Distance)
	}
	_ = w.Flush()
}
