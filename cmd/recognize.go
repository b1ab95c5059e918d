package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/embedder"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/identity"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize [image file]",
	Short: "Recognize a face and mark attendance",
	Long: `Recognize the face in an image against the enrolled identities and
mark today's attendance on a confident match.

Examples:
  # Recognize a captured frame
  face-attendance recognize frame.jpg

  # Use a stricter threshold than the configured one
  face-attendance recognize --threshold 0.6 frame.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Float64("threshold", 0, "Match threshold override (0 = use configuration)")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	threshold := mustGetFloat64(cmd, "threshold")
	if threshold == 0 {
		threshold = cfg.MatchThreshold()
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	registry := identity.NewRegistry(be.store)
	if err := registry.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load identities: %w", err)
	}

	embClient := embedder.NewClient(cfg.Embedder.URL, cfg.Embedder.Model)
	probe, err := embClient.DetectAndEmbed(ctx, data)
	if err != nil {
		return fmt.Errorf("embedding service failed: %w", err)
	}

	rec := recognizer.New(registry, facematch.NewLinearMatcher(), be.ledger, threshold)
	result, err := rec.Recognize(ctx, probe)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	switch result.Outcome {
	case recognizer.OutcomeNoFace:
		fmt.Println("No face detected")
	case recognizer.OutcomeNoMatch:
		fmt.Println("No matching identity")
	case recognizer.OutcomeMatched:
		fmt.Printf("Matched %s (%s), distance %.4f\n", result.Identity.Name, result.Identity.RegNo, result.Distance)
		fmt.Printf("Attendance: %s\n", result.Attendance)
	}
	return nil
}
