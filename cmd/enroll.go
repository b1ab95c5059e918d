package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/embedder"
	"github.com/kozaktomas/face-attendance/internal/identity"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [image files...]",
	Short: "Enroll identities from face images",
	Long: `Enroll a student from one or more face images, or a whole dataset
directory at once. Each image is sent to the embedding service; images
without a detectable face are skipped. The remaining embeddings are
averaged into one profile per student.

In bulk mode every subdirectory of --dir enrolls one student. The
directory name carries the identity as <reg-no>_<name>, e.g.
"S-100_Alice_Novak".

Examples:
  # Enroll from a handful of captured frames
  face-attendance enroll --name "Alice Novak" --reg-no S-100 frame1.jpg frame2.jpg frame3.jpg

  # Enroll a whole dataset directory
  face-attendance enroll --dir ./dataset-import`,
	Args: cobra.ArbitraryArgs,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Student name (required without --dir)")
	enrollCmd.Flags().String("reg-no", "", "Registration number (required without --dir)")
	enrollCmd.Flags().String("dir", "", "Dataset directory with one <reg-no>_<name> subdirectory per student")
}

// imageExts are the file extensions picked up in bulk mode.
var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

func runEnroll(cmd *cobra.Command, args []string) error {
	name := mustGetString(cmd, "name")
	regNo := mustGetString(cmd, "reg-no")
	dir := mustGetString(cmd, "dir")

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

	embClient := embedder.NewClient(cfg.Embedder.URL, cfg.Embedder.Model)
	audit := identity.NewAuditTrail(cfg.Storage.DataDir)

	if dir != "" {
		return runEnrollBulk(ctx, registry, embClient, audit, dir)
	}

	if name == "" || regNo == "" {
		return errors.New("--name and --reg-no are required without --dir")
	}
	if len(args) == 0 {
		return errors.New("at least one image file is required")
	}

	return enrollOne(ctx, registry, embClient, audit, regNo, name, args)
}

// enrollOne embeds the given image files and enrolls a single identity.
func enrollOne(ctx context.Context, registry *identity.Registry, embClient *embedder.Client, audit *identity.AuditTrail, regNo, name string, paths []string) error {
	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription(fmt.Sprintf("Embedding %s", regNo)),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	var samples [][]float32
	var retained [][]byte
	skipped := 0

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		emb, err := embClient.DetectAndEmbed(ctx, data)
		if err != nil {
			return fmt.Errorf("embedding service failed for %s: %w", path, err)
		}
		if emb == nil {
			skipped++
			bar.Add(1)
			continue
		}

		samples = append(samples, emb)
		retained = append(retained, data)
		bar.Add(1)
	}
	fmt.Println()

	if skipped > 0 {
		fmt.Printf("Skipped %d image(s) without a detectable face\n", skipped)
	}

	if err := registry.Enroll(ctx, regNo, name, samples); err != nil {
		return fmt.Errorf("failed to enroll %s: %w", regNo, err)
	}
	audit.Save(regNo, retained)

	fmt.Printf("Enrolled %s (%s) from %d face sample(s)\n", name, regNo, len(samples))
	return nil
}

// runEnrollBulk enrolls one identity per subdirectory of root. The directory
// name encodes the identity as <reg-no>_<name>, underscores in the name part
// becoming spaces.
func runEnrollBulk(ctx context.Context, registry *identity.Registry, embClient *embedder.Client, audit *identity.AuditTrail, root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to read dataset directory: %w", err)
	}

	enrolled := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		regNo, name, ok := strings.Cut(e.Name(), "_")
		if !ok || regNo == "" || name == "" {
			fmt.Printf("Skipping %s: directory name must be <reg-no>_<name>\n", e.Name())
			continue
		}
		name = strings.ReplaceAll(name, "_", " ")

		paths, err := listImages(filepath.Join(root, e.Name()))
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Printf("Skipping %s: no images found\n", e.Name())
			continue
		}

		if err := enrollOne(ctx, registry, embClient, audit, regNo, name, paths); err != nil {
			return err
		}
		enrolled++
	}

	fmt.Printf("\nEnrolled %d identities, %d total in registry\n", enrolled, registry.Snapshot().Size())
	return nil
}

// listImages returns the image files directly inside dir, sorted by ReadDir.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
