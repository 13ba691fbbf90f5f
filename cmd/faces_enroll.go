package cmd

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"

	"github.com/kozaktomas/capture-kit/internal/facematch"
	"github.com/kozaktomas/capture-kit/internal/recognition"
	"github.com/kozaktomas/capture-kit/internal/recognition/dlib"
)

var facesEnrollCmd = &cobra.Command{
	Use:   "enroll <image>...",
	Short: "Identify faces in image files and enroll unknown ones",
	Long: `Detect faces in the given images (JPEG, PNG, GIF or BMP) and run each
face through the same identification as the webcam loop: known faces are
reported, unknown faces are stored under the next free ID.

Examples:
  capture-kit faces enroll photos/*.jpg
  capture-kit faces enroll --json team.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFacesEnroll,
}

func init() {
	facesCmd.AddCommand(facesEnrollCmd)

	facesEnrollCmd.Flags().Bool("json", false, "Output as JSON")
}

// EnrollFace is one face found in an image.
type EnrollFace struct {
	ID       int     `json:"id"`
	Label    string  `json:"label"`
	Known    bool    `json:"known"`
	Distance float64 `json:"distance,omitempty"`
	Box      [4]int  `json:"box"` // x, y, w, h
}

// EnrollResult is the outcome for one image.
type EnrollResult struct {
	Path  string       `json:"path"`
	Faces []EnrollFace `json:"faces"`
	Error string       `json:"error,omitempty"`
}

// EnrollOutput is the JSON shape of `faces enroll`.
type EnrollOutput struct {
	Images   int            `json:"images"`
	Faces    int            `json:"faces"`
	Known    int            `json:"known"`
	Enrolled int            `json:"enrolled"`
	Failed   int            `json:"failed"`
	Results  []EnrollResult `json:"results"`
}

func runFacesEnroll(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	model, err := recognition.ParseModel(cfg.Faces.Model)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	matcher, idx, err := newMatcher(cfg, store, logger)
	if err != nil {
		return err
	}
	defer saveIndex(cfg, idx, logger)
	identifier := facematch.NewIdentifier(matcher, store, logger.Named("identifier"))

	recognizer, err := dlib.New(cfg.Faces.ModelsDir, model)
	if err != nil {
		return err
	}
	defer recognizer.Close()

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(len(args),
			progressbar.OptionSetDescription("Identifying faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	out := EnrollOutput{Images: len(args), Results: make([]EnrollResult, 0, len(args))}
	for _, path := range args {
		result := enrollImage(path, recognizer, identifier, logger)
		if result.Error != "" {
			out.Failed++
		}
		for _, f := range result.Faces {
			out.Faces++
			if f.Known {
				out.Known++
			} else {
				out.Enrolled++
			}
		}
		out.Results = append(out.Results, result)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if jsonOutput {
		return outputJSON(out)
	}

	fmt.Println()
	for _, r := range out.Results {
		if r.Error != "" {
			fmt.Printf("%s: ERROR %s\n", r.Path, r.Error)
			continue
		}
		if len(r.Faces) == 0 {
			fmt.Printf("%s: no faces\n", r.Path)
			continue
		}
		for _, f := range r.Faces {
			status := "enrolled"
			if f.Known {
				status = fmt.Sprintf("known, distance %.4f", f.Distance)
			}
			fmt.Printf("%s: %s at x=%d, y=%d, w=%d, h=%d (%s)\n", r.Path, f.Label, f.Box[0], f.Box[1], f.Box[2], f.Box[3], status)
		}
	}
	fmt.Printf("\nImages: %d, faces: %d, known: %d, enrolled: %d, failed: %d\n",
		out.Images, out.Faces, out.Known, out.Enrolled, out.Failed)
	return nil
}

func enrollImage(path string, recognizer recognition.Recognizer, identifier *facematch.Identifier, logger *zap.Logger) EnrollResult {
	result := EnrollResult{Path: path, Faces: []EnrollFace{}}

	img, err := decodeImageFile(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	faces, err := recognizer.Recognize(img)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	for _, f := range faces {
		res, err := identifier.Identify(f.Descriptor)
		if err != nil {
			logger.Warn("failed to identify face", zap.String("path", path), zap.Error(err))
			result.Error = err.Error()
			continue
		}
		result.Faces = append(result.Faces, EnrollFace{
			ID:       res.ID,
			Label:    facematch.DisplayLabel(res),
			Known:    res.Known,
			Distance: res.Distance,
			Box:      [4]int{f.Rect.Min.X, f.Rect.Min.Y, f.Rect.Dx(), f.Rect.Dy()},
		})
	}
	return result
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // path is a command line argument
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}
