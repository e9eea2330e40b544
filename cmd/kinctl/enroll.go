package main

import (
	"fmt"
	"image"
	"io"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/kinface/internal/camera"
	"github.com/saturnino-fabrica-de-software/kinface/internal/enrollment"
	"github.com/saturnino-fabrica-de-software/kinface/internal/recognition"
)

var (
	enrollName     string
	enrollRelation string
	enrollFrames   string
	enrollLimit    int
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a person from a directory of still frames",
	Long: `Feeds every JPEG, PNG or BMP in --frames, in name order, through a
fresh capture session. The session stops at the capture limit; if the frames
run out first, whatever was captured is stored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := camera.ListFrames(enrollFrames)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no image files in %s", enrollFrames)
		}

		frames := make([]image.Image, 0, len(paths))
		for _, p := range paths {
			frame, err := camera.ReadFrame(p)
			if err != nil {
				app.logger.Warn("skipping frame", "path", p, "error", err)
				continue
			}
			frames = append(frames, frame)
		}

		bar := progressbar.NewOptions(len(frames),
			progressbar.OptionSetDescription("Capturing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("frames"),
			progressbar.OptionShowElapsedTimeOnFinish(),
		)

		accepted := 0
		identity, err := app.batch(enrollLimit).Enroll(cmd.Context(), enrollName, enrollRelation, frames, func(p enrollment.Progress) {
			accepted = p.Accepted
			_ = bar.Add(1)
		})
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %s (%s) as identity %d from %d of %d frames\n",
			identity.Name, identity.Relation, identity.ID, accepted, len(frames))
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <image>...",
	Short: "Match the first face of each image against the gallery",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "FILE\tFACES\tNAME\tRELATION\tSCORE")

		for _, path := range args {
			frame, err := camera.ReadFrame(path)
			if err != nil {
				return err
			}

			rec, err := app.recognizer.MatchFrame(cmd.Context(), frame)
			if err != nil {
				return err
			}
			printMatch(w, path, rec)
		}
		return w.Flush()
	},
}

func init() {
	enrollCmd.Flags().StringVar(&enrollName, "name", "", "Person's name (required)")
	enrollCmd.Flags().StringVar(&enrollRelation, "relation", "", "Relation to the household (required)")
	enrollCmd.Flags().StringVar(&enrollFrames, "frames", "", "Directory of frames (required)")
	enrollCmd.Flags().IntVar(&enrollLimit, "limit", 0, "Capture limit (default CAPTURE_LIMIT)")
	_ = enrollCmd.MarkFlagRequired("name")
	_ = enrollCmd.MarkFlagRequired("relation")
	_ = enrollCmd.MarkFlagRequired("frames")

	rootCmd.AddCommand(enrollCmd, matchCmd)
}

func printMatch(w io.Writer, path string, rec recognition.Recognition) {
	if !rec.Detected {
		fmt.Fprintf(w, "%s\t0\t-\t-\t-\n", path)
		return
	}

	relation := rec.Result.Relation
	if relation == "" {
		relation = "-"
	}
	fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%.2f\n", path, rec.Faces, rec.Result.Name, relation, rec.Result.Score)
}
