package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/amirhossein5/faceattend/internal/config"
	"github.com/amirhossein5/faceattend/internal/dataset"
	"github.com/amirhossein5/faceattend/internal/live"
)

func newCollectCommand(ctx *commandContext) *cobra.Command {
	var name string
	var output string
	var count int
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Capture face images of one person into the dataset",
		Long: `Capture face images of one person from the camera.

Press 's' to save the current frame and 'q' to quit. Images are written to
<dataset>/<name>/<name>_<n>.jpg and never overwrite earlier captures.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.log()
			out := cmd.OutOrStdout()
			in := bufio.NewReader(cmd.InOrStdin())

			datasetDir := cfg.Paths.DatasetDir
			if cmd.Flags().Changed("output") {
				if datasetDir, err = config.ExpandPath(output); err != nil {
					return err
				}
			}
			target := cfg.Collect.Count
			if cmd.Flags().Changed("count") {
				target = count
			}
			if target < 0 {
				return fmt.Errorf("--count must not be negative")
			}

			if strings.TrimSpace(name) == "" {
				fmt.Fprint(out, "Enter the name of the person: ")
				if name, err = readLine(in); err != nil {
					return fmt.Errorf("read name: %w", err)
				}
			}
			name = strings.TrimSpace(name)
			if err := dataset.ValidateName(name); err != nil {
				return err
			}

			personDir, err := dataset.EnsurePerson(datasetDir, name)
			if err != nil {
				return err
			}

			session, err := openLive(cmd.Context(), cfg, "Collect Faces", log)
			if err != nil {
				return err
			}

			collector := &live.Collector{
				Grabber:   session.Grabber,
				Display:   session.Display,
				PersonDir: personDir,
				Name:      name,
				Target:    target,
				Every:     every,
				Out:       out,
				Logger:    log,
			}
			saved, runErr := collector.Run(cmd.Context())
			if err := session.Close(); err != nil {
				log.Warn("failed to release camera", "error", err)
			}
			if runErr != nil {
				return runErr
			}

			if saved == 0 {
				fmt.Fprintln(out, "No images were captured.")
				return nil
			}
			fmt.Fprintf(out, "Saved %d images to %s\n", saved, personDir)

			if !isInteractive(cmd.InOrStdin()) {
				fmt.Fprintln(out, "Run 'faceattend encode' to update the face encodings.")
				return nil
			}
			fmt.Fprint(out, "Do you want to encode all faces now? (y/n): ")
			answer, err := readLine(in)
			if err != nil || !strings.EqualFold(strings.TrimSpace(answer), "y") {
				fmt.Fprintln(out, "Run 'faceattend encode' later to update the face encodings.")
				return nil
			}
			_, err = runEncode(cmd.Context(), cfg, datasetDir, cfg.Paths.EncodingsFile, out, log)
			return err
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the person (prompted when empty)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Dataset directory (overrides paths.dataset_dir)")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many images; 0 means unlimited (overrides collect.count)")
	cmd.Flags().DurationVar(&every, "every", 0, "Save a frame automatically at this interval")
	return cmd
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
