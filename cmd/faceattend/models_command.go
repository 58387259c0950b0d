package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/amirhossein5/faceattend/internal/config"
	"github.com/amirhossein5/faceattend/internal/modelfetch"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Manage model files",
	}
	modelsCmd.AddCommand(newModelsDownloadCommand(ctx))
	return modelsCmd
}

func newModelsDownloadCommand(ctx *commandContext) *cobra.Command {
	var dirFlag string
	var dlibDirFlag string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the detector and recognizer model files",
		Long: `Download the res10 SSD face detector into paths.models_dir and the dlib
models used for encoding into recognition.models_dir. Files already present
are kept. The dataset directory is created as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := cfg.Paths.ModelsDir
			if cmd.Flags().Changed("dir") {
				if dir, err = config.ExpandPath(dirFlag); err != nil {
					return err
				}
			}

			dlibDir := cfg.Recognition.ModelsDir
			if cmd.Flags().Changed("dlib-dir") {
				if dlibDir, err = config.ExpandPath(dlibDirFlag); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()

			if err := os.MkdirAll(cfg.Paths.DatasetDir, 0o755); err != nil {
				return fmt.Errorf("create dataset directory: %w", err)
			}
			fmt.Fprintf(out, "Dataset directory: %s\n", cfg.Paths.DatasetDir)

			fetcher := &modelfetch.Fetcher{Logger: ctx.log()}
			results, err := fetcher.FetchAll(cmd.Context(), []modelfetch.Bundle{
				{Dir: dir, Files: modelfetch.DetectorFiles},
				{Dir: dlibDir, Files: modelfetch.RecognizerFiles},
			})
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "downloaded"
				size := humanize.Bytes(uint64(r.Bytes))
				switch {
				case r.Skipped:
					status, size = "present", "-"
				case r.Err != nil:
					status, size = "failed", "-"
				}
				rows = append(rows, []string{r.File.Name, status, size})
			}
			fmt.Fprintln(out, renderTable([]string{"File", "Status", "Size"}, rows, "Size"))

			missing := modelfetch.Missing(results)
			if len(missing) == 0 {
				fmt.Fprintf(out, "Detector models ready in %s\n", dir)
				fmt.Fprintf(out, "Recognizer models ready in %s\n", dlibDir)
				return nil
			}
			fmt.Fprintln(out, "Download these files manually:")
			for _, m := range missing {
				fmt.Fprintf(out, "  %s -> %s\n    %s\n", m.File.Name, m.Path, strings.Join(m.File.URLs, "\n    "))
			}
			return fmt.Errorf("%d model files could not be downloaded", len(missing))
		},
	}

	cmd.Flags().StringVar(&dirFlag, "dir", "", "Detector destination (overrides paths.models_dir)")
	cmd.Flags().StringVar(&dlibDirFlag, "dlib-dir", "", "Recognizer destination (overrides recognition.models_dir)")
	return cmd
}
