package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amirhossein5/faceattend/internal/config"
	"github.com/amirhossein5/faceattend/internal/dataset"
	"github.com/amirhossein5/faceattend/internal/dbconnection"
	"github.com/amirhossein5/faceattend/internal/encodings"
	"github.com/amirhossein5/faceattend/internal/recognizer"
)

// openEncoder loads the descriptor models. Replaced in tests.
var openEncoder = func(cfg *config.Config) (recognizer.Encoder, func(), error) {
	enc, err := recognizer.NewDlib(cfg.Recognition.ModelsDir, cfg.Recognition.CNN)
	if err != nil {
		return nil, nil, err
	}
	return enc, enc.Close, nil
}

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var datasetFlag string
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode every dataset image into the encodings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			datasetDir := cfg.Paths.DatasetDir
			if cmd.Flags().Changed("dataset") {
				if datasetDir, err = config.ExpandPath(datasetFlag); err != nil {
					return err
				}
			}
			outPath := cfg.Paths.EncodingsFile
			if cmd.Flags().Changed("output") {
				if outPath, err = config.ExpandPath(outputFlag); err != nil {
					return err
				}
			}
			_, err = runEncode(cmd.Context(), cfg, datasetDir, outPath, cmd.OutOrStdout(), ctx.log())
			return err
		},
	}

	cmd.Flags().StringVarP(&datasetFlag, "dataset", "d", "", "Dataset directory (overrides paths.dataset_dir)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Encodings file (overrides paths.encodings_file)")
	return cmd
}

// runEncode rebuilds the encodings file from datasetDir and returns the
// number of descriptors written.
func runEncode(ctx context.Context, cfg *config.Config, datasetDir, outPath string, out io.Writer, log *slog.Logger) (int, error) {
	if _, err := os.Stat(datasetDir); os.IsNotExist(err) {
		if err := os.MkdirAll(datasetDir, 0o755); err != nil {
			return 0, fmt.Errorf("create dataset directory: %w", err)
		}
		fmt.Fprintf(out, "Created dataset directory %s. Run 'faceattend collect' to add people.\n", datasetDir)
		return 0, nil
	}

	people, err := dataset.People(datasetDir)
	if err != nil {
		return 0, err
	}
	if len(people) == 0 {
		fmt.Fprintf(out, "No people found in %s. Run 'faceattend collect' to add people.\n", datasetDir)
		return 0, nil
	}

	enc, release, err := openEncoder(cfg)
	if err != nil {
		return 0, err
	}
	defer release()

	set, records, err := encodings.EncodeDataset(ctx, datasetDir, enc, encodings.LoadJPEG, log)
	if err != nil {
		return 0, err
	}
	if err := encodings.Save(outPath, set); err != nil {
		return 0, err
	}

	syncEnrollment(ctx, cfg, records, log)

	fmt.Fprintf(out, "Encoded %d faces of %d people into %s\n", set.Len(), len(set.People()), outPath)
	return set.Len(), nil
}

// syncEnrollment mirrors encoding results into the database. The encodings
// file is authoritative, so failures are only logged.
func syncEnrollment(ctx context.Context, cfg *config.Config, records []encodings.Record, log *slog.Logger) {
	db, err := dbconnection.OpenSQLite(cfg.Paths.Database, log)
	if err != nil {
		log.Warn("failed to open database, enrollment not recorded", "error", err)
		return
	}
	defer dbconnection.Close(db)

	enrollment := make([]dbconnection.Enrollment, 0, len(records))
	for _, rec := range records {
		if rec.Err != nil {
			continue
		}
		enrollment = append(enrollment, dbconnection.Enrollment{Name: rec.Name, Path: rec.Path, Faces: rec.Faces})
	}
	if err := dbconnection.SyncEnrollment(ctx, db, enrollment); err != nil {
		log.Warn("failed to record enrollment", "error", err)
	}
}
