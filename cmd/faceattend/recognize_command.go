package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/amirhossein5/faceattend/internal/attendance"
	"github.com/amirhossein5/faceattend/internal/config"
	"github.com/amirhossein5/faceattend/internal/dbconnection"
	"github.com/amirhossein5/faceattend/internal/encodings"
	"github.com/amirhossein5/faceattend/internal/live"
	"github.com/amirhossein5/faceattend/internal/recognizer"
)

func newRecognizeCommand(ctx *commandContext) *cobra.Command {
	var encodingsFlag string
	var tolerance float64

	cmd := &cobra.Command{
		Use:   "recognize",
		Short: "Recognize faces from the camera and log attendance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.log()
			out := cmd.OutOrStdout()

			encPath := cfg.Paths.EncodingsFile
			if cmd.Flags().Changed("encodings") {
				if encPath, err = config.ExpandPath(encodingsFlag); err != nil {
					return err
				}
			}
			tol := cfg.Recognition.Tolerance
			if cmd.Flags().Changed("tolerance") {
				if err := config.ValidateTolerance(tolerance); err != nil {
					return fmt.Errorf("--tolerance: %w", err)
				}
				tol = tolerance
			}

			set, err := encodings.Load(encPath)
			if err != nil {
				log.Error("failed to load encodings", "path", encPath, "error", err)
			}
			if set.Len() == 0 {
				return errors.New("no face encodings available, run 'faceattend collect' and 'faceattend encode' first")
			}
			matcher, err := recognizer.NewMatcher(set.Encodings, set.Names, tol)
			if err != nil {
				return err
			}

			opts := attendance.Options{SkipLoggedToday: cfg.Attendance.SkipLoggedToday, Logger: log}
			var db *gorm.DB
			if db, err = dbconnection.OpenSQLite(cfg.Paths.Database, log); err != nil {
				log.Warn("failed to open database, logging to CSV only", "error", err)
			} else {
				defer dbconnection.Close(db)
				opts.Sink = dbconnection.AttendanceSink{DB: db}
			}

			sess, err := attendance.Open(cfg.Paths.AttendanceDir, time.Now(), opts)
			if err != nil {
				return err
			}

			enc, release, err := openEncoder(cfg)
			if err != nil {
				return err
			}
			defer release()

			preview, err := openLive(cmd.Context(), cfg, "Face Recognition Attendance", log)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Loaded %d encodings of %d people. Press 'q' to quit.\n", set.Len(), len(set.People()))
			run := &live.AttendanceRun{
				Grabber:    preview.Grabber,
				Display:    preview.Display,
				Recognizer: &recognizer.FrameRecognizer{Encoder: enc, Matcher: matcher, Scale: cfg.Recognition.FrameScale},
				Session:    sess,
				Out:        out,
				Logger:     log,
			}
			runErr := run.Run(cmd.Context())
			if err := preview.Close(); err != nil {
				log.Warn("failed to release camera", "error", err)
			}

			fmt.Fprintf(out, "Attendance log saved to %s\n", sess.Path())
			fmt.Fprintf(out, "Total attendance logged: %d people\n", len(sess.Logged()))
			return runErr
		},
	}

	cmd.Flags().StringVarP(&encodingsFlag, "encodings", "e", "", "Encodings file (overrides paths.encodings_file)")
	cmd.Flags().Float64VarP(&tolerance, "tolerance", "t", 0, "Match tolerance, lower is stricter (overrides recognition.tolerance)")
	return cmd
}
