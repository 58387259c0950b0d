package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amirhossein5/faceattend/internal/config"
	"github.com/amirhossein5/faceattend/internal/detector"
	"github.com/amirhossein5/faceattend/internal/live"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var prototxt string
	var model string
	var confidence float64

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Preview face detection with the SSD detector",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.log()

			det := cfg.Detector
			if cmd.Flags().Changed("prototxt") {
				if det.Prototxt, err = config.ExpandPath(prototxt); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("model") {
				if det.Model, err = config.ExpandPath(model); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("confidence") {
				if err := config.ValidateConfidence(confidence); err != nil {
					return fmt.Errorf("--confidence: %w", err)
				}
				det.Confidence = confidence
			}

			d, err := detector.New(det.Prototxt, det.Model, det.Confidence, det.Backend, log)
			if err != nil {
				return fmt.Errorf("%w (run 'faceattend models download' to fetch the detector)", err)
			}
			defer d.Close()

			session, err := openLive(cmd.Context(), cfg, "Face Detection", log)
			if err != nil {
				return err
			}
			defer func() {
				if err := session.Close(); err != nil {
					log.Warn("failed to release camera", "error", err)
				}
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Detecting faces on %s. Press 'q' to quit.\n", d.Target)
			preview := &live.DetectPreview{
				Grabber:  session.Grabber,
				Display:  session.Display,
				Detector: d,
				Logger:   log,
			}
			return preview.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&prototxt, "prototxt", "", "Detector prototxt (overrides detector.prototxt)")
	cmd.Flags().StringVar(&model, "model", "", "Detector caffemodel (overrides detector.model)")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "Minimum detection confidence (overrides detector.confidence)")
	return cmd
}
