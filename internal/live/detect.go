package live

import (
	"context"
	"fmt"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/amirhossein5/faceattend/internal/camera"
	"github.com/amirhossein5/faceattend/internal/detector"
	"github.com/amirhossein5/faceattend/internal/logging"
)

// FaceDetector finds faces in a frame.
type FaceDetector interface {
	Detect(frame gocv.Mat) ([]detector.Detection, error)
	Probe(frame gocv.Mat)
}

// DetectPreview draws detected faces with their confidence on a live preview.
type DetectPreview struct {
	Grabber  *camera.Grabber
	Display  camera.Display
	Detector FaceDetector
	Logger   *slog.Logger
}

func (p *DetectPreview) Run(ctx context.Context) error {
	log := logging.OrDefault(p.Logger)
	probed := false

	return loop(ctx, p.Grabber, func(frame gocv.Mat) error {
		if !probed {
			p.Detector.Probe(frame)
			probed = true
		}

		detections, err := p.Detector.Detect(frame)
		if err != nil {
			log.Error("failed to detect faces", "error", err)
		}
		log.Debug("faces detected", "count", len(detections))

		for _, d := range detections {
			camera.DrawBox(&frame, d.Box, fmt.Sprintf("%.2f", d.Confidence), 0.5, 1)
		}
		_, err = show(p.Display, frame)
		return err
	})
}
