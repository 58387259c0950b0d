package live

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/amirhossein5/faceattend/internal/attendance"
	"github.com/amirhossein5/faceattend/internal/camera"
	"github.com/amirhossein5/faceattend/internal/logging"
	"github.com/amirhossein5/faceattend/internal/recognizer"
)

// FaceRecognizer names the faces in a frame.
type FaceRecognizer interface {
	Recognize(frame gocv.Mat) ([]recognizer.Result, error)
}

// AttendanceRun recognizes faces and logs each known person once.
type AttendanceRun struct {
	Grabber    *camera.Grabber
	Display    camera.Display
	Recognizer FaceRecognizer
	Session    *attendance.Session
	Out        io.Writer
	Logger     *slog.Logger
	Now        func() time.Time
}

func (r *AttendanceRun) Run(ctx context.Context) error {
	log := logging.OrDefault(r.Logger)
	out := r.Out
	if out == nil {
		out = io.Discard
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}

	return loop(ctx, r.Grabber, func(frame gocv.Mat) error {
		results, err := r.Recognizer.Recognize(frame)
		if err != nil {
			log.Error("failed to recognize frame", "error", err)
		}

		for _, res := range results {
			camera.DrawBox(&frame, res.Box, res.Name, 0.75, 2)

			at := now()
			logged, err := r.Session.Log(ctx, res.Name, at)
			if err != nil {
				return err
			}
			if logged {
				log.Info("attendance logged", "name", res.Name, "votes", res.Votes, "distance", res.Distance)
				fmt.Fprintf(out, "[LOGGED] %s at %s\n", res.Name, at.Format(attendance.TimeLayout))
			}
		}

		_, err = show(r.Display, frame)
		return err
	})
}
