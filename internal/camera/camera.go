package camera

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/amirhossein5/faceattend/internal/logging"
)

// ErrNoFrame is returned by a Source when a frame could not be grabbed.
var ErrNoFrame = errors.New("failed to grab frame")

// Source produces frames.
type Source interface {
	Read(ctx context.Context, dst *gocv.Mat) error
	Close() error
}

// Device is a Source backed by an OpenCV VideoCapture.
type Device struct {
	name string
	vc   *gocv.VideoCapture
}

// Open opens a capture device. Integer names select a camera index; anything
// else is passed to OpenCV as a file or stream URL.
func Open(name string) (*Device, error) {
	var (
		vc  *gocv.VideoCapture
		err error
	)
	if id, convErr := strconv.Atoi(name); convErr == nil {
		vc, err = gocv.OpenVideoCapture(id)
	} else {
		vc, err = gocv.OpenVideoCapture(name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not open webcam %s", name)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Errorf("could not open webcam %s", name)
	}
	return &Device{name: name, vc: vc}, nil
}

func (d *Device) Read(ctx context.Context, dst *gocv.Mat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ok := d.vc.Read(dst); !ok || dst.Empty() {
		return ErrNoFrame
	}
	return nil
}

func (d *Device) Close() error {
	return d.vc.Close()
}

// Grabber reads frames from a Source, retrying failed grabs after Delay
// until the context is cancelled.
type Grabber struct {
	Source Source
	Delay  time.Duration
	Logger *slog.Logger
}

// Next fills dst with the next frame.
func (g *Grabber) Next(ctx context.Context, dst *gocv.Mat) error {
	log := logging.OrDefault(g.Logger)
	for {
		err := g.Source.Read(ctx, dst)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, ErrNoFrame) {
			return err
		}

		log.Warn("failed to grab frame, retrying", "delay", g.Delay)
		timer := time.NewTimer(g.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
