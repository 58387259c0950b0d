// Package live runs the interactive camera loops: collecting face images,
// previewing detections, and recognizing faces for attendance.
package live

import (
	"context"
	"errors"

	"gocv.io/x/gocv"

	"github.com/amirhossein5/faceattend/internal/camera"
)

const (
	keySave camera.Key = 's'
	keyQuit camera.Key = 'q'
)

// errQuit ends a loop without error.
var errQuit = errors.New("quit")

// loop feeds frames to step until step fails or the context ends.
// errQuit and context cancellation end the loop cleanly.
func loop(ctx context.Context, g *camera.Grabber, step func(frame gocv.Mat) error) error {
	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := g.Next(ctx, &frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := step(frame); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

// show displays img and turns the quit key into errQuit.
func show(d camera.Display, img gocv.Mat) (camera.Key, error) {
	key := d.Show(img)
	if key == keyQuit {
		return key, errQuit
	}
	return key, nil
}
