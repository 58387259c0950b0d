package live

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/amirhossein5/faceattend/internal/camera"
	"github.com/amirhossein5/faceattend/internal/dataset"
	"github.com/amirhossein5/faceattend/internal/logging"
)

// Collector saves frames for one person into their dataset directory.
type Collector struct {
	Grabber *camera.Grabber
	Display camera.Display
	// PersonDir is where images go; Name prefixes the file names.
	PersonDir string
	Name      string
	// Target stops collection after that many images; 0 means unlimited.
	Target int
	// Every saves a frame automatically at this interval when positive,
	// for sessions without a keyboard.
	Every time.Duration
	// Save writes a frame to path. Defaults to gocv.IMWrite.
	Save   func(path string, frame gocv.Mat) error
	Out    io.Writer
	Logger *slog.Logger
	Now    func() time.Time
}

// Run collects until the target is reached, q is pressed, or ctx ends.
// It returns the number of images saved.
func (c *Collector) Run(ctx context.Context) (int, error) {
	log := logging.OrDefault(c.Logger)
	out := c.Out
	if out == nil {
		out = io.Discard
	}
	save := c.Save
	if save == nil {
		save = writeImage
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}

	fmt.Fprintf(out, "[INFO] Capturing images for: %s\n", c.Name)
	if c.Target > 0 {
		fmt.Fprintf(out, "[INFO] Target: %d images\n", c.Target)
	}
	fmt.Fprintln(out, "Press 's' to save an image")
	fmt.Fprintln(out, "Press 'q' to finish capturing")

	preview := gocv.NewMat()
	defer preview.Close()

	count := 0
	lastAuto := now()
	err := loop(ctx, c.Grabber, func(frame gocv.Mat) error {
		if c.Target > 0 && count >= c.Target {
			fmt.Fprintf(out, "[INFO] Reached target of %d images.\n", c.Target)
			return errQuit
		}

		frame.CopyTo(&preview)
		camera.DrawCaption(&preview, progressCaption(count, c.Target))
		key, err := show(c.Display, preview)
		if err != nil {
			return err
		}

		auto := c.Every > 0 && now().Sub(lastAuto) >= c.Every
		if key != keySave && !auto {
			return nil
		}
		lastAuto = now()

		path, err := dataset.NextImagePath(c.PersonDir, c.Name)
		if err != nil {
			return err
		}
		if err := save(path, frame); err != nil {
			return err
		}
		count++
		log.Debug("saved face image", "path", path, "count", count)
		fmt.Fprintf(out, "[SAVED] %s\n", path)

		if c.Target > 0 && count >= c.Target {
			fmt.Fprintf(out, "[INFO] Reached target of %d images.\n", c.Target)
			return errQuit
		}
		return nil
	})
	return count, err
}

func progressCaption(count, target int) string {
	if target > 0 {
		return fmt.Sprintf("Images: %d/%d", count, target)
	}
	return fmt.Sprintf("Images: %d", count)
}

func writeImage(path string, frame gocv.Mat) error {
	if ok := gocv.IMWrite(path, frame); !ok {
		return fmt.Errorf("failed to write image %s", path)
	}
	return nil
}
