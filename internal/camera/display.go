package camera

import (
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/amirhossein5/faceattend/internal/logging"
)

// Key is a key pressed in a preview window; NoKey when none was.
type Key int

const NoKey Key = -1

// Display shows frames and reports key presses.
type Display interface {
	Show(frame gocv.Mat) Key
	Close() error
}

// Publisher receives JPEG encoded frames, for example the stream hub.
type Publisher interface {
	Update(jpeg []byte)
}

// Window shows frames in an OpenCV window.
type Window struct {
	w *gocv.Window
}

func NewWindow(title string) *Window {
	return &Window{w: gocv.NewWindow(title)}
}

func (w *Window) Show(frame gocv.Mat) Key {
	w.w.IMShow(frame)
	key := w.w.WaitKey(1)
	if key < 0 {
		return NoKey
	}
	return Key(key & 0xFF)
}

func (w *Window) Close() error {
	return w.w.Close()
}

// Headless never shows anything and never reports a key.
type Headless struct{}

func (Headless) Show(gocv.Mat) Key { return NoKey }
func (Headless) Close() error      { return nil }

// Mirror shows frames on Display and also publishes them as JPEG.
type Mirror struct {
	Display
	Publisher Publisher
	Logger    *slog.Logger
}

func (m *Mirror) Show(frame gocv.Mat) Key {
	if m.Publisher != nil && !frame.Empty() {
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
		if err != nil {
			logging.OrDefault(m.Logger).Warn("failed to encode preview frame", "error", err)
		} else {
			out := make([]byte, buf.Len())
			copy(out, buf.GetBytes())
			buf.Close()
			m.Publisher.Update(out)
		}
	}
	return m.Display.Show(frame)
}
