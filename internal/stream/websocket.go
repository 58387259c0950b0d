package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"
	"golang.org/x/net/websocket"

	"github.com/amirhossein5/faceattend/internal/camera"
	"github.com/amirhossein5/faceattend/internal/logging"
)

// ErrClosed is returned by a closed WebsocketSource.
var ErrClosed = errors.New("websocket source closed")

// WebsocketSource is a camera.Source fed with JPEG frames sent by a browser.
// Only the newest unread frame is kept.
type WebsocketSource struct {
	frames chan []byte
	done   chan struct{}
	once   sync.Once
	log    *slog.Logger
}

func NewWebsocketSource(log *slog.Logger) *WebsocketSource {
	return &WebsocketSource{
		frames: make(chan []byte, 1),
		done:   make(chan struct{}),
		log:    logging.OrDefault(log),
	}
}

// Handler accepts camera websocket connections.
func (s *WebsocketSource) Handler() websocket.Handler {
	return func(ws *websocket.Conn) {
		defer ws.Close()
		s.log.Info("camera websocket connected", "remote", ws.Request().RemoteAddr)
		for {
			var buf []byte
			err := websocket.Message.Receive(ws, &buf)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.log.Warn("failed to read websocket data", "error", err)
				}
				return
			}
			if !s.push(buf) {
				return
			}
		}
	}
}

func (s *WebsocketSource) push(buf []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	// drop the stale frame, if any, so readers always see the newest one
	select {
	case <-s.frames:
	default:
	}
	select {
	case s.frames <- buf:
	default:
	}
	return true
}

func (s *WebsocketSource) next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	case buf := <-s.frames:
		return buf, nil
	}
}

// Read blocks until a browser frame arrives and decodes it into dst.
func (s *WebsocketSource) Read(ctx context.Context, dst *gocv.Mat) error {
	buf, err := s.next(ctx)
	if err != nil {
		return err
	}
	img, err := gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil {
		return camera.ErrNoFrame
	}
	defer img.Close()
	if img.Empty() {
		return camera.ErrNoFrame
	}
	img.CopyTo(dst)
	return nil
}

func (s *WebsocketSource) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
