package stream

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/amirhossein5/faceattend/internal/logging"
)

//go:embed index.html
var indexPage []byte

// Server exposes the preview stream and, when a source is attached, the
// camera websocket.
type Server struct {
	Hub    *Hub
	Source *WebsocketSource
	Logger *slog.Logger

	srv *http.Server
	ln  net.Listener
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexPage)
	})
	mux.Handle("/stream", MJPEGHandler(s.Hub, 100*time.Millisecond))
	if s.Source != nil {
		mux.Handle("/camera-websocket", s.Source.Handler())
	}
	return mux
}

// Listen binds addr. Addr reports the bound address afterwards.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.ln = ln
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	return nil
}

func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve runs until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if s.srv == nil {
		return errors.New("stream server not listening")
	}
	log := logging.OrDefault(s.Logger)
	log.Info("starting stream server", "addr", s.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			// streaming handlers hold connections open until they notice
			_ = s.srv.Close()
		}
		return nil
	}
}
