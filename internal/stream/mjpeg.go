package stream

import (
	"io"
	"net/http"
	"time"
)

const boundary = "\r\n--frame\r\nContent-Type: image/jpeg\r\n\r\n"

// MJPEGHandler streams the hub's frames as multipart/x-mixed-replace,
// checking for a new frame every interval.
func MJPEGHandler(hub *Hub, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		flusher, _ := w.(http.Flusher)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var sent uint64
		for {
			if frame, version := hub.Latest(); version != sent && len(frame) > 0 {
				if _, err := io.WriteString(w, boundary); err != nil {
					return
				}
				if _, err := w.Write(frame); err != nil {
					return
				}
				if _, err := io.WriteString(w, "\r\n"); err != nil {
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
				sent = version
			}

			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}
		}
	}
}
