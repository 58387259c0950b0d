package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirhossein5/faceattend/internal/camera"
	"github.com/amirhossein5/faceattend/internal/config"
	"github.com/amirhossein5/faceattend/internal/stream"
)

// websocketDevice selects frames pushed by a browser instead of a local camera.
const websocketDevice = "ws"

// liveSession bundles the frame source, display and optional stream server
// shared by every camera command.
type liveSession struct {
	Grabber *camera.Grabber
	Display camera.Display

	source camera.Source
	cancel context.CancelFunc
	done   chan error
}

func openLive(ctx context.Context, cfg *config.Config, title string, log *slog.Logger) (*liveSession, error) {
	device := strings.TrimSpace(cfg.Camera.Device)
	listen := strings.TrimSpace(cfg.Stream.Listen)

	var hub *stream.Hub
	var wsSource *stream.WebsocketSource
	if listen != "" {
		hub = stream.NewHub()
	}

	var source camera.Source
	if strings.EqualFold(device, websocketDevice) {
		if listen == "" {
			return nil, errors.New("camera device \"ws\" requires stream.listen to be set")
		}
		wsSource = stream.NewWebsocketSource(log)
		source = wsSource
	} else {
		dev, err := camera.Open(device)
		if err != nil {
			return nil, err
		}
		source = dev
	}

	var display camera.Display = camera.Headless{}
	if !cfg.Camera.Headless {
		display = camera.NewWindow(title)
	}
	if hub != nil {
		display = &camera.Mirror{Display: display, Publisher: hub, Logger: log}
	}

	s := &liveSession{
		Grabber: &camera.Grabber{Source: source, Delay: cfg.RetryDelay(), Logger: log},
		Display: display,
		source:  source,
	}

	if hub != nil {
		srv := &stream.Server{Hub: hub, Source: wsSource, Logger: log}
		if err := srv.Listen(listen); err != nil {
			_ = source.Close()
			_ = display.Close()
			return nil, err
		}
		serveCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		s.done = make(chan error, 1)
		go func() { s.done <- srv.Serve(serveCtx) }()
		log.Info("preview available", "url", fmt.Sprintf("http://%s/", srv.Addr()))
	}

	return s, nil
}

func (s *liveSession) Close() error {
	var errs []error
	if s.cancel != nil {
		s.cancel()
		if err := <-s.done; err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.source.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Display.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
