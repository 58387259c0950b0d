package camera_test

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/amirhossein5/faceattend/internal/camera"
	"github.com/amirhossein5/faceattend/internal/logging"
	"github.com/amirhossein5/faceattend/internal/stream"
)

type scriptedSource struct {
	results []error
	reads   int
}

func (s *scriptedSource) Read(ctx context.Context, _ *gocv.Mat) error {
	if s.reads >= len(s.results) {
		return camera.ErrNoFrame
	}
	err := s.results[s.reads]
	s.reads++
	return err
}

func (s *scriptedSource) Close() error { return nil }

func TestGrabberRetriesFailedGrabs(t *testing.T) {
	src := &scriptedSource{results: []error{camera.ErrNoFrame, camera.ErrNoFrame, nil}}
	g := &camera.Grabber{Source: src, Delay: time.Millisecond, Logger: logging.Discard()}

	var frame gocv.Mat
	require.NoError(t, g.Next(context.Background(), &frame))
	assert.Equal(t, 3, src.reads)
}

func TestGrabberReturnsOtherErrors(t *testing.T) {
	boom := errors.New("device unplugged")
	src := &scriptedSource{results: []error{boom}}
	g := &camera.Grabber{Source: src, Delay: time.Millisecond, Logger: logging.Discard()}

	var frame gocv.Mat
	assert.ErrorIs(t, g.Next(context.Background(), &frame), boom)
}

func TestGrabberStopsOnCancel(t *testing.T) {
	src := &scriptedSource{}
	g := &camera.Grabber{Source: src, Delay: time.Hour, Logger: logging.Discard()}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var frame gocv.Mat
	assert.ErrorIs(t, g.Next(ctx, &frame), context.DeadlineExceeded)
}

func TestHeadlessNeverReportsKey(t *testing.T) {
	var d camera.Display = camera.Headless{}
	assert.Equal(t, camera.NoKey, d.Show(gocv.Mat{}))
	assert.NoError(t, d.Close())
}

func TestLabelOrigin(t *testing.T) {
	assert.Equal(t, image.Pt(40, 90), camera.LabelOrigin(image.Rect(40, 100, 80, 140)))
	assert.Equal(t, image.Pt(5, 25), camera.LabelOrigin(image.Rect(5, 5, 50, 50)))
}

type keyDisplay struct {
	key   camera.Key
	shown int
}

func (d *keyDisplay) Show(gocv.Mat) camera.Key {
	d.shown++
	return d.key
}

func (d *keyDisplay) Close() error { return nil }

func TestMirrorPublishesJPEGToHub(t *testing.T) {
	hub := stream.NewHub()
	inner := &keyDisplay{key: 'q'}
	m := &camera.Mirror{Display: inner, Publisher: hub, Logger: logging.Discard()}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	assert.Equal(t, camera.Key('q'), m.Show(frame))
	assert.Equal(t, 1, inner.shown)

	buf, version := hub.Latest()
	require.NotEmpty(t, buf)
	assert.Equal(t, uint64(1), version)

	decoded, err := gocv.IMDecode(buf, gocv.IMReadColor)
	require.NoError(t, err)
	defer decoded.Close()
	assert.Equal(t, 64, decoded.Cols())
	assert.Equal(t, 48, decoded.Rows())
}

func TestMirrorSkipsEmptyFrames(t *testing.T) {
	hub := stream.NewHub()
	m := &camera.Mirror{Display: camera.Headless{}, Publisher: hub, Logger: logging.Discard()}

	empty := gocv.NewMat()
	defer empty.Close()

	assert.Equal(t, camera.NoKey, m.Show(empty))
	buf, version := hub.Latest()
	assert.Empty(t, buf)
	assert.Zero(t, version)
}
