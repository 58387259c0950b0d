package recognizer_test

import (
	"errors"
	"image"
	"testing"

	"github.com/Kagami/go-face"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/amirhossein5/faceattend/internal/recognizer"
)

// stubEncoder reports fixed faces and remembers the size of the image it got.
type stubEncoder struct {
	faces []recognizer.Face
	err   error
	calls int
	size  image.Point
}

func (e *stubEncoder) Encode(data []byte) ([]recognizer.Face, error) {
	e.calls++
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, err
	}
	defer img.Close()
	e.size = image.Pt(img.Cols(), img.Rows())
	return e.faces, e.err
}

func newFrameRecognizer(t *testing.T, enc recognizer.Encoder, scale float64) *recognizer.FrameRecognizer {
	t.Helper()
	m, err := recognizer.NewMatcher(
		[]face.Descriptor{descriptor(0, 0), descriptor(1, 1)},
		[]string{"alice", "bob"},
		0.5,
	)
	require.NoError(t, err)
	return &recognizer.FrameRecognizer{Encoder: enc, Matcher: m, Scale: scale}
}

func TestFrameRecognizerScalesBoxesBack(t *testing.T) {
	enc := &stubEncoder{faces: []recognizer.Face{
		{Rect: image.Rect(10, 10, 20, 30), Descriptor: descriptor(0.1, 0)},
		{Rect: image.Rect(30, 5, 40, 15), Descriptor: descriptor(5, 5)},
	}}
	r := newFrameRecognizer(t, enc, 0.5)

	frame := gocv.NewMatWithSize(100, 200, gocv.MatTypeCV8UC3)
	defer frame.Close()

	results, err := r.Recognize(frame)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(100, 50), enc.size)

	require.Len(t, results, 2)
	assert.Equal(t, image.Rect(20, 20, 40, 60), results[0].Box)
	assert.Equal(t, "alice", results[0].Name)
	assert.Equal(t, 1, results[0].Votes)
	assert.Equal(t, image.Rect(60, 10, 80, 30), results[1].Box)
	assert.Equal(t, recognizer.Unknown, results[1].Name)
}

func TestFrameRecognizerOutOfRangeScaleUsesFullFrame(t *testing.T) {
	for _, scale := range []float64{0, -1, 2} {
		enc := &stubEncoder{faces: []recognizer.Face{{Rect: image.Rect(1, 2, 3, 4), Descriptor: descriptor(1, 1)}}}
		r := newFrameRecognizer(t, enc, scale)

		frame := gocv.NewMatWithSize(40, 60, gocv.MatTypeCV8UC3)
		results, err := r.Recognize(frame)
		frame.Close()

		require.NoError(t, err, "scale %v", scale)
		assert.Equal(t, image.Pt(60, 40), enc.size, "scale %v", scale)
		require.Len(t, results, 1)
		assert.Equal(t, image.Rect(1, 2, 3, 4), results[0].Box)
		assert.Equal(t, "bob", results[0].Name)
	}
}

func TestFrameRecognizerSkipsEmptyFrame(t *testing.T) {
	enc := &stubEncoder{}
	r := newFrameRecognizer(t, enc, 0.25)

	frame := gocv.NewMat()
	defer frame.Close()

	results, err := r.Recognize(frame)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, enc.calls)
}

func TestFrameRecognizerReturnsEncoderError(t *testing.T) {
	boom := errors.New("dlib failed")
	r := newFrameRecognizer(t, &stubEncoder{err: boom}, 0.5)

	frame := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC3)
	defer frame.Close()

	_, err := r.Recognize(frame)
	assert.ErrorIs(t, err, boom)
}
