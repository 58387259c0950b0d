package recognizer

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Result is a face found in a live frame, in frame coordinates.
type Result struct {
	Box image.Rectangle
	Match
}

// FrameRecognizer finds and names faces in camera frames.
type FrameRecognizer struct {
	Encoder Encoder
	Matcher *Matcher
	// Scale shrinks frames before encoding; boxes are scaled back.
	Scale float64
}

// Recognize names every face in frame.
func (r *FrameRecognizer) Recognize(frame gocv.Mat) ([]Result, error) {
	if frame.Empty() {
		return nil, nil
	}

	scale := r.Scale
	if scale <= 0 || scale > 1 {
		scale = 1
	}

	small := gocv.NewMat()
	defer small.Close()
	if scale == 1 {
		frame.CopyTo(&small)
	} else {
		gocv.Resize(frame, &small, image.Point{}, scale, scale, gocv.InterpolationLinear)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, small)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	faces, err := r.Encoder.Encode(buf.GetBytes())
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(faces))
	for _, f := range faces {
		results = append(results, Result{
			Box:   ScaleRect(f.Rect, 1/scale),
			Match: r.Matcher.Match(f.Descriptor),
		})
	}
	return results, nil
}

// ScaleRect multiplies every coordinate of r by factor.
func ScaleRect(r image.Rectangle, factor float64) image.Rectangle {
	scale := func(v int) int { return int(float64(v)*factor + 0.5) }
	return image.Rect(scale(r.Min.X), scale(r.Min.Y), scale(r.Max.X), scale(r.Max.Y))
}
