package recognizer

import (
	"fmt"
	"image"
	"sync"

	"github.com/Kagami/go-face"
)

// Face is a face found in an image together with its descriptor.
type Face struct {
	Rect       image.Rectangle
	Descriptor face.Descriptor
}

// Encoder extracts face descriptors from JPEG data.
type Encoder interface {
	Encode(jpeg []byte) ([]Face, error)
}

// Dlib encodes faces with dlib through go-face. The model directory must hold
// shape_predictor_5_face_landmarks.dat, dlib_face_recognition_resnet_model_v1.dat
// and mmod_human_face_detector.dat.
type Dlib struct {
	mu  sync.Mutex
	rec *face.Recognizer
	cnn bool
}

// NewDlib loads the dlib models. cnn selects the CNN detector over HOG.
func NewDlib(modelsDir string, cnn bool) (*Dlib, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load recognizer: %w", err)
	}
	return &Dlib{rec: rec, cnn: cnn}, nil
}

// Encode returns every face in the image. The underlying recognizer is not
// safe for concurrent use, so calls are serialized.
func (d *Dlib) Encode(data []byte) ([]Face, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		faces []face.Face
		err   error
	)
	if d.cnn {
		faces, err = d.rec.RecognizeCNN(data)
	} else {
		faces, err = d.rec.Recognize(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to recognize given buffer: %w", err)
	}

	out := make([]Face, 0, len(faces))
	for _, f := range faces {
		out = append(out, Face{Rect: f.Rectangle, Descriptor: f.Descriptor})
	}
	return out, nil
}

func (d *Dlib) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec.Close()
}
