package detector

import (
	"image"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/amirhossein5/faceattend/internal/logging"
)

const inputSize = 300

var mean = gocv.NewScalar(104.0, 117.0, 123.0, 0)

// Detection is a face box with the network's confidence in it.
type Detection struct {
	Box        image.Rectangle
	Confidence float32
}

// ErrCUDAUnavailable is returned by New when backend "cuda" is requested
// and the network cannot be moved onto a CUDA target.
var ErrCUDAUnavailable = errors.New("CUDA backend unavailable")

// Detector finds faces with the res10 SSD Caffe model.
type Detector struct {
	net       gocv.Net
	threshold float32
	log       *slog.Logger
	// strict is set for backend "cuda": no silent CPU fallback.
	strict bool
	Target string
}

// New loads the network. backend "auto" tries CUDA and falls back to the
// OpenCV CPU path; "cuda" fails with ErrCUDAUnavailable instead; "cpu"
// never tries CUDA.
func New(prototxt, model string, threshold float64, backend string, log *slog.Logger) (*Detector, error) {
	log = logging.OrDefault(log)
	for _, path := range []string{prototxt, model} {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "model file not found: %s", path)
		}
	}

	log.Info("loading face detection model", "prototxt", prototxt, "model", model)
	net := gocv.ReadNetFromCaffe(prototxt, model)
	if net.Empty() {
		return nil, errors.Errorf("error reading network model: %s", model)
	}

	d := &Detector{net: net, threshold: float32(threshold), log: log, strict: backend == "cuda"}
	target, err := selectBackend(&d.net, backend, log)
	if err != nil {
		net.Close()
		return nil, err
	}
	d.Target = target
	return d, nil
}

// preferences is the part of gocv.Net that picks where inference runs.
type preferences interface {
	SetPreferableBackend(backend gocv.NetBackendType) error
	SetPreferableTarget(target gocv.NetTargetType) error
}

func selectBackend(net preferences, backend string, log *slog.Logger) (string, error) {
	if backend != "cpu" {
		if err := net.SetPreferableBackend(gocv.NetBackendCUDA); err == nil {
			if err := net.SetPreferableTarget(gocv.NetTargetCUDAFP16); err == nil {
				log.Info("using CUDA (FP16)")
				return "cuda-fp16", nil
			}
			if err := net.SetPreferableTarget(gocv.NetTargetCUDA); err == nil {
				log.Info("using CUDA (default)")
				return "cuda", nil
			}
		}
		if backend == "cuda" {
			return "", ErrCUDAUnavailable
		}
		log.Info("CUDA not available, using CPU fallback")
	}
	useCPU(net)
	return "cpu", nil
}

func useCPU(net preferences) {
	_ = net.SetPreferableBackend(gocv.NetBackendOpenCV)
	_ = net.SetPreferableTarget(gocv.NetTargetCPU)
}

// Probe runs one forward pass on frame and, unless CUDA was explicitly
// requested, drops to the CPU path if the accelerated target produced nothing.
func (d *Detector) Probe(frame gocv.Mat) {
	if d.Target == "cpu" || frame.Empty() {
		return
	}
	out := d.forward(frame)
	defer out.Close()
	if out.Empty() {
		if d.strict {
			d.log.Error("model test failed on CUDA, keeping the requested backend")
			return
		}
		d.log.Warn("model test failed, falling back to CPU")
		useCPU(&d.net)
		d.Target = "cpu"
		return
	}
	d.log.Info("model test successful")
}

// Detect returns the faces in frame above the confidence threshold.
func (d *Detector) Detect(frame gocv.Mat) ([]Detection, error) {
	if frame.Empty() {
		return nil, nil
	}
	out := d.forward(frame)
	defer out.Close()
	if out.Empty() {
		return nil, errors.New("forward pass returned no output")
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "read detections")
	}
	return ParseDetections(data, frame.Cols(), frame.Rows(), d.threshold), nil
}

func (d *Detector) forward(frame gocv.Mat) gocv.Mat {
	blob := gocv.BlobFromImage(frame, 1.0, image.Pt(inputSize, inputSize), mean, false, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	return d.net.Forward("")
}

func (d *Detector) Close() error {
	return d.net.Close()
}

// ParseDetections reads SSD output rows of
// [image, label, confidence, left, top, right, bottom] with coordinates
// relative to the frame. Rows with confidence above threshold are kept and
// their boxes scaled to width x height and clipped to the frame.
func ParseDetections(data []float32, width, height int, threshold float32) []Detection {
	bounds := image.Rect(0, 0, width, height)
	var out []Detection
	for i := 0; i+7 <= len(data); i += 7 {
		confidence := data[i+2]
		if confidence <= threshold {
			continue
		}
		box := image.Rect(
			int(data[i+3]*float32(width)),
			int(data[i+4]*float32(height)),
			int(data[i+5]*float32(width)),
			int(data[i+6]*float32(height)),
		).Intersect(bounds)
		if box.Empty() {
			continue
		}
		out = append(out, Detection{Box: box, Confidence: confidence})
	}
	return out
}
