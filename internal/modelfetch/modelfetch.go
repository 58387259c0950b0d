// Package modelfetch downloads the detector and recognizer model files.
package modelfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/amirhossein5/faceattend/internal/config"
	"github.com/amirhossein5/faceattend/internal/logging"
)

// File is a model file and the URLs it can be fetched from, in order.
type File struct {
	Name string
	URLs []string
}

// DetectorFiles are the res10 SSD face detector files.
var DetectorFiles = []File{
	{
		Name: config.DetectorPrototxtName,
		URLs: []string{
			"https://raw.githubusercontent.com/opencv/opencv/master/samples/dnn/face_detector/deploy.prototxt",
			"https://raw.githubusercontent.com/spmallick/learnopencv/master/FaceDetectionComparison/models/deploy.prototxt",
		},
	},
	{
		Name: config.DetectorModelName,
		URLs: []string{
			"https://raw.githubusercontent.com/spmallick/learnopencv/master/FaceDetectionComparison/models/res10_300x300_ssd_iter_140000_fp16.caffemodel",
			"https://raw.githubusercontent.com/opencv/opencv_3rdparty/dnn_samples_face_detector_20170830/res10_300x300_ssd_iter_140000_fp16.caffemodel",
		},
	},
}

const goFaceModels = "Kagami/go-face-testdata/master/models/"

func goFaceModel(name string) File {
	return File{
		Name: name,
		URLs: []string{
			"https://raw.githubusercontent.com/" + goFaceModels + name,
			"https://media.githubusercontent.com/media/" + goFaceModels + name,
		},
	}
}

// RecognizerFiles are the dlib models go-face loads from the recognition
// models directory.
var RecognizerFiles = []File{
	goFaceModel("shape_predictor_5_face_landmarks.dat"),
	goFaceModel("dlib_face_recognition_resnet_model_v1.dat"),
	goFaceModel("mmod_human_face_detector.dat"),
}

// Bundle is a list of files that belong in one directory.
type Bundle struct {
	Dir   string
	Files []File
}

// Result reports what happened to one file.
type Result struct {
	File    File
	Path    string
	Skipped bool
	Bytes   int64
	Err     error
}

// Fetcher downloads model files into a directory.
type Fetcher struct {
	Client *http.Client
	Logger *slog.Logger
}

// Fetch downloads every file missing from dir. A file that fails from all of
// its URLs is reported in its Result; Fetch itself only fails when dir
// cannot be created or ctx is cancelled.
func (f *Fetcher) Fetch(ctx context.Context, dir string, files []File) ([]Result, error) {
	log := logging.OrDefault(f.Logger)
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create models directory: %w", err)
	}

	results := make([]Result, 0, len(files))
	for _, file := range files {
		res := Result{File: file, Path: filepath.Join(dir, file.Name)}

		if _, err := os.Stat(res.Path); err == nil {
			log.Info("model already exists, skipping download", "file", file.Name)
			res.Skipped = true
			results = append(results, res)
			continue
		}

		log.Info("downloading model", "file", file.Name)
		for i, url := range file.URLs {
			n, err := download(ctx, client, url, res.Path, log)
			if err == nil {
				res.Bytes = n
				res.Err = nil
				log.Info("downloaded model", "file", file.Name, "size", humanize.Bytes(uint64(n)))
				break
			}
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			log.Warn("failed to download from source", "file", file.Name, "source", i+1, "error", err)
			res.Err = errors.Join(res.Err, fmt.Errorf("%s: %w", url, err))
		}
		results = append(results, res)
	}
	return results, nil
}

// FetchAll fetches every bundle into its own directory, in order.
func (f *Fetcher) FetchAll(ctx context.Context, bundles []Bundle) ([]Result, error) {
	var results []Result
	for _, b := range bundles {
		res, err := f.Fetch(ctx, b.Dir, b.Files)
		results = append(results, res...)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func download(ctx context.Context, client *http.Client, url, dest string, log *slog.Logger) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	if resp.ContentLength > 0 {
		log.Info("file size", "size", humanize.Bytes(uint64(resp.ContentLength)))
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	pw := &progressWriter{total: resp.ContentLength, log: log, name: filepath.Base(dest)}
	n, err := io.Copy(io.MultiWriter(tmp, pw), resp.Body)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, err
	}
	return n, nil
}

// progressWriter logs every tenth of the expected size.
type progressWriter struct {
	total   int64
	written int64
	step    int64
	name    string
	log     *slog.Logger
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total > 0 {
		step := p.written * 10 / p.total
		if step > p.step {
			p.step = step
			p.log.Debug("download progress",
				"file", p.name,
				"downloaded", humanize.Bytes(uint64(p.written)),
				"percent", fmt.Sprintf("%.1f", float64(p.written)*100/float64(p.total)))
		}
	}
	return len(b), nil
}

// Missing returns the results whose file is still not on disk.
func Missing(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
