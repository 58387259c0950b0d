package encodings

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/amirhossein5/faceattend/internal/dataset"
	"github.com/amirhossein5/faceattend/internal/logging"
	"github.com/amirhossein5/faceattend/internal/recognizer"
)

// ImageLoader returns JPEG bytes for the image at path.
type ImageLoader func(path string) ([]byte, error)

// Record describes the outcome of encoding one dataset image.
type Record struct {
	Name  string
	Path  string
	Faces int
	Err   error
}

// EncodeDataset encodes every image of every person directory in dir.
// Images that cannot be loaded or encoded are logged and skipped.
func EncodeDataset(ctx context.Context, dir string, enc recognizer.Encoder, load ImageLoader, log *slog.Logger) (*Set, []Record, error) {
	log = logging.OrDefault(log)
	if load == nil {
		load = LoadJPEG
	}

	people, err := dataset.People(dir)
	if err != nil {
		return nil, nil, err
	}

	set := &Set{}
	var records []Record

	log.Info("encoding faces", "dataset", dir, "people", len(people))
	for _, name := range people {
		personDir := filepath.Join(dir, name)
		entries, err := os.ReadDir(personDir)
		if err != nil {
			return nil, nil, fmt.Errorf("read person directory %q: %w", personDir, err)
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			if entry.IsDir() {
				continue
			}

			path := filepath.Join(personDir, entry.Name())
			log.Info("processing image", "path", path)

			rec := Record{Name: name, Path: path}
			faces, err := encodeImage(path, enc, load)
			if err != nil {
				log.Error("failed to process image", "path", path, "error", err)
				rec.Err = err
				records = append(records, rec)
				continue
			}
			if len(faces) == 0 {
				log.Warn("no face found", "path", path)
			}
			for _, f := range faces {
				set.Add(name, f.Descriptor)
			}
			rec.Faces = len(faces)
			records = append(records, rec)
		}
	}

	return set, records, nil
}

func encodeImage(path string, enc recognizer.Encoder, load ImageLoader) ([]recognizer.Face, error) {
	data, err := load(path)
	if err != nil {
		return nil, err
	}
	return enc.Encode(data)
}
