package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	DetectorPrototxtName = "deploy.prototxt"
	DetectorModelName    = "res10_300x300_ssd_iter_140000_fp16.caffemodel"
)

// Paths contains file and directory locations.
type Paths struct {
	DatasetDir    string `toml:"dataset_dir"`
	EncodingsFile string `toml:"encodings_file"`
	ModelsDir     string `toml:"models_dir"`
	AttendanceDir string `toml:"attendance_dir"`
	Database      string `toml:"database"`
}

// Camera contains capture device settings.
type Camera struct {
	Device       string `toml:"device"`
	RetryDelayMS int    `toml:"retry_delay_ms"`
	Headless     bool   `toml:"headless"`
}

// Detector contains settings for the Caffe SSD face detector.
type Detector struct {
	Prototxt   string  `toml:"prototxt"`
	Model      string  `toml:"model"`
	Confidence float64 `toml:"confidence"`
	Backend    string  `toml:"backend"`
}

// Recognition contains settings for descriptor extraction and matching.
type Recognition struct {
	// ModelsDir holds the dlib shape predictor and resnet model files.
	ModelsDir string `toml:"models_dir"`
	// Tolerance is the maximum euclidean distance for a match. Lower is stricter.
	Tolerance  float64 `toml:"tolerance"`
	FrameScale float64 `toml:"frame_scale"`
	CNN        bool    `toml:"cnn"`
}

type Collect struct {
	Count int `toml:"count"`
}

type Attendance struct {
	SkipLoggedToday bool `toml:"skip_logged_today"`
}

type Stream struct {
	Listen string `toml:"listen"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for faceattend.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Camera      Camera      `toml:"camera"`
	Detector    Detector    `toml:"detector"`
	Recognition Recognition `toml:"recognition"`
	Collect     Collect     `toml:"collect"`
	Attendance  Attendance  `toml:"attendance"`
	Stream      Stream      `toml:"stream"`
	Logging     Logging     `toml:"logging"`
}

// Default returns a configuration populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DatasetDir:    "dataset",
			EncodingsFile: "encodings.json",
			ModelsDir:     "models",
			AttendanceDir: ".",
			Database:      "attendance.db",
		},
		Camera: Camera{
			Device:       "0",
			RetryDelayMS: 500,
		},
		Detector: Detector{
			Confidence: 0.5,
			Backend:    "auto",
		},
		Recognition: Recognition{
			Tolerance:  0.5,
			FrameScale: 0.25,
		},
		Attendance: Attendance{
			SkipLoggedToday: false,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/faceattend/config.toml")
}

// Load locates, parses, and validates a configuration file. Relative paths in
// the result are made absolute against the working directory.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("faceattend.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) applyEnv() {
	if value, ok := os.LookupEnv("FACEATTEND_CAMERA_DEVICE"); ok && strings.TrimSpace(value) != "" {
		c.Camera.Device = value
	}
	if value, ok := os.LookupEnv("FACEATTEND_STREAM_LISTEN"); ok {
		c.Stream.Listen = value
	}
	if value, ok := os.LookupEnv("FACEATTEND_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
}

// EnsureDirectories creates the directories the commands write into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.AttendanceDir, filepath.Dir(c.Paths.Database), filepath.Dir(c.Paths.EncodingsFile)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath resolves a leading ~ to the home directory and makes p
// absolute. An empty p stays empty.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}
	return abs, nil
}

// ErrConfigExists is returned by WriteSample when it would replace a file.
var ErrConfigExists = errors.New("config file already exists")

// WriteSample writes the commented sample configuration to path, creating
// its directory. An existing file is only replaced when overwrite is set.
func WriteSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}
