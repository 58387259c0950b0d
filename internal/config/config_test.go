package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein5/faceattend/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.False(t, exists)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "dataset"), cfg.Paths.DatasetDir)
	assert.Equal(t, filepath.Join(wd, "encodings.json"), cfg.Paths.EncodingsFile)
	assert.Equal(t, filepath.Join(wd, "models", config.DetectorPrototxtName), cfg.Detector.Prototxt)
	assert.Equal(t, filepath.Join(wd, "models", config.DetectorModelName), cfg.Detector.Model)
	assert.Equal(t, filepath.Join(wd, "models", "dlib"), cfg.Recognition.ModelsDir)
	assert.Equal(t, 0.5, cfg.Recognition.Tolerance)
	assert.Equal(t, 0.25, cfg.Recognition.FrameScale)
	assert.Equal(t, 0.5, cfg.Detector.Confidence)
	assert.Equal(t, "auto", cfg.Detector.Backend)
	assert.Equal(t, "0", cfg.Camera.Device)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryDelay())
	assert.False(t, cfg.Attendance.SkipLoggedToday)
}

func TestLoadParsesFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "faceattend.toml")
	content := `
[paths]
models_dir = "` + filepath.ToSlash(filepath.Join(dir, "nets")) + `"

[recognition]
tolerance = 0.4

[detector]
backend = "CPU"

[attendance]
skip_logged_today = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("FACEATTEND_CAMERA_DEVICE", "/dev/video2")

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 0.4, cfg.Recognition.Tolerance)
	assert.Equal(t, "cpu", cfg.Detector.Backend)
	assert.Equal(t, "/dev/video2", cfg.Camera.Device)
	assert.Equal(t, filepath.Join(dir, "nets", config.DetectorPrototxtName), cfg.Detector.Prototxt)
	assert.True(t, cfg.Attendance.SkipLoggedToday)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"tolerance":  "[recognition]\ntolerance = 1.5\n",
		"confidence": "[detector]\nconfidence = 1.0\n",
		"backend":    "[detector]\nbackend = \"tpu\"\n",
		"format":     "[logging]\nformat = \"xml\"\n",
		"scale":      "[recognition]\nframe_scale = 2.0\n",
		"count":      "[collect]\ncount = -1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, _, _, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestWriteSampleLoadsCleanly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.WriteSample(path, false))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, config.Default().Recognition.Tolerance, cfg.Recognition.Tolerance)
}

func TestValidateTolerance(t *testing.T) {
	assert.NoError(t, config.ValidateTolerance(0.6))
	assert.NoError(t, config.ValidateTolerance(1))
	assert.Error(t, config.ValidateTolerance(0))
	assert.Error(t, config.ValidateTolerance(-0.1))
}

func TestWriteSampleKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0o644))

	err := config.WriteSample(path, false)
	assert.ErrorIs(t, err, config.ErrConfigExists)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))

	require.NoError(t, config.WriteSample(path, true))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[paths]")
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.ExpandPath("~/models")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "models"), got)

	got, err = config.ExpandPath("")
	require.NoError(t, err)
	assert.Empty(t, got)

	wd, err := os.Getwd()
	require.NoError(t, err)
	got, err = config.ExpandPath("dataset/../dataset")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "dataset"), got)
}
