package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDetector(); err != nil {
		return err
	}
	if err := c.normalizeRecognition(); err != nil {
		return err
	}
	c.normalizeCamera()
	c.normalizeLogging()
	c.Stream.Listen = strings.TrimSpace(c.Stream.Listen)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DatasetDir, err = ExpandPath(c.Paths.DatasetDir); err != nil {
		return fmt.Errorf("paths.dataset_dir: %w", err)
	}
	if c.Paths.EncodingsFile, err = ExpandPath(c.Paths.EncodingsFile); err != nil {
		return fmt.Errorf("paths.encodings_file: %w", err)
	}
	if c.Paths.ModelsDir, err = ExpandPath(c.Paths.ModelsDir); err != nil {
		return fmt.Errorf("paths.models_dir: %w", err)
	}
	if c.Paths.AttendanceDir, err = ExpandPath(c.Paths.AttendanceDir); err != nil {
		return fmt.Errorf("paths.attendance_dir: %w", err)
	}
	if c.Paths.Database, err = ExpandPath(c.Paths.Database); err != nil {
		return fmt.Errorf("paths.database: %w", err)
	}
	return nil
}

func (c *Config) normalizeDetector() error {
	var err error
	if strings.TrimSpace(c.Detector.Prototxt) == "" {
		c.Detector.Prototxt = filepath.Join(c.Paths.ModelsDir, DetectorPrototxtName)
	}
	if c.Detector.Prototxt, err = ExpandPath(c.Detector.Prototxt); err != nil {
		return fmt.Errorf("detector.prototxt: %w", err)
	}
	if strings.TrimSpace(c.Detector.Model) == "" {
		c.Detector.Model = filepath.Join(c.Paths.ModelsDir, DetectorModelName)
	}
	if c.Detector.Model, err = ExpandPath(c.Detector.Model); err != nil {
		return fmt.Errorf("detector.model: %w", err)
	}
	c.Detector.Backend = strings.ToLower(strings.TrimSpace(c.Detector.Backend))
	if c.Detector.Backend == "" {
		c.Detector.Backend = "auto"
	}
	return nil
}

func (c *Config) normalizeRecognition() error {
	var err error
	if strings.TrimSpace(c.Recognition.ModelsDir) == "" {
		c.Recognition.ModelsDir = filepath.Join(c.Paths.ModelsDir, "dlib")
	}
	if c.Recognition.ModelsDir, err = ExpandPath(c.Recognition.ModelsDir); err != nil {
		return fmt.Errorf("recognition.models_dir: %w", err)
	}
	if c.Recognition.FrameScale == 0 {
		c.Recognition.FrameScale = 0.25
	}
	return nil
}

func (c *Config) normalizeCamera() {
	c.Camera.Device = strings.TrimSpace(c.Camera.Device)
	if c.Camera.Device == "" {
		c.Camera.Device = "0"
	}
	if c.Camera.RetryDelayMS <= 0 {
		c.Camera.RetryDelayMS = 500
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}
