package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := ValidateTolerance(c.Recognition.Tolerance); err != nil {
		return fmt.Errorf("recognition.tolerance: %w", err)
	}
	if err := ValidateConfidence(c.Detector.Confidence); err != nil {
		return fmt.Errorf("detector.confidence: %w", err)
	}
	if c.Recognition.FrameScale <= 0 || c.Recognition.FrameScale > 1 {
		return fmt.Errorf("recognition.frame_scale: must be in (0, 1], got %v", c.Recognition.FrameScale)
	}
	switch c.Detector.Backend {
	case "auto", "cuda", "cpu":
	default:
		return fmt.Errorf("detector.backend: unsupported value %q", c.Detector.Backend)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Collect.Count < 0 {
		return errors.New("collect.count: must not be negative")
	}
	return nil
}

// ValidateTolerance checks a match tolerance. Lower is stricter.
func ValidateTolerance(v float64) error {
	if v <= 0 || v > 1 {
		return fmt.Errorf("must be in (0, 1], got %v", v)
	}
	return nil
}

// ValidateConfidence checks a detection confidence threshold.
func ValidateConfidence(v float64) error {
	if v < 0 || v >= 1 {
		return fmt.Errorf("must be in [0, 1), got %v", v)
	}
	return nil
}

// RetryDelay returns the pause between failed frame grabs.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Camera.RetryDelayMS) * time.Millisecond
}
