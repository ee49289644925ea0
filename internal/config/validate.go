package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSeparation(); err != nil {
		return err
	}
	if err := c.validateCut(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSeparation() error {
	switch c.Separation.DefaultComputeMode {
	case ComputeAuto, ComputeCPU, ComputeMPS, ComputeCUDA:
	default:
		return fmt.Errorf("separation.default_compute_mode: unsupported value %q", c.Separation.DefaultComputeMode)
	}
	if strings.ContainsAny(c.Separation.Model, `/\`) || strings.ContainsAny(c.Separation.Stem, `/\`) {
		return errors.New("separation.model and separation.stem must be plain directory names")
	}
	return nil
}

func (c *Config) validateCut() error {
	subdir := c.Cut.OutputSubdir
	if filepath.IsAbs(subdir) || strings.Contains(subdir, "..") {
		return fmt.Errorf("cut.output_subdir must be a relative directory name, got %q", subdir)
	}
	if c.Cut.CRF < 0 || c.Cut.CRF > 51 {
		return fmt.Errorf("cut.crf must be between 0 and 51, got %d", c.Cut.CRF)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
