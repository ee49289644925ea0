package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeSeparation()
	c.normalizeEncoding()
	c.normalizeLogging()
	if c.Worker.MaxLineBytes <= 0 {
		c.Worker.MaxLineBytes = defaultMaxLineBytes
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.TempDir, err = expandPath(strings.TrimSpace(c.Paths.TempDir)); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if c.Separation.WorkDir, err = expandPath(strings.TrimSpace(c.Separation.WorkDir)); err != nil {
		return fmt.Errorf("separation.work_dir: %w", err)
	}
	if c.Moderation.CatalogPath, err = expandPath(strings.TrimSpace(c.Moderation.CatalogPath)); err != nil {
		return fmt.Errorf("moderation.catalog_path: %w", err)
	}
	return nil
}

// normalizeTools applies environment overrides on top of file values, then
// falls back to bare binary names resolved through PATH.
func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = toolValue(envFFmpegPath, c.Tools.FFmpeg, defaultFFmpegBinary)
	c.Tools.Demucs = toolValue(envDemucsPath, c.Tools.Demucs, defaultDemucsBinary)
	c.Tools.Yap = toolValue(envYapPath, c.Tools.Yap, defaultYapBinary)
}

func toolValue(envKey, configured, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	if value := strings.TrimSpace(configured); value != "" {
		return value
	}
	return fallback
}

func (c *Config) normalizeSeparation() {
	s := &c.Separation
	s.Model = defaultString(s.Model, defaultSeparationModel)
	s.Stem = defaultString(s.Stem, defaultSeparationStem)
	s.VocalsExt = strings.TrimPrefix(defaultString(s.VocalsExt, defaultVocalsExt), ".")
	s.DefaultComputeMode = strings.ToLower(defaultString(s.DefaultComputeMode, ComputeAuto))
	if s.Jobs <= 0 {
		s.Jobs = defaultSeparationJobs
	}
}

func (c *Config) normalizeEncoding() {
	c.Remux.AudioCodec = defaultString(c.Remux.AudioCodec, defaultAudioCodec)
	c.Remux.AudioBitrate = defaultString(c.Remux.AudioBitrate, defaultAudioBitrate)
	c.Cut.OutputSubdir = defaultString(c.Cut.OutputSubdir, defaultCutOutputSubdir)
	c.Cut.VideoCodec = defaultString(c.Cut.VideoCodec, defaultCutVideoCodec)
	c.Cut.Preset = strings.TrimSpace(c.Cut.Preset)
	c.Cut.AudioCodec = defaultString(c.Cut.AudioCodec, defaultAudioCodec)
	c.Cut.AudioBitrate = defaultString(c.Cut.AudioBitrate, defaultAudioBitrate)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(defaultString(c.Logging.Format, "console"))
	c.Logging.Level = strings.ToLower(defaultString(c.Logging.Level, "info"))
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
