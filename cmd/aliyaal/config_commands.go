package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"aliyaal/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Scaffold or check the worker's TOML settings",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the annotated sample settings file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := sampleTarget(targetPath)
			if err != nil {
				return err
			}
			if err := ensureWritable(target, overwrite); err != nil {
				return err
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sample settings written: %s\n", target)
			fmt.Fprintln(out, "Next: fill in [tools] (or export AIYAAL_FFMPEG_PATH, AIYAAL_DEMUCS_PATH, AIYAAL_YAP_PATH), then run `aliyaal deps`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "File to create (default ~/.config/aliyaal/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the file if one is already there")
	return cmd
}

func sampleTarget(flagValue string) (string, error) {
	if value := strings.TrimSpace(flagValue); value != "" {
		target, err := config.ExpandPath(value)
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", value, err)
		}
		return target, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("locate settings file: %w", err)
	}
	return target, nil
}

func ensureWritable(target string, overwrite bool) error {
	if overwrite {
		return nil
	}
	_, err := os.Stat(target)
	switch {
	case err == nil:
		return fmt.Errorf("%s already exists; pass --overwrite to replace it", target)
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("inspect %s: %w", target, err)
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the settings and show what the worker will use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			source := ctx.configPath
			if !ctx.configSeen {
				source += " (not found, built-in defaults)"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Settings: %s\n", source)
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, effectiveSettings(cfg), nil))
			fmt.Fprintln(out, "Settings OK")
			return nil
		},
	}
}

func effectiveSettings(cfg *config.Config) [][]string {
	catalog := cfg.Moderation.CatalogPath
	if catalog == "" {
		catalog = "built-in rules"
	}
	logFile := "stderr only"
	if cfg.Logging.File {
		logFile = cfg.LogFilePath()
	}
	return [][]string{
		{"tools.ffmpeg", cfg.Tools.FFmpeg},
		{"tools.demucs", cfg.Tools.Demucs},
		{"tools.yap", cfg.Tools.Yap},
		{"separation.model", cfg.Separation.Model},
		{"separation.default_compute_mode", cfg.Separation.DefaultComputeMode},
		{"cut.output_subdir", cfg.Cut.OutputSubdir},
		{"moderation.catalog_path", catalog},
		{"worker.max_line_bytes", strconv.Itoa(cfg.Worker.MaxLineBytes)},
		{"logging", cfg.Logging.Level + " / " + cfg.Logging.Format},
		{"log file", logFile},
	}
}
