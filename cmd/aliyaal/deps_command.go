package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aliyaal/internal/config"
	"aliyaal/internal/deps"
	"aliyaal/internal/device"
	"aliyaal/internal/preflight"
)

type depsReport struct {
	ConfigPath   string             `json:"configPath"`
	ComputeMode  string             `json:"computeMode"`
	Device       string             `json:"device"`
	Dependencies []deps.Status      `json:"dependencies"`
	Directories  []preflight.Result `json:"directories"`
	Ready        bool               `json:"ready"`
}

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check media binaries, compute device, and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := buildDepsReport(cfg, ctx.configPath, device.Resolve)
			if asJSON {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderDepsReport(report, shouldColorize(cmd.OutOrStdout())))
			}
			if !report.Ready {
				return fmt.Errorf("worker is not ready: %s", missingSummary(report))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func buildDepsReport(cfg *config.Config, configPath string, resolve func(string) string) depsReport {
	mode := cfg.Separation.DefaultComputeMode
	if strings.TrimSpace(mode) == "" {
		mode = config.ComputeAuto
	}
	report := depsReport{
		ConfigPath:   configPath,
		ComputeMode:  mode,
		Device:       resolve(mode),
		Dependencies: preflight.CheckSystemDeps(cfg),
		Directories:  preflight.RunAll(cfg),
	}
	report.Ready = len(deps.Missing(report.Dependencies)) == 0 && len(preflight.Failed(report.Directories)) == 0
	return report
}

func renderDepsReport(report depsReport, colorize bool) string {
	var b strings.Builder
	for _, line := range renderSectionHeader("Dependencies", colorize) {
		b.WriteString(line + "\n")
	}
	b.WriteString(renderTable(
		[]string{"Name", "Status", "Command", "Detail", "Used for"},
		dependencyRows(report.Dependencies, colorize),
		nil,
	))
	b.WriteString("\n\n")

	for _, line := range renderSectionHeader("Directories", colorize) {
		b.WriteString(line + "\n")
	}
	b.WriteString(renderTable([]string{"Name", "Status", "Detail"}, checkRows(report.Directories, colorize), nil))
	b.WriteString("\n\n")

	for _, line := range renderSectionHeader("Compute", colorize) {
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "Mode:   %s\n", report.ComputeMode)
	fmt.Fprintf(&b, "Device: %s\n", report.Device)
	fmt.Fprintf(&b, "Ready:  %s\n", yesNo(report.Ready))
	return b.String()
}

func missingSummary(report depsReport) string {
	var names []string
	for _, s := range deps.Missing(report.Dependencies) {
		names = append(names, s.Name)
	}
	for _, r := range preflight.Failed(report.Directories) {
		names = append(names, r.Name)
	}
	return strings.Join(names, ", ")
}
