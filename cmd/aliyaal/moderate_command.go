package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"aliyaal/internal/fileutil"
	"aliyaal/internal/moderation"
	"aliyaal/internal/subtitles"
)

const (
	formatAuto  = "auto"
	formatTable = "table"
	formatJSON  = "json"
)

type moderationReport struct {
	Input    string               `json:"input"`
	Subtitle string               `json:"subtitle"`
	Analysis *moderation.Analysis `json:"analysis,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func newModerateCommand(ctx *commandContext) *cobra.Command {
	var (
		rulesPath string
		format    string
		asJSON    bool
		write     bool
	)

	cmd := &cobra.Command{
		Use:   "moderate <video|srt|dir>...",
		Short: "Run the moderation rules over subtitle files",
		Long: "Run the moderation rules over the SRT sidecar of each video (or an .srt file " +
			"directly). Directories are scanned for supported videos.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog := strings.TrimSpace(rulesPath)
			if catalog == "" {
				catalog = cfg.Moderation.CatalogPath
			}
			engine, err := moderation.OpenEngine(catalog)
			if err != nil {
				return err
			}

			inputs, err := collectModerationInputs(args)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no supported inputs found (expected %s or .srt)", strings.Join(fileutil.SupportedVideoExtensions, ", "))
			}

			reports := make([]moderationReport, 0, len(inputs))
			failed := 0
			for _, input := range inputs {
				report := moderateInput(engine, input, write, time.Now())
				if report.Error != "" {
					failed++
				}
				reports = append(reports, report)
			}

			if asJSON {
				format = formatJSON
			}
			out := cmd.OutOrStdout()
			switch resolveFormat(format, out) {
			case formatJSON:
				if err := writeJSON(cmd, reports); err != nil {
					return err
				}
			case formatTable:
				fmt.Fprint(out, renderModerationReports(reports, shouldColorize(out)))
			default:
				return fmt.Errorf("unsupported format %q", format)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d inputs could not be analysed", failed, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML rule catalog replacing the built-in rules")
	cmd.Flags().StringVar(&format, "format", formatAuto, "Output format: auto, table, or json")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Shorthand for --format json")
	cmd.Flags().BoolVar(&write, "write", false, "Also write the .analysis.json sidecar next to each input")
	return cmd
}

// resolveFormat picks the table for terminals and JSON for pipes when the
// format is auto.
func resolveFormat(format string, out io.Writer) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" && format != formatAuto {
		return format
	}
	if isTerminal(out) {
		return formatTable
	}
	return formatJSON
}

func collectModerationInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", arg, err)
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}
		found, err := fileutil.DiscoverInputs(arg, fileutil.SupportedVideoExtensions)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", arg, err)
		}
		inputs = append(inputs, found...)
	}
	return inputs, nil
}

func moderateInput(engine *moderation.Engine, input string, write bool, now time.Time) moderationReport {
	sidecars := subtitles.ResolveSidecars(input)
	report := moderationReport{Input: input, Subtitle: sidecars.Subtitle}

	entries, err := subtitles.ParseFile(sidecars.Subtitle)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	analysis := moderation.NewAnalysis(engine.Analyze(entries, moderation.Settings{}), filepath.Base(input), now)
	report.Analysis = &analysis

	if write {
		if err := moderation.WriteAnalysis(sidecars.Analysis, analysis); err != nil {
			report.Error = err.Error()
		}
	}
	return report
}

func renderModerationReports(reports []moderationReport, colorize bool) string {
	var b strings.Builder
	for i, report := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, line := range renderSectionHeader(filepath.Base(report.Input), colorize) {
			b.WriteString(line + "\n")
		}
		if report.Error != "" {
			fmt.Fprintf(&b, "%s %s\n", statusCell(statusError, colorize), report.Error)
			if report.Analysis == nil {
				continue
			}
		}
		b.WriteString(report.Analysis.Summary + "\n")
		if len(report.Analysis.Flagged) == 0 {
			continue
		}
		rows := make([][]string, 0, len(report.Analysis.Flagged))
		for _, item := range report.Analysis.Flagged {
			rows = append(rows, []string{
				formatClock(item.StartTime),
				formatClock(item.EndTime),
				string(item.Priority),
				item.Category,
				item.Text,
				item.Reason,
			})
		}
		b.WriteString(renderTable(
			[]string{"Start", "End", "Priority", "Category", "Text", "Reason"},
			rows,
			[]columnAlignment{alignRight, alignRight},
			4, 5,
		))
		b.WriteString("\n")
	}
	return b.String()
}

// formatClock renders seconds as h:mm:ss.mmm.
func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds*1000+0.5) * time.Millisecond
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, d/time.Millisecond)
}
