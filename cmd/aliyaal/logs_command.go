package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"aliyaal/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines       int
		follow      bool
		operationID string
		jobID       string
		component   string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the worker log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogFilePath()
			if path == "" {
				return errors.New("file logging is disabled (set [logging] file = true)")
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			return logs.Tail(signalCtx, path, logs.TailOptions{
				Limit:  lines,
				Follow: follow,
				Filter: logs.Filter{OperationID: operationID, JobID: jobID, Component: component},
			}, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&operationID, "operation", "", "Only show records for this batch or task id")
	cmd.Flags().StringVar(&jobID, "job", "", "Only show records for this job id")
	cmd.Flags().StringVar(&component, "component", "", "Only show records from this component (worker, pipeline, protocol)")
	return cmd
}
