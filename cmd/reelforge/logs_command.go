package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/apiclient"
	"reelforge/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs [job-id]",
		Short: "Show the daemon log, or the log of one job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, "reelforge.log")
			if len(args) == 1 {
				id := strings.TrimSpace(args[0])
				err := ctx.withClient(func(client *apiclient.Client) error {
					job, err := client.Job(cmd.Context(), id)
					if err != nil {
						return err
					}
					if job.LogPath == "" {
						return fmt.Errorf("job %s has no log file", id)
					}
					path = job.LogPath
					return nil
				})
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			followCtx := cmd.Context()
			if followCtx == nil {
				followCtx = context.Background()
			}
			return logs.Follow(followCtx, path, offset, 250*time.Millisecond, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}
