package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/apiclient"
	"reelforge/internal/daemonctl"
)

const (
	defaultStartWait = 10 * time.Second
	defaultStopGrace = 35 * time.Second
)

type daemonFlags struct {
	logLevel  string
	startWait time.Duration
	stopGrace time.Duration
}

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newStartCommand(ctx),
		newStopCommand(ctx),
		newRestartCommand(ctx),
	}
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	flags := daemonFlags{startWait: defaultStartWait}
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the reelforge daemon in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			return startDaemon(cmd, ctx, client, flags)
		},
	}
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Override logging.level for the launched daemon")
	cmd.Flags().DurationVar(&flags.startWait, "wait", defaultStartWait, "How long to wait for the daemon to report healthy")
	return cmd
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	flags := daemonFlags{stopGrace: defaultStopGrace}
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the reelforge daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			_, err = stopDaemon(cmd, ctx, client, flags)
			return err
		},
	}
	cmd.Flags().DurationVar(&flags.stopGrace, "grace", defaultStopGrace, "Time allowed for in-flight renders before the daemon is killed")
	return cmd
}

func newRestartCommand(ctx *commandContext) *cobra.Command {
	flags := daemonFlags{startWait: defaultStartWait, stopGrace: defaultStopGrace}
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Stop the daemon if it is running, then start it again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if _, err := stopDaemon(cmd, ctx, client, flags); err != nil {
				return err
			}
			return startDaemon(cmd, ctx, client, flags)
		},
	}
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Override logging.level for the launched daemon")
	cmd.Flags().DurationVar(&flags.startWait, "wait", defaultStartWait, "How long to wait for the daemon to report healthy")
	cmd.Flags().DurationVar(&flags.stopGrace, "grace", defaultStopGrace, "Time allowed for in-flight renders before the daemon is killed")
	return cmd
}

func startDaemon(cmd *cobra.Command, ctx *commandContext, client *apiclient.Client, flags daemonFlags) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	opts := daemonctl.LaunchOptions{ConfigPath: ctx.configPath(), LogLevel: flags.logLevel}
	result, err := daemonctl.NewController(client, ctx.configValue()).Start(cmd.Context(), exe, opts, flags.startWait)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if result.State == daemonctl.StartStateAlreadyRunning {
		fmt.Fprintf(out, "Daemon already running (pid %d)\n", result.PID)
		return nil
	}
	if result.Launched {
		fmt.Fprintln(out, "Daemon not running, launching...")
	}
	fmt.Fprintf(out, "Daemon started (pid %d, %s)\n", result.PID, client.BaseURL())
	return nil
}

// stopDaemon reports whether a daemon was actually stopped. Finding nothing
// to stop is not an error.
func stopDaemon(cmd *cobra.Command, ctx *commandContext, client *apiclient.Client, flags daemonFlags) (bool, error) {
	result, err := daemonctl.NewController(client, ctx.configValue()).Stop(cmd.Context(), flags.stopGrace)
	out := cmd.OutOrStdout()
	switch {
	case errors.Is(err, daemonctl.ErrDaemonNotRunning):
		fmt.Fprintln(out, "Daemon is not running")
		return false, nil
	case err != nil:
		return false, err
	}
	reportStop(out, result)
	return true, nil
}

func reportStop(out io.Writer, result daemonctl.StopResult) {
	if result.ForcedKill {
		fmt.Fprintf(out, "Daemon did not exit in time; killed pid %d\n", result.PID)
	}
	fmt.Fprintln(out, "Daemon stopped")
}
