package main

import (
	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	groupDaemon = "daemon"
	groupJobs   = "jobs"
	groupSetup  = "setup"
)

func newRootCommand() *cobra.Command {
	var apiFlag, configFlag string
	ctx := newCommandContext(&apiFlag, &configFlag)

	root := &cobra.Command{
		Use:           "reelforge",
		Short:         "Turn scene scripts into narrated videos",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&apiFlag, "api", "", "Daemon API address (defaults to paths.api_bind)")

	root.AddGroup(
		&cobra.Group{ID: groupDaemon, Title: "Daemon:"},
		&cobra.Group{ID: groupJobs, Title: "Render jobs:"},
		&cobra.Group{ID: groupSetup, Title: "Setup and diagnostics:"},
	)
	addGrouped(root, groupDaemon, newDaemonCommands(ctx)...)
	addGrouped(root, groupDaemon, newServeCommand(ctx), newLogsCommand(ctx))
	addGrouped(root, groupJobs, newJobCommands(ctx)...)
	addGrouped(root, groupJobs, newScriptCommand(ctx))
	addGrouped(root, groupSetup, newConfigCommand(ctx), newDoctorCommand(ctx), newTestNotifyCommand(ctx))
	return root
}

func addGrouped(parent *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.GroupID = group
		parent.AddCommand(cmd)
	}
}
