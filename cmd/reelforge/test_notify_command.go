package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to the configured ntfy topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
			if topic == "" {
				fmt.Fprintln(out, "Notifications not configured (set notifications.ntfy_topic)")
				return nil
			}
			svc := notifications.NewService(cfg)
			if err := svc.TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification to %s: %w", topic, err)
			}
			fmt.Fprintf(out, "Test notification sent to %s\n", topic)
			return nil
		},
	}
}
