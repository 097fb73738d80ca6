package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kmzgen/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test email through the configured SMTP relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.NotificationsEnabled() {
				return fmt.Errorf("notifications are not configured; set smtp_host, from, and to in the config file")
			}

			svc := notifications.NewService(cfg)
			if err := svc.TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent to %d recipient(s)\n", len(cfg.Notifications.To))
			return nil
		},
	}
}
