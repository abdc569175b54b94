package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vidpress/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Publish a test message to the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if resp == nil {
					if err == nil {
						err = errors.New("daemon returned no notification result")
					}
					return fmt.Errorf("test notification: %w", err)
				}
				if jsonOutput {
					if encErr := writeJSON(cmd, resp); encErr != nil {
						return encErr
					}
					return err
				}

				out := cmd.OutOrStdout()
				message := resp.Message
				if message == "" {
					message = "test notification not sent"
				}
				fmt.Fprintln(out, message)
				if err != nil {
					return fmt.Errorf("test notification: %w", err)
				}
				if !resp.Sent {
					where := ctx.configPath()
					if where == "" {
						where = "the config file"
					}
					fmt.Fprintf(out, "Set notifications.ntfy_topic in %s or export VIDPRESS_NTFY_TOPIC, then restart the daemon\n", where)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the daemon's response as JSON")
	return cmd
}
