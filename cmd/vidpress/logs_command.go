package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"vidpress/internal/api"
	"vidpress/internal/config"
	"vidpress/internal/ipc"
	"vidpress/internal/logs"
)

type logFetcher func(ipc.LogTailRequest) (*ipc.LogTailResponse, error)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var requestID string
	var component string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.LogTailRequest{
				Limit:     lines,
				Tail:      true,
				RequestID: strings.TrimSpace(requestID),
				Component: strings.TrimSpace(component),
			}
			if req.Limit <= 0 {
				req.Limit = 200
			}

			if fetch, ok := apiLogFetcher(cmd, ctx.configValue()); ok {
				err := streamLogs(cmd, fetch, req, follow)
				if err == nil || !logs.IsAPIUnavailable(errors.Unwrap(err)) {
					return err
				}
			}
			return ctx.withClient(func(client *ipc.Client) error {
				return streamLogs(cmd, client.LogTail, req, follow)
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of recent lines to show")
	cmd.Flags().StringVar(&requestID, "request", "", "Only show lines for this request id")
	cmd.Flags().StringVar(&component, "component", "", "Only show lines from this component")
	return cmd
}

func apiLogFetcher(cmd *cobra.Command, cfg *config.Config) (logFetcher, bool) {
	if cfg == nil {
		return nil, false
	}
	client, err := logs.NewStreamClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
	if err != nil || client == nil {
		return nil, false
	}
	return func(req ipc.LogTailRequest) (*ipc.LogTailResponse, error) {
		resp, err := client.FetchLogs(cmd.Context(), logs.LogQuery{
			Since:     req.Since,
			Limit:     req.Limit,
			Follow:    req.Follow,
			Tail:      req.Tail,
			Component: req.Component,
			RequestID: req.RequestID,
		})
		if err != nil {
			return nil, err
		}
		return &resp, nil
	}, true
}

func streamLogs(cmd *cobra.Command, fetch logFetcher, req ipc.LogTailRequest, follow bool) error {
	ctx := cmd.Context()
	printed := false
	for {
		resp, err := fetch(req)
		if err != nil {
			return fmt.Errorf("tail logs: %w", err)
		}
		if resp == nil {
			return errors.New("log tail response missing")
		}
		for _, evt := range resp.Events {
			fmt.Fprintln(cmd.OutOrStdout(), formatLogEvent(evt))
			printed = true
		}
		if !follow {
			if !printed {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
			}
			return nil
		}
		req.Since = resp.Next
		req.Tail = false
		req.Follow = true
		req.WaitMillis = followWaitMillis
		req.Limit = 200
		if ctx != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
		}
	}
}

func formatLogEvent(evt api.LogEvent) string {
	var b strings.Builder
	b.WriteString(evt.Timestamp)
	b.WriteString(" ")
	b.WriteString(strings.ToUpper(evt.Level))
	if evt.Component != "" {
		b.WriteString(" [")
		b.WriteString(evt.Component)
		b.WriteString("]")
	}
	if evt.RequestID != "" {
		b.WriteString(" (")
		b.WriteString(evt.RequestID)
		b.WriteString(")")
	}
	b.WriteString(" ")
	b.WriteString(evt.Message)
	writeFields(&b, evt.Fields)
	return b.String()
}

func writeFields(w io.StringWriter, fields map[string]string) {
	if len(fields) == 0 {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = w.WriteString(" " + k + "=" + fields[k])
	}
}
