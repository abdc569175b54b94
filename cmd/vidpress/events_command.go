package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"vidpress/internal/api"
	"vidpress/internal/config"
	"vidpress/internal/events"
	"vidpress/internal/ipc"
	"vidpress/internal/logs"
)

// followWaitMillis stays below the daemon's long-poll cap.
const followWaitMillis = 25000

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var requestID string
	var since uint64
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print job lifecycle events",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.EventsRequest{Since: since, Limit: limit, RequestID: strings.TrimSpace(requestID)}
			run := func(fetch eventFetcher) error {
				if !follow {
					resp, err := fetch(req)
					if err != nil {
						return fmt.Errorf("fetch events: %w", err)
					}
					if jsonOutput {
						return writeJSON(cmd, resp)
					}
					if len(resp.Events) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No events available")
						return nil
					}
					for _, evt := range resp.Events {
						writeEvent(cmd.OutOrStdout(), evt, false)
					}
					return nil
				}
				_, err := followEvents(cmd, fetch, req, false)
				return err
			}

			if fetch, ok := apiEventFetcher(cmd, ctx.configValue()); ok {
				if _, err := fetch(ipc.EventsRequest{Limit: 1}); err == nil {
					return run(fetch)
				} else if !logs.IsAPIUnavailable(err) {
					return err
				}
			}
			return ctx.withClient(func(client *ipc.Client) error {
				return run(client.Events)
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new events")
	cmd.Flags().StringVar(&requestID, "request", "", "Only show events for this request id")
	cmd.Flags().Uint64Var(&since, "since", 0, "Only show events after this sequence number")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum events per fetch")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output raw JSON")
	return cmd
}

type eventFetcher func(ipc.EventsRequest) (*ipc.EventsResponse, error)

// apiEventFetcher reads events over the HTTP API when one is configured.
func apiEventFetcher(cmd *cobra.Command, cfg *config.Config) (eventFetcher, bool) {
	if cfg == nil {
		return nil, false
	}
	client, err := logs.NewStreamClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
	if err != nil || client == nil {
		return nil, false
	}
	return func(req ipc.EventsRequest) (*ipc.EventsResponse, error) {
		resp, err := client.FetchEvents(cmd.Context(), logs.EventQuery{
			Since:     req.Since,
			Limit:     req.Limit,
			Wait:      req.WaitMillis > 0,
			RequestID: req.RequestID,
		})
		if err != nil {
			return nil, err
		}
		return &resp, nil
	}, true
}

// followEvents long-polls the daemon and prints events until the command
// context ends or, with untilTerminal, a terminal event for req.RequestID
// arrives. It returns the name of the last printed event.
func followEvents(cmd *cobra.Command, fetch eventFetcher, req ipc.EventsRequest, untilTerminal bool) (string, error) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	last := ""
	req.WaitMillis = followWaitMillis
	for {
		resp, err := fetch(req)
		if err != nil {
			return last, fmt.Errorf("fetch events: %w", err)
		}
		for _, evt := range resp.Events {
			writeEvent(out, evt, false)
			last = evt.Name
			if untilTerminal && events.Kind(evt.Name).Terminal() {
				return last, nil
			}
		}
		req.Since = resp.Next
		if ctx != nil {
			select {
			case <-ctx.Done():
				return last, nil
			default:
			}
		}
	}
}

func writeEvent(out io.Writer, evt api.Event, raw bool) {
	if raw {
		data, err := json.Marshal(evt)
		if err == nil {
			fmt.Fprintln(out, string(data))
		}
		return
	}
	fmt.Fprintf(out, "%s #%d %-12s %s%s\n", evt.Timestamp, evt.Sequence, evt.Name, evt.RequestID, eventDetail(evt))
}

func eventDetail(evt api.Event) string {
	var payload struct {
		Progress   *float64 `json:"progress"`
		OutputPath string   `json:"outputPath"`
		Error      *string  `json:"error"`
		Message    string   `json:"message"`
	}
	if len(evt.Payload) == 0 || json.Unmarshal(evt.Payload, &payload) != nil {
		return ""
	}
	switch events.Kind(evt.Name) {
	case events.KindProgress:
		if payload.Progress != nil {
			return fmt.Sprintf(" %.1f%%", *payload.Progress)
		}
	case events.KindCompleted:
		return " -> " + payload.OutputPath
	case events.KindFailed:
		if payload.Error != nil {
			return ": " + *payload.Error
		}
		return ": unknown error"
	case events.KindDebug:
		return " " + payload.Message
	}
	return ""
}
