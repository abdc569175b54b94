package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vidpress/internal/api"
	"vidpress/internal/config"
	"vidpress/internal/ipc"
)

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var requestID string
	var quality string
	var output string
	var keepResolution bool
	var debug bool
	var wait bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "compress <source>",
		Aliases: []string{"submit"},
		Short:   "Submit a transcode job to the daemon",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := resolveSource(args[0])
			if err != nil {
				return err
			}
			req := ipc.JobStartRequest{
				RequestID: strings.TrimSpace(requestID),
				SourceURI: source,
				Quality:   strings.TrimSpace(quality),
				Debug:     debug,
			}
			if req.RequestID == "" {
				req.RequestID = uuid.NewString()
			}
			if output != "" {
				target, err := config.ExpandPath(output)
				if err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
				req.TargetPath = target
			}
			if cmd.Flags().Changed("keep-resolution") {
				req.KeepOriginalResolution = &keepResolution
			}

			return ctx.withClient(func(client *ipc.Client) error {
				var since uint64
				if wait {
					if status, err := client.Status(); err == nil {
						since = status.LastEvent
					}
				}
				resp, err := client.StartJob(req)
				if err != nil {
					return fmt.Errorf("start job: %w", err)
				}
				if resp.Error != "" {
					return rejectionError(resp)
				}
				if jsonOutput && !wait {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job %s accepted\n", resp.RequestID)
				fmt.Fprintf(out, "Output: %s\n", resp.OutputPath)
				if !wait {
					return nil
				}
				last, err := followEvents(cmd, client.Events, ipc.EventsRequest{Since: since, RequestID: resp.RequestID}, true)
				if err != nil {
					return err
				}
				if last == "onFailure" {
					return fmt.Errorf("job %s failed", resp.RequestID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&requestID, "id", "", "Request identifier (defaults to a random UUID)")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Quality preset: very_low, low, medium, high, very_high")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (defaults to the scratch directory)")
	cmd.Flags().BoolVar(&keepResolution, "keep-resolution", false, "Keep the source resolution instead of downscaling")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log per-request derivation details")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Follow job events until it finishes")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func resolveSource(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("source is required")
	}
	if strings.Contains(arg, "://") {
		return arg, nil
	}
	return filepath.Abs(arg)
}

func rejectionError(resp *ipc.JobStartResponse) error {
	msg := resp.Error
	if resp.Hint != "" {
		msg = fmt.Sprintf("%s (hint: %s)", msg, resp.Hint)
	}
	if resp.Code != "" {
		msg = fmt.Sprintf("[%s] %s", resp.Code, msg)
	}
	return errors.New(msg)
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <request-id>",
		Short: "Cancel a running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CancelJob(strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("cancel job: %w", err)
				}
				if resp.Live {
					fmt.Fprintf(cmd.OutOrStdout(), "Cancellation requested for %s\n", resp.RequestID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "No running job %s\n", resp.RequestID)
				}
				return nil
			})
		},
	}
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var recent bool
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List running jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ListJobs(recent)
				if err != nil {
					return fmt.Errorf("list jobs: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(out, "No running jobs")
				} else {
					fmt.Fprint(out, renderJobTable(resp.Jobs))
					fmt.Fprintln(out)
				}
				if recent {
					fmt.Fprintln(out, "Recently finished:")
					if len(resp.Recent) == 0 {
						fmt.Fprintln(out, "  none")
						return nil
					}
					fmt.Fprint(out, renderJobTable(resp.Recent))
					fmt.Fprintln(out)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&recent, "recent", "r", false, "Include recently finished jobs")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderJobTable(jobs []api.Job) string {
	table := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		table = append(table, []string{
			job.RequestID,
			titleCase(job.State),
			fmt.Sprintf("%.0f%%", job.Progress),
			job.Quality,
			trackSummary(job.Video),
			filepath.Base(job.SourceURI),
		})
	}
	return renderTable(
		[]string{"Request", "State", "Progress", "Quality", "Video", "Source"},
		table,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <request-id>",
		Short: "Show details for a running or recently finished job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DescribeJob(strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("describe job: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Job)
				}
				writeJobDetails(cmd.OutOrStdout(), resp.Job)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func writeJobDetails(out io.Writer, job api.Job) {
	rows := [][]string{
		{"Request", job.RequestID},
		{"State", titleCase(job.State)},
		{"Progress", fmt.Sprintf("%.1f%%", job.Progress)},
		{"Engine", job.Engine},
		{"Quality", job.Quality},
		{"Debug", yesNo(job.Debug)},
		{"Source", job.SourceURI},
		{"Output", job.OutputPath},
		{"Video", trackSummary(job.Video)},
		{"Audio", audioSummary(job.Audio)},
		{"Created", job.CreatedAt},
		{"Updated", job.UpdatedAt},
	}
	if job.Error != "" {
		rows = append(rows, []string{"Error", job.Error})
	}
	fmt.Fprint(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
	fmt.Fprintln(out)
}

func trackSummary(t *api.TrackTarget) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s %dx%d @ %d kbps, %d fps", t.MimeType, t.Width, t.Height, t.Bitrate/1000, t.FrameRate)
}

func audioSummary(t *api.TrackTarget) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s %d ch @ %d Hz", t.MimeType, t.ChannelCount, t.SampleRate)
}

func titleCase(value string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(value, "_", " "))
}
