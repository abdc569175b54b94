package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"vidpress/internal/config"
	"vidpress/internal/logging"
	"vidpress/internal/media"
	"vidpress/internal/media/inspect"
	"vidpress/internal/profile"
	"vidpress/internal/services"
)

type sourceInspector interface {
	Inspect(ctx context.Context, uri string) (inspect.Source, error)
}

// newProbeInspector is swapped in tests.
var newProbeInspector = func(cfg *config.Config) sourceInspector {
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", OutputPaths: []string{"stderr"}})
	if err != nil {
		logger = logging.NewNop()
	}
	return inspect.New(cfg.FFprobeBinary(), logger)
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var quality string
	var keepResolution bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "probe <source>",
		Short: "Inspect a source and print the output profile vidpress would derive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source, err := resolveSource(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(quality) == "" {
				quality = cfg.Transcode.DefaultQuality
			}
			q, ok := profile.LookupQuality(quality)
			if !ok {
				return fmt.Errorf("unknown quality %q", quality)
			}
			keep := cfg.Transcode.KeepOriginalResolution
			if cmd.Flags().Changed("keep-resolution") {
				keep = keepResolution
			}

			src, err := newProbeInspector(cfg).Inspect(cmd.Context(), source)
			if err != nil {
				return probeError(err)
			}
			derived, err := profile.Derive(src, profile.Options{Quality: q, KeepOriginalResolution: keep})
			if err != nil {
				return probeError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, derived)
			}
			writeProbeReport(cmd.OutOrStdout(), src, derived, q)
			return nil
		},
	}

	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Quality preset (defaults to transcode.default_quality)")
	cmd.Flags().BoolVar(&keepResolution, "keep-resolution", false, "Keep the source resolution instead of downscaling")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the derived profile as JSON")
	return cmd
}

func probeError(err error) error {
	if hint := services.Hint(err); hint != "" {
		return fmt.Errorf("%w (hint: %s)", err, hint)
	}
	return err
}

func writeProbeReport(out io.Writer, src inspect.Source, derived profile.Profile, q profile.Quality) {
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Source", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := make([][]string, 0, src.Container.TrackCount())
	for i := 0; i < src.Container.TrackCount(); i++ {
		rows = append(rows, trackRow(fmt.Sprintf("#%d", i), src.Container.TrackFormat(i)))
	}
	fmt.Fprint(out, renderTable(trackHeaders, rows, trackAligns))
	fmt.Fprintln(out)
	if src.BitrateHint > 0 {
		fmt.Fprintf(out, "Container bitrate: %d kbps\n", src.BitrateHint/1000)
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader(fmt.Sprintf("Output (%s)", titleCase(q.String())), colorize) {
		fmt.Fprintln(out, line)
	}
	rows = rows[:0]
	if derived.Video != nil {
		rows = append(rows, trackRow("video", *derived.Video))
	}
	if derived.Audio != nil {
		rows = append(rows, trackRow("audio", *derived.Audio))
	}
	fmt.Fprint(out, renderTable(trackHeaders, rows, trackAligns))
	fmt.Fprintln(out)
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Decisions", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range derived.Trace {
		fmt.Fprintf(out, "%s%s\n", statusIndent, line)
	}
}

var (
	trackHeaders = []string{"Track", "Mime", "Resolution", "Bitrate", "FPS", "Rotation", "Channels", "Sample rate"}
	trackAligns  = []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
)

func trackRow(label string, t media.TrackFormat) []string {
	resolution := "-"
	if t.Kind() == media.KindVideo {
		resolution = t.Resolution()
	}
	return []string{label, t.MimeType, resolution, t.Bitrate.String(), t.FrameRate.String(), t.Rotation.String(), t.ChannelCount.String(), t.SampleRate.String()}
}
