package inspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"os"
	"strings"

	"vidpress/internal/logging"
	"vidpress/internal/media"
	"vidpress/internal/media/ffprobe"
	"vidpress/internal/services"
)

// ErrTrackNotFound reports that no track of the requested kind exists.
var ErrTrackNotFound = errors.New("track not found")

// Container exposes a source's tracks in index order.
type Container interface {
	TrackCount() int
	TrackFormat(index int) media.TrackFormat
}

// Tracks is a Container backed by a slice.
type Tracks []media.TrackFormat

func (t Tracks) TrackCount() int { return len(t) }

func (t Tracks) TrackFormat(index int) media.TrackFormat { return t[index] }

// SourceTrackFormat returns the first track, in index order, whose mime type
// matches kind.
func SourceTrackFormat(c Container, kind media.Kind) (media.TrackFormat, error) {
	if c == nil {
		return media.TrackFormat{}, ErrTrackNotFound
	}
	for i := 0; i < c.TrackCount(); i++ {
		track := c.TrackFormat(i)
		if kind.Matches(track.MimeType) {
			return track, nil
		}
	}
	return media.TrackFormat{}, ErrTrackNotFound
}

// Source is an inspected input: its tracks plus container-level metadata.
type Source struct {
	URI       string
	Path      string
	Container Container
	// BitrateHint is the container bitrate in bits per second, 0 when unknown.
	BitrateHint int64
}

// Video returns the first video track.
func (s Source) Video() (media.TrackFormat, bool) {
	track, err := SourceTrackFormat(s.Container, media.KindVideo)
	return track, err == nil
}

// Audio returns the first audio track.
func (s Source) Audio() (media.TrackFormat, bool) {
	track, err := SourceTrackFormat(s.Container, media.KindAudio)
	return track, err == nil
}

type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Inspector reads sources with ffprobe.
type Inspector struct {
	binary string
	probe  probeFunc
	logger *slog.Logger
}

// New constructs an Inspector that runs the given ffprobe binary.
func New(binary string, logger *slog.Logger) *Inspector {
	return &Inspector{
		binary: binary,
		probe:  ffprobe.Inspect,
		logger: logging.NewComponentLogger(logger, "inspect"),
	}
}

// Inspect opens the source and reads its track metadata. Any failure is
// tagged services.ErrSourceRead.
func (i *Inspector) Inspect(ctx context.Context, uri string) (Source, error) {
	path, err := ResolvePath(uri)
	if err != nil {
		return Source{}, services.Wrap(services.ErrSourceRead, "inspect", "resolve", uri, err)
	}
	if !isRemote(path) {
		info, err := os.Stat(path)
		if err != nil {
			return Source{}, services.Wrap(services.ErrSourceRead, "inspect", "stat", path, err)
		}
		if info.IsDir() {
			return Source{}, services.Wrap(services.ErrSourceRead, "inspect", "stat", path+" is a directory", nil)
		}
	}

	result, err := i.probe(ctx, i.binary, path)
	if err != nil {
		return Source{}, services.Wrap(services.ErrSourceRead, "inspect", "ffprobe", path, err)
	}

	source := FromProbe(uri, path, result)
	logging.WithContext(ctx, i.logger).Debug("source inspected",
		logging.String("source", path),
		logging.Int("tracks", source.Container.TrackCount()),
		logging.Int64("bitrate_hint", source.BitrateHint),
	)
	return source, nil
}

// ResolvePath turns a caller URI into something ffprobe and ffmpeg accept.
// file:// URIs become local paths; http(s) URLs pass through unchanged.
func ResolvePath(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", errors.New("empty source uri")
	}
	if !strings.Contains(uri, "://") {
		return uri, nil
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse source uri: %w", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "file":
		if parsed.Path == "" {
			return "", fmt.Errorf("file uri %q has no path", uri)
		}
		return parsed.Path, nil
	case "http", "https":
		return uri, nil
	default:
		return "", fmt.Errorf("unsupported source scheme %q", parsed.Scheme)
	}
}

func isRemote(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// FromProbe converts ffprobe output into a Source with tracks in stream index order.
func FromProbe(uri, path string, result ffprobe.Result) Source {
	containerDuration := result.DurationSeconds()
	tracks := make(Tracks, 0, len(result.Streams))
	for _, stream := range result.Streams {
		tracks = append(tracks, trackFromStream(stream, containerDuration))
	}
	return Source{
		URI:         uri,
		Path:        path,
		Container:   tracks,
		BitrateHint: result.BitRate(),
	}
}

func trackFromStream(s ffprobe.Stream, containerDuration float64) media.TrackFormat {
	track := media.TrackFormat{MimeType: MimeType(s.CodecType, s.CodecName)}

	duration := s.DurationSeconds()
	if duration <= 0 || math.IsNaN(duration) {
		duration = containerDuration
	}
	if duration > 0 && !math.IsNaN(duration) {
		track.Duration = media.Some(int64(math.Round(duration * 1e6)))
	}
	if rate := s.BitRateBps(); rate > 0 {
		track.Bitrate = media.Some(int(rate))
	}

	switch strings.ToLower(s.CodecType) {
	case "video":
		if s.Width > 0 {
			track.Width = media.Some(s.Width)
		}
		if s.Height > 0 {
			track.Height = media.Some(s.Height)
		}
		if fps, ok := s.FrameRate(); ok {
			track.FrameRate = media.Some(int(math.Round(fps)))
		}
		if rot, ok := s.RotationDegrees(); ok {
			track.Rotation = media.Some(rot)
		}
	case "audio":
		if s.Channels > 0 {
			track.ChannelCount = media.Some(s.Channels)
		}
		if hz := s.SampleRateHz(); hz > 0 {
			track.SampleRate = media.Some(hz)
		}
	}
	return track
}

var videoMimes = map[string]string{
	"h264":       "video/avc",
	"hevc":       "video/hevc",
	"vp8":        "video/x-vnd.on2.vp8",
	"vp9":        "video/x-vnd.on2.vp9",
	"av1":        "video/av01",
	"mpeg4":      "video/mp4v-es",
	"h263":       "video/3gpp",
	"mpeg2video": "video/mpeg2",
}

var audioMimes = map[string]string{
	"aac":    "audio/mp4a-latm",
	"mp3":    "audio/mpeg",
	"opus":   "audio/opus",
	"vorbis": "audio/vorbis",
	"flac":   "audio/flac",
	"ac3":    "audio/ac3",
	"eac3":   "audio/eac3",
	"amr_nb": "audio/3gpp",
	"amr_wb": "audio/amr-wb",
}

// MimeType maps an ffprobe codec type and name to a mime type.
func MimeType(codecType, codecName string) string {
	codecType = strings.ToLower(strings.TrimSpace(codecType))
	codecName = strings.ToLower(strings.TrimSpace(codecName))
	switch codecType {
	case "video":
		if mime, ok := videoMimes[codecName]; ok {
			return mime
		}
	case "audio":
		if mime, ok := audioMimes[codecName]; ok {
			return mime
		}
		if strings.HasPrefix(codecName, "pcm_") {
			return "audio/raw"
		}
	case "subtitle":
		return "text/" + fallbackName(codecName)
	case "", "data", "attachment":
		return "application/" + fallbackName(codecName)
	}
	return codecType + "/" + fallbackName(codecName)
}

func fallbackName(codecName string) string {
	if codecName == "" {
		return "unknown"
	}
	return codecName
}
