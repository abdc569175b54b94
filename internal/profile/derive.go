package profile

import (
	"fmt"
	"math"

	"vidpress/internal/media"
	"vidpress/internal/media/inspect"
	"vidpress/internal/services"
)

const (
	DefaultFrameRate      = 30
	DefaultIFrameInterval = 5
	DefaultRotation       = 0
)

// Options controls derivation for one request.
type Options struct {
	Quality                Quality
	KeepOriginalResolution bool
}

// Profile is the derived output format. A nil track is omitted from the output.
type Profile struct {
	Video *media.TrackFormat `json:"video,omitempty"`
	Audio *media.TrackFormat `json:"audio,omitempty"`
	// Trace records each derivation decision in order.
	Trace []string `json:"trace,omitempty"`
}

// Derive inspects the source's first video and audio tracks and computes
// their output formats. A source with neither track is a source read failure.
func Derive(source inspect.Source, opts Options) (Profile, error) {
	var p Profile
	tr := &Trace{}

	if video, ok := source.Video(); ok {
		target := DeriveVideoTarget(video, source.BitrateHint, opts.Quality, opts.KeepOriginalResolution, tr)
		p.Video = &target
	} else {
		tr.Add("no video track in source; output has no video")
	}
	if audio, ok := source.Audio(); ok {
		target := DeriveAudioTarget(audio)
		tr.Add("audio: pass-through %s channels=%s sample_rate=%s", target.MimeType, target.ChannelCount, target.SampleRate)
		p.Audio = &target
	} else {
		tr.Add("no audio track in source; output has no audio")
	}

	p.Trace = tr.Lines
	if p.Video == nil && p.Audio == nil {
		return p, services.Wrap(services.ErrSourceRead, "profile", "derive", "source has no audio or video track", nil)
	}
	return p, nil
}

// DeriveAudioTarget copies the source audio format unchanged for re-encapsulation.
func DeriveAudioTarget(src media.TrackFormat) media.TrackFormat {
	return media.TrackFormat{
		MimeType:     src.MimeType,
		ChannelCount: src.ChannelCount,
		SampleRate:   src.SampleRate,
		Duration:     src.Duration,
		Bitrate:      src.Bitrate,
	}
}

// DeriveVideoTarget computes the H.264 output format for a source video track.
// tr may be nil.
func DeriveVideoTarget(src media.TrackFormat, bitrateHint int64, q Quality, keepOriginalResolution bool, tr *Trace) media.TrackFormat {
	out := media.TrackFormat{
		MimeType:       media.VideoCodecAVC,
		Duration:       src.Duration,
		FrameRate:      media.Some(src.FrameRate.Or(DefaultFrameRate)),
		IFrameInterval: media.Some(src.IFrameInterval.Or(DefaultIFrameInterval)),
		Rotation:       media.Some(src.Rotation.Or(DefaultRotation)),
	}
	if !src.FrameRate.Known() {
		tr.Add("video: frame rate unknown, using default %d", DefaultFrameRate)
	}

	policy := q.Policy()
	bitrate := ResolveBitrate(bitrateHint, q)
	switch {
	case bitrateHint <= 0:
		tr.Add("video: bitrate hint unavailable, using %s minimum %d", q, policy.MinBitrate)
	case bitrateHint < int64(policy.MinBitrate):
		tr.Add("video: source bitrate %d below %s minimum %d, keeping source bitrate", bitrateHint, q, policy.MinBitrate)
	default:
		tr.Add("video: bitrate %d = max(%d * %.2f, %d)", bitrate, bitrateHint, policy.Multiplier, policy.MinBitrate)
	}
	out.Bitrate = media.Some(bitrate)

	out.Width, out.Height = ResolveResolution(src.Width, src.Height, keepOriginalResolution)
	switch {
	case keepOriginalResolution:
		tr.Add("video: keeping original resolution %s", src.Resolution())
	case !src.Width.Known() && !src.Height.Known():
		tr.Add("video: source resolution unknown, leaving output size to the engine")
	default:
		tr.Add("video: scaling %s by %.2f to %s", src.Resolution(), ScaleFactor(maxKnown(src.Width, src.Height)), out.Resolution())
	}
	tr.Add("video: codec %s frame_rate=%s i_frame_interval=%s rotation=%s", out.MimeType, out.FrameRate, out.IFrameInterval, out.Rotation)
	return out
}

// ResolveBitrate applies the quality policy to a container bitrate hint.
// Non-positive hints yield the policy minimum, hints below the minimum are
// kept as-is, and everything else is max(floor(hint * multiplier), minimum).
func ResolveBitrate(hint int64, q Quality) int {
	policy := q.Policy()
	if hint <= 0 {
		return policy.MinBitrate
	}
	if hint < int64(policy.MinBitrate) {
		return int(hint)
	}
	scaled := int(math.Floor(float64(hint) * policy.Multiplier))
	return max(scaled, policy.MinBitrate)
}

// ScaleFactor returns the downscale factor for a frame whose larger dimension is maxDim.
func ScaleFactor(maxDim int) float64 {
	switch {
	case maxDim >= 1920:
		return 0.5
	case maxDim >= 1280:
		return 0.75
	case maxDim >= 960:
		return 0.95
	default:
		return 0.9
	}
}

// ResolveResolution scales width and height by ScaleFactor of the larger
// dimension and rounds each to an even integer. Unknown dimensions stay unknown.
func ResolveResolution(width, height media.Int, keepOriginal bool) (media.Int, media.Int) {
	if keepOriginal {
		return width, height
	}
	if !width.Known() && !height.Known() {
		return width, height
	}
	factor := ScaleFactor(maxKnown(width, height))
	scale := func(v media.Int) media.Int {
		n, ok := v.Get()
		if !ok {
			return v
		}
		return media.Some(EvenRound(float64(n) * factor))
	}
	return scale(width), scale(height)
}

// EvenRound rounds x half-up to an integer and bumps odd results to the next
// even integer, as H.264 4:2:0 requires even dimensions.
func EvenRound(x float64) int {
	r := int(math.Floor(x + 0.5))
	return (r + 1) &^ 1
}

func maxKnown(a, b media.Int) int {
	return max(a.Or(0), b.Or(0))
}

// Trace collects human-readable derivation decisions. A nil Trace discards them.
type Trace struct {
	Lines []string
}

// Add appends a formatted decision line.
func (t *Trace) Add(format string, args ...any) {
	if t == nil {
		return
	}
	t.Lines = append(t.Lines, fmt.Sprintf(format, args...))
}
