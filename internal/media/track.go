package media

import (
	"fmt"
	"strings"
)

// Kind selects a track family by mime type prefix.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Matches reports whether mime belongs to this kind.
func (k Kind) Matches(mime string) bool {
	return k != "" && strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), string(k))
}

// TrackFormat describes one elementary stream in a container. Duration is in
// microseconds, Bitrate in bits per second, Rotation in clockwise degrees.
type TrackFormat struct {
	MimeType       string `json:"mimeType"`
	Width          Int    `json:"width"`
	Height         Int    `json:"height"`
	Bitrate        Int    `json:"bitrate"`
	FrameRate      Int    `json:"frameRate"`
	IFrameInterval Int    `json:"iFrameInterval"`
	Rotation       Int    `json:"rotation"`
	ChannelCount   Int    `json:"channelCount"`
	SampleRate     Int    `json:"sampleRate"`
	Duration       Int64  `json:"durationUs"`
}

// Kind returns the family the mime type belongs to, or "" for non-media tracks.
func (t TrackFormat) Kind() Kind {
	switch {
	case KindVideo.Matches(t.MimeType):
		return KindVideo
	case KindAudio.Matches(t.MimeType):
		return KindAudio
	default:
		return ""
	}
}

// Resolution renders WxH, or "unknown" when either dimension is missing.
func (t TrackFormat) Resolution() string {
	w, wok := t.Width.Get()
	h, hok := t.Height.Get()
	if !wok || !hok {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", w, h)
}

// VideoCodecAVC is the mime type of the single supported output video codec.
const VideoCodecAVC = "video/avc"
