package jobs

import (
	"time"

	"vidpress/internal/media"
	"vidpress/internal/profile"
)

// Options are the per-request transcode settings.
type Options struct {
	Quality                profile.Quality
	TargetPath             string
	KeepOriginalResolution bool
	DebugEnabled           bool
}

// Job is a point-in-time snapshot of a job.
type Job struct {
	RequestID  string             `json:"requestId"`
	SourceURI  string             `json:"sourceUri"`
	OutputPath string             `json:"outputPath"`
	State      State              `json:"state"`
	Progress   float64            `json:"progress"`
	Quality    profile.Quality    `json:"quality"`
	Engine     string             `json:"engine"`
	Debug      bool               `json:"debug,omitempty"`
	Video      *media.TrackFormat `json:"video,omitempty"`
	Audio      *media.TrackFormat `json:"audio,omitempty"`
	Error      string             `json:"error,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// Elapsed returns the time between creation and the last update.
func (j Job) Elapsed() time.Duration {
	if j.CreatedAt.IsZero() || j.UpdatedAt.Before(j.CreatedAt) {
		return 0
	}
	return j.UpdatedAt.Sub(j.CreatedAt)
}
