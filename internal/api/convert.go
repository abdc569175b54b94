package api

import (
	"vidpress/internal/events"
	"vidpress/internal/jobs"
	"vidpress/internal/logging"
	"vidpress/internal/media"
)

// FromJob converts a supervisor snapshot into its DTO.
func FromJob(job jobs.Job) Job {
	return Job{
		RequestID:  job.RequestID,
		SourceURI:  job.SourceURI,
		OutputPath: job.OutputPath,
		State:      string(job.State),
		Progress:   job.Progress,
		Quality:    job.Quality.String(),
		Engine:     job.Engine,
		Debug:      job.Debug,
		Video:      FromTrack(job.Video),
		Audio:      FromTrack(job.Audio),
		Error:      job.Error,
		CreatedAt:  FormatTime(job.CreatedAt),
		UpdatedAt:  FormatTime(job.UpdatedAt),
	}
}

// FromJobs converts a slice of snapshots.
func FromJobs(list []jobs.Job) []Job {
	out := make([]Job, 0, len(list))
	for _, job := range list {
		out = append(out, FromJob(job))
	}
	return out
}

// FromTrack flattens an optional track format; unknown attributes become zero.
func FromTrack(t *media.TrackFormat) *TrackTarget {
	if t == nil {
		return nil
	}
	return &TrackTarget{
		MimeType:       t.MimeType,
		Width:          t.Width.Or(0),
		Height:         t.Height.Or(0),
		Bitrate:        t.Bitrate.Or(0),
		FrameRate:      t.FrameRate.Or(0),
		IFrameInterval: t.IFrameInterval.Or(0),
		Rotation:       t.Rotation.Or(0),
		ChannelCount:   t.ChannelCount.Or(0),
		SampleRate:     t.SampleRate.Or(0),
		DurationUs:     t.Duration.Or(0),
	}
}

// FromEnvelopes converts hub envelopes into client events.
func FromEnvelopes(envs []events.Envelope) []Event {
	out := make([]Event, 0, len(envs))
	for _, env := range envs {
		out = append(out, Event{
			Sequence:  env.Sequence,
			Name:      string(env.Name),
			Version:   env.Version,
			RequestID: env.RequestID,
			Timestamp: FormatTime(env.Timestamp),
			Payload:   env.Payload,
		})
	}
	return out
}

// FromLogEvents converts stream hub log lines.
func FromLogEvents(list []logging.LogEvent) []LogEvent {
	out := make([]LogEvent, 0, len(list))
	for _, evt := range list {
		out = append(out, LogEvent{
			Sequence:  evt.Sequence,
			Timestamp: FormatTime(evt.Timestamp),
			Level:     evt.Level,
			Message:   evt.Message,
			Component: evt.Component,
			RequestID: evt.RequestID,
			Engine:    evt.Engine,
			Fields:    evt.Fields,
		})
	}
	return out
}
