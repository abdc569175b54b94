package profile

import (
	"strings"
)

// Quality selects a bitrate policy for the output video track.
type Quality int

const (
	QualityVeryLow Quality = iota
	QualityLow
	QualityMedium
	QualityHigh
	QualityVeryHigh
)

// Policy binds a quality level to its bitrate multiplier and floor.
type Policy struct {
	Multiplier float64
	MinBitrate int
}

var policies = map[Quality]Policy{
	QualityVeryLow:  {Multiplier: 0.08, MinBitrate: 1_000_000},
	QualityLow:      {Multiplier: 0.10, MinBitrate: 1_000_000},
	QualityMedium:   {Multiplier: 0.20, MinBitrate: 1_500_000},
	QualityHigh:     {Multiplier: 0.30, MinBitrate: 2_000_000},
	QualityVeryHigh: {Multiplier: 0.50, MinBitrate: 3_000_000},
}

var qualityNames = map[Quality]string{
	QualityVeryLow:  "very_low",
	QualityLow:      "low",
	QualityMedium:   "medium",
	QualityHigh:     "high",
	QualityVeryHigh: "very_high",
}

// Qualities lists every level from lowest to highest.
func Qualities() []Quality {
	return []Quality{QualityVeryLow, QualityLow, QualityMedium, QualityHigh, QualityVeryHigh}
}

// ParseQuality maps caller text to a Quality. Matching ignores case, spaces,
// and the separator between words ("VERY_HIGH", "very-high", "veryhigh").
// Anything unrecognized, including the empty string, yields QualityLow.
func ParseQuality(value string) Quality {
	q, ok := LookupQuality(value)
	if !ok {
		return QualityLow
	}
	return q
}

// LookupQuality is ParseQuality without the fallback.
func LookupQuality(value string) (Quality, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	for q, name := range qualityNames {
		if strings.ReplaceAll(name, "_", "") == key {
			return q, true
		}
	}
	return QualityLow, false
}

// Policy returns the bitrate policy for q. Out-of-range values use the low policy.
func (q Quality) Policy() Policy {
	if p, ok := policies[q]; ok {
		return p
	}
	return policies[QualityLow]
}

func (q Quality) String() string {
	if name, ok := qualityNames[q]; ok {
		return name
	}
	return qualityNames[QualityLow]
}

// MarshalText renders the canonical lower-case name.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText parses with ParseQuality semantics.
func (q *Quality) UnmarshalText(text []byte) error {
	*q = ParseQuality(string(text))
	return nil
}
