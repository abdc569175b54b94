// Package media defines the track metadata model shared by source inspection,
// profile derivation, and the transform engines.
//
// TrackFormat is an immutable value: every numeric attribute is an Opt so a
// missing value is explicit rather than encoded as a sentinel. Kind matches a
// track by its mime type prefix ("audio/", "video/").
package media
