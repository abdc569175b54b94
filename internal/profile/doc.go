// Package profile derives output encoding parameters from source track
// metadata.
//
// Audio is passed through unchanged. Video is re-encoded to H.264/AVC with a
// bitrate chosen by the Quality policy table and, unless the caller keeps the
// original size, a resolution scaled down by a factor picked from the larger
// source dimension:
//
//	max(w,h) >= 1920  -> 0.50
//	max(w,h) >= 1280  -> 0.75
//	max(w,h) >= 960   -> 0.95
//	otherwise         -> 0.90
//
// Scaled dimensions are rounded to even integers. Frame rate, i-frame interval
// and rotation default to 30, 5 and 0 when the source does not report them.
package profile
