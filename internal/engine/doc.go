// Package engine implements the target-size media compression loop.
//
// Given a source image or video and a size target (a percentage reduction
// or an absolute byte budget), the engine repeatedly re-encodes the file
// with adjusted parameters until the output fits the budget or the
// iteration cap runs out. The loop is shared between media kinds; only the
// parameter scheduler and the codec invoker differ:
//
//   - images are re-encoded in process with a stepped-down JPEG quality,
//     falling back to dimension downscaling for PNG sources once quality
//     alone cannot shrink the file further
//   - videos are re-encoded by an external ffmpeg process with a
//     geometrically decayed target bitrate
//
// Candidates are written to a temporary file next to the destination and
// either renamed into place (commit) or removed before the next attempt.
// Exactly one candidate exists at a time, and none survive the call except
// the committed result.
package engine
