// Package capture runs a scan across a frame range.
//
// For each frame the Runner captures an image (or a bracketed pair), asks the
// perforation detector where the sprocket hole is, crops the picture area
// relative to it and hands the crop to a single writer goroutine through a
// bounded queue. It then asks the registration loop to advance one frame,
// feeding forward the error of the detection it just made.
//
// A failed detection never loses a frame: the full image is saved with a
// "failed-" prefix and, when an earlier frame was detected, a fallback crop
// is taken at that frame's perforation position so the numbered sequence has
// no gap. MaxConsecutiveFailures misses in a row abort the job with an
// *AbortError, since the transport has most likely slipped or the lamp failed.
//
// The queue applies backpressure. When the writer falls behind, capture
// blocks instead of dropping or reordering frames. On every exit path the
// queue is closed and drained before the lamp is switched off and the
// transport released.
package capture
