// Package perforation locates sprocket holes in captured frames.
//
// The detector works on 1-D luminance profiles taken through a region of
// interest beside the frame. Holes show as the brightest band because the
// lamp shines straight through them. Detection yields the hole position and
// the signed vertical error against the ROI reference row, which drives the
// registration servo.
package perforation
