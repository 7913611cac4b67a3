// Package registration closes the loop between perforation detection and
// the film transport. It centers frames on the ROI reference row,
// calibrates motor steps per frame in each direction, and advances frames
// with a feed-forward correction from the previous detection.
package registration
