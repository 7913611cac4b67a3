// Package camera defines the capture contract used by registration and the
// job runner. It has no cgo dependencies; the OpenCV device lives in
// camera/opencv.
package camera
