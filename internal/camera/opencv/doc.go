// Package opencv implements camera.Camera on an OpenCV VideoCapture.
package opencv
