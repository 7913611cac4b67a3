// Package imageio converts frame buffers to and from OpenCV matrices and
// writes them as PNG or JPEG stills.
package imageio
