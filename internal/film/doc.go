// Package film holds the film gauge constants and the frame buffer type shared
// by the detector, the camera collaborators, and the writer.
//
// Formats carry the perforation aspect ratio and the frame-to-perforation
// multipliers from the gauge standards. Images are plain BGR byte
// buffers so they can be handed to OpenCV without conversion.
package film
