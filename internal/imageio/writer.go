package imageio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"telecine/internal/film"
)

// Supported output extensions.
var extensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Writer persists frames. The codec is picked from the file extension.
type Writer struct {
	jpegQuality int
	pngLevel    int
}

// NewWriter returns a writer with OpenCV's default codec parameters.
func NewWriter() *Writer {
	return &Writer{jpegQuality: 95, pngLevel: 3}
}

// Write encodes img to path, creating the parent directory.
func (w *Writer) Write(path string, img *film.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !extensions[ext] {
		return fmt.Errorf("write %s: unsupported extension %q", path, ext)
	}
	mat, err := ToMat(img)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer mat.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	var params []int
	if ext == ".png" {
		params = []int{int(gocv.IMWritePngCompression), w.pngLevel}
	} else {
		params = []int{int(gocv.IMWriteJpegQuality), w.jpegQuality}
	}
	if !gocv.IMWriteWithParams(path, mat, params) {
		return fmt.Errorf("write %s: encoder failed", path)
	}
	return nil
}

// Read decodes a still into an Image. Used by setup to work from a saved
// preview frame.
func Read(path string) (*film.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("read %s: no image data", path)
	}
	return FromMat(mat)
}
