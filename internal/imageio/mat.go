package imageio

import (
	"fmt"

	"gocv.io/x/gocv"

	"telecine/internal/film"
)

// ToMat copies img into a new 8-bit BGR Mat. The caller closes it.
func ToMat(img *film.Image) (gocv.Mat, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return gocv.NewMat(), fmt.Errorf("empty image")
	}
	mat, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, img.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("wrap image: %w", err)
	}
	return mat, nil
}

// FromMat copies an 8-bit Mat into an Image. Grey and BGRA inputs are
// converted to BGR.
func FromMat(mat gocv.Mat) (*film.Image, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty frame")
	}
	src := mat
	switch mat.Channels() {
	case 3:
	case 1, 4:
		code := gocv.ColorGrayToBGR
		if mat.Channels() == 4 {
			code = gocv.ColorBGRAToBGR
		}
		converted := gocv.NewMat()
		defer converted.Close()
		gocv.CvtColor(mat, &converted, code)
		src = converted
	default:
		return nil, fmt.Errorf("unsupported channel count %d", mat.Channels())
	}
	if src.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("unsupported mat type %v", src.Type())
	}
	img := film.NewImage(src.Cols(), src.Rows())
	copy(img.Pix, src.ToBytes())
	return img, nil
}
