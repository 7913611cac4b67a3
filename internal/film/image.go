package film

import "fmt"

// Channels is the number of bytes per pixel in an Image.
const Channels = 3

// Point is an integer pixel coordinate.
type Point struct {
	X, Y int
}

// Size is a width and height in pixels.
type Size struct {
	W, H int
}

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Image is an 8-bit, 3-channel frame buffer in BGR order.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewImage allocates a black image.
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// Size returns the image dimensions.
func (img *Image) Size() Size {
	return Size{W: img.Width, H: img.Height}
}

// Stride is the number of bytes in one row.
func (img *Image) Stride() int {
	return img.Width * Channels
}

// Luma returns the channel mean of the pixel at (x, y).
func (img *Image) Luma(x, y int) float64 {
	i := y*img.Stride() + x*Channels
	return (float64(img.Pix[i]) + float64(img.Pix[i+1]) + float64(img.Pix[i+2])) / Channels
}

// Set writes one pixel.
func (img *Image) Set(x, y int, b, g, r uint8) {
	i := y*img.Stride() + x*Channels
	img.Pix[i] = b
	img.Pix[i+1] = g
	img.Pix[i+2] = r
}

// Fill paints rect with a gray level, clipped to the image.
func (img *Image) Fill(rect Rect, level uint8) {
	clipped := img.Clip(rect)
	for y := clipped.Y; y < clipped.Y+clipped.H; y++ {
		for x := clipped.X; x < clipped.X+clipped.W; x++ {
			img.Set(x, y, level, level, level)
		}
	}
}

// Clip returns the intersection of rect with the image bounds.
func (img *Image) Clip(rect Rect) Rect {
	x0 := clamp(rect.X, 0, img.Width)
	y0 := clamp(rect.Y, 0, img.Height)
	x1 := clamp(rect.X+rect.W, x0, img.Width)
	y1 := clamp(rect.Y+rect.H, y0, img.Height)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Crop copies the clipped region into a new image.
func (img *Image) Crop(rect Rect) (*Image, error) {
	clipped := img.Clip(rect)
	if clipped.Empty() {
		return nil, fmt.Errorf("crop %+v lies outside %dx%d image", rect, img.Width, img.Height)
	}
	out := NewImage(clipped.W, clipped.H)
	rowBytes := clipped.W * Channels
	for row := 0; row < clipped.H; row++ {
		src := (clipped.Y+row)*img.Stride() + clipped.X*Channels
		copy(out.Pix[row*rowBytes:(row+1)*rowBytes], img.Pix[src:src+rowBytes])
	}
	return out, nil
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	out := &Image{Width: img.Width, Height: img.Height, Pix: make([]uint8, len(img.Pix))}
	copy(out.Pix, img.Pix)
	return out
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
