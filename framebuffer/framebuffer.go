// Package framebuffer implements the packed 1-bit pixel store of a memory LCD.
//
// Pixels are stored row-major, one bit per pixel, with the leftmost pixel of every byte in the
// least significant bit. Scanline bytes are shifted out LSB first, so a row leaves the buffer in
// the order the panel expects without repacking.
//
// Callers address pixels in logical coordinates. The [Rotation] selects how logical coordinates
// map onto the physical buffer; the physical size never changes.
package framebuffer

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/BeatGlow/sharpmem/pixel"
)

// ErrSize is returned for buffer dimensions that can't be packed into whole bytes per row.
var ErrSize = errors.New("framebuffer: width must be a positive multiple of 8 and height positive")

// Bit masks indexed by the pixel position within its byte.
var (
	setMask = [8]byte{
		0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80,
	}
	clearMask = [8]byte{
		^byte(0x01), ^byte(0x02), ^byte(0x04), ^byte(0x08),
		^byte(0x10), ^byte(0x20), ^byte(0x40), ^byte(0x80),
	}
)

// FrameBuffer is a 1-bit per pixel image with rotation aware addressing.
type FrameBuffer struct {
	// Pix holds the packed pixels of all physical rows.
	Pix []byte

	// Stride is the number of bytes per physical row.
	Stride int

	width    int
	height   int
	rotation Rotation
}

// New allocates a zeroed buffer for a panel of width x height physical pixels.
func New(width, height int) (*FrameBuffer, error) {
	if width <= 0 || height <= 0 || width%8 != 0 {
		return nil, fmt.Errorf("%w, got %dx%d", ErrSize, width, height)
	}

	stride := width / 8
	return &FrameBuffer{
		Pix:    make([]byte, stride*height),
		Stride: stride,
		width:  width,
		height: height,
	}, nil
}

// Size returns the physical dimensions.
func (fb *FrameBuffer) Size() image.Point {
	return image.Pt(fb.width, fb.height)
}

// Bounds returns the logical bounding box, which has its axes swapped for 90° and 270°.
func (fb *FrameBuffer) Bounds() image.Rectangle {
	if fb.rotation.SwapsAxes() {
		return image.Rect(0, 0, fb.height, fb.width)
	}
	return image.Rect(0, 0, fb.width, fb.height)
}

// Rotation returns the current rotation.
func (fb *FrameBuffer) Rotation() Rotation {
	return fb.rotation
}

// SetRotation changes the logical to physical mapping for all subsequent pixel operations.
// Buffer contents are left untouched.
func (fb *FrameBuffer) SetRotation(r Rotation) {
	fb.rotation = r % 4
}

// Physical maps logical (x, y) to the physical buffer position. The ok result is false if
// (x, y) is outside of the logical bounds.
func (fb *FrameBuffer) Physical(x, y int) (px, py int, ok bool) {
	w, h := fb.width, fb.height
	if fb.rotation.SwapsAxes() {
		if x < 0 || y < 0 || x >= h || y >= w {
			return 0, 0, false
		}
	} else if x < 0 || y < 0 || x >= w || y >= h {
		return 0, 0, false
	}

	switch fb.rotation {
	case Rotate90:
		return w - 1 - y, x, true
	case Rotate180:
		return w - 1 - x, h - 1 - y, true
	case Rotate270:
		return y, h - 1 - x, true
	default:
		return x, y, true
	}
}

// SetPixel sets (on) or clears the pixel at logical (x, y). Out of bounds writes are ignored.
func (fb *FrameBuffer) SetPixel(x, y int, on bool) {
	px, py, ok := fb.Physical(x, y)
	if !ok {
		return
	}

	i := py*fb.Stride + px>>3
	if on {
		fb.Pix[i] |= setMask[px&7]
	} else {
		fb.Pix[i] &= clearMask[px&7]
	}
}

// Pixel reports whether the pixel at logical (x, y) is set. Out of bounds pixels read as unset.
func (fb *FrameBuffer) Pixel(x, y int) bool {
	px, py, ok := fb.Physical(x, y)
	if !ok {
		return false
	}
	return fb.Pix[py*fb.Stride+px>>3]&setMask[px&7] != 0
}

// Clear sets every bit, which is the state the panel shows after a hardware clear.
func (fb *FrameBuffer) Clear() {
	fb.Fill(true)
}

// Fill sets (on) or clears all pixels.
func (fb *FrameBuffer) Fill(on bool) {
	var value byte
	if on {
		value = 0xff
	}
	for i := range fb.Pix {
		fb.Pix[i] = value
	}
}

// Row returns the packed bytes of physical row y, in transmission order.
func (fb *FrameBuffer) Row(y int) []byte {
	off := y * fb.Stride
	return fb.Pix[off : off+fb.Stride]
}

// ColorModel returns [pixel.MonoModel].
func (fb *FrameBuffer) ColorModel() color.Model {
	return pixel.MonoModel
}

// At returns the color at logical (x, y); out of bounds pixels are [pixel.Off].
func (fb *FrameBuffer) At(x, y int) color.Color {
	if fb.Pixel(x, y) {
		return pixel.On
	}
	return pixel.Off
}

// Set the pixel at logical (x, y) to c, converted through [pixel.MonoModel].
func (fb *FrameBuffer) Set(x, y int, c color.Color) {
	fb.SetPixel(x, y, pixel.MonoModel.Convert(c).(pixel.Mono).On)
}
