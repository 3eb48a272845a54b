// Package sharpmem contains a driver for monochrome memory-in-pixel LCDs, such as the Sharp
// LS0xx series.
//
// These panels keep their image without refreshing, but they need the polarity of the common
// electrode (VCOM) inverted regularly to avoid a DC bias building up. Every [Display.Clear],
// [Display.Refresh] and [Display.Hold] inverts it exactly once; callers that draw less than about
// once per second should call Hold in between.
//
// A Display is not safe for concurrent use.
package sharpmem

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/sharpmem/framebuffer"
	"github.com/BeatGlow/sharpmem/pixel"
)

var debug bool

func init() {
	debug = os.Getenv("SHARPMEM_DEBUG") != ""
}

// Errors
var (
	ErrNoDispLine = errors.New("sharpmem: display enable (DISP) line is not configured")
	ErrHeight     = errors.New("sharpmem: height exceeds the 8-bit row address")
)

// Rotation defines pixel rotation.
type Rotation = framebuffer.Rotation

// Supported rotations.
const (
	NoRotation = framebuffer.NoRotation
	Rotate90   = framebuffer.Rotate90
	Rotate180  = framebuffer.Rotate180
	Rotate270  = framebuffer.Rotate270
)

// Config is the display configuration.
type Config struct {
	// Width of the display in pixels, a multiple of 8.
	Width int

	// Height of the display in pixels.
	Height int

	// Rotation of the display.
	Rotation Rotation

	// Disp is the optional display enable line.
	Disp Line

	// Logger receives transaction traces if SHARPMEM_DEBUG is set in the environment.
	Logger *slog.Logger
}

// DefaultConfig matches the 1.3" 144x168 panel.
var DefaultConfig = Config{
	Width:  LS013B7DH05.Width,
	Height: LS013B7DH05.Height,
}

// Display is a memory LCD with its frame buffer.
type Display struct {
	c      Conn
	fb     *framebuffer.FrameBuffer
	disp   Line
	log    *slog.Logger
	vcom   byte
	halted bool
}

// New allocates the frame buffer for the panel on c. No data is sent until the first Clear or
// Refresh.
func New(c Conn, config *Config) (*Display, error) {
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}

	width, height := config.Width, config.Height
	if width == 0 {
		width = DefaultConfig.Width
	}
	if height == 0 {
		height = DefaultConfig.Height
	}
	if height > maxRows {
		return nil, fmt.Errorf("%w: %d rows", ErrHeight, height)
	}

	fb, err := framebuffer.New(width, height)
	if err != nil {
		return nil, fmt.Errorf("sharpmem: %w", err)
	}
	fb.SetRotation(config.Rotation)

	d := &Display{
		c:    c,
		fb:   fb,
		disp: config.Disp,
		log:  config.Logger,
		vcom: vcomBit,
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	return d, nil
}

func (d *Display) String() string {
	size := d.fb.Size()
	return fmt.Sprintf("Sharp memory LCD %dx%d", size.X, size.Y)
}

// Buffer returns the frame buffer.
func (d *Display) Buffer() *framebuffer.FrameBuffer {
	return d.fb
}

// Close turns the display off, if a DISP line is configured, and closes the connection.
func (d *Display) Close() error {
	if d.disp != nil && !d.halted {
		if err := d.Show(false); err != nil {
			_ = d.c.Close()
			return err
		}
		d.halted = true
	}
	return d.c.Close()
}

// Show toggles the display on or off through the DISP line. The image is retained while off.
func (d *Display) Show(show bool) error {
	if d.disp == nil {
		return ErrNoDispLine
	}
	if err := d.disp.Out(gpio.Level(show)); err != nil {
		return fmt.Errorf("sharpmem: DISP line: %w", err)
	}
	d.halted = !show
	return nil
}

// SetPixel sets (on) or clears the pixel at (x, y). Out of bounds writes are ignored.
func (d *Display) SetPixel(x, y int, on bool) {
	d.fb.SetPixel(x, y, on)
}

// Pixel reports whether the pixel at (x, y) is set. Out of bounds pixels read as unset.
func (d *Display) Pixel(x, y int) bool {
	return d.fb.Pixel(x, y)
}

// Rotation returns the current rotation.
func (d *Display) Rotation() Rotation {
	return d.fb.Rotation()
}

// SetRotation adjusts the pixel rotation for subsequent pixel operations. The buffer and the
// panel are left as they are.
func (d *Display) SetRotation(r Rotation) {
	d.fb.SetRotation(r)
}

// Bounds is the display bounding box in rotated coordinates.
func (d *Display) Bounds() image.Rectangle {
	return d.fb.Bounds()
}

// ColorModel used by the display.
func (d *Display) ColorModel() color.Model {
	return pixel.MonoModel
}

// At returns the color of the pixel at (x, y).
func (d *Display) At(x, y int) color.Color {
	return d.fb.At(x, y)
}

// Set the pixel color at (x, y).
func (d *Display) Set(x, y int, c color.Color) {
	d.fb.Set(x, y, c)
}
