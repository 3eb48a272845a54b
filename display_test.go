package sharpmem

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/BeatGlow/sharpmem/internal/sim"
	"github.com/BeatGlow/sharpmem/pixel"
)

type testWrite struct {
	V   byte
	MSB bool
}

func msb(v byte) testWrite { return testWrite{v, true} }
func lsb(v byte) testWrite { return testWrite{v, false} }

// testConn records the writes of every transaction.
type testConn struct {
	selected bool
	tx       [][]testWrite
	stray    int
	err      error
	closed   bool
}

func (c *testConn) String() string { return "test" }

func (c *testConn) Close() error {
	c.closed = true
	return nil
}

func (c *testConn) Select(selected bool) {
	if selected && !c.selected {
		c.tx = append(c.tx, nil)
	}
	c.selected = selected
}

func (c *testConn) write(w testWrite) {
	if !c.selected {
		c.stray++
		return
	}
	c.tx[len(c.tx)-1] = append(c.tx[len(c.tx)-1], w)
}

func (c *testConn) WriteMSB(v byte) { c.write(msb(v)) }
func (c *testConn) WriteLSB(v byte) { c.write(lsb(v)) }

func (c *testConn) Err() error {
	err := c.err
	c.err = nil
	return err
}

func (c *testConn) last() []testWrite {
	return c.tx[len(c.tx)-1]
}

func newTestDisplay(t *testing.T, width, height int) (*Display, *testConn) {
	t.Helper()
	c := new(testConn)
	d, err := New(c, &Config{Width: width, Height: height})
	require.NoError(t, err)
	return d, c
}

func TestNew(t *testing.T) {
	t.Run("default", func(it *testing.T) {
		d, err := New(new(testConn), nil)
		require.NoError(it, err)
		assert.Equal(it, image.Pt(144, 168), d.Buffer().Size())
		assert.Equal(it, "Sharp memory LCD 144x168", d.String())
		assert.Equal(it, byte(vcomBit), d.vcom)
	})
	t.Run("zero size uses default", func(it *testing.T) {
		d, err := New(new(testConn), &Config{Rotation: Rotate90})
		require.NoError(it, err)
		assert.Equal(it, image.Rect(0, 0, 168, 144), d.Bounds())
		assert.Equal(it, Rotate90, d.Rotation())
	})
	t.Run("panel", func(it *testing.T) {
		d, err := New(new(testConn), LS027B7DH01.Config())
		require.NoError(it, err)
		assert.Equal(it, image.Pt(400, 240), d.Buffer().Size())
		assert.Len(it, d.Buffer().Pix, 400*240/8)
	})
	t.Run("invalid width", func(it *testing.T) {
		_, err := New(new(testConn), &Config{Width: 12, Height: 8})
		assert.Error(it, err)
	})
	t.Run("too many rows", func(it *testing.T) {
		_, err := New(new(testConn), &Config{Width: 8, Height: 256})
		assert.ErrorIs(it, err, ErrHeight)
	})
}

func TestClear(t *testing.T) {
	d, c := newTestDisplay(t, 16, 8)

	for y := 0; y < 8; y++ {
		d.SetPixel(y, y, false)
	}
	require.NoError(t, d.Clear())

	require.Len(t, c.tx, 1)
	assert.Equal(t, []testWrite{msb(cmdClear | vcomBit), lsb(0x00)}, c.last())
	assert.False(t, c.selected)
	assert.Zero(t, c.stray)

	for _, r := range []Rotation{NoRotation, Rotate90, Rotate180, Rotate270} {
		d.SetRotation(r)
		b := d.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				require.True(t, d.Pixel(x, y), "pixel (%d,%d) at %s", x, y, r)
			}
		}
	}

	// Second clear carries the inverted polarity.
	require.NoError(t, d.Clear())
	assert.Equal(t, []testWrite{msb(cmdClear), lsb(0x00)}, c.last())
}

func TestRefreshFraming(t *testing.T) {
	d, c := newTestDisplay(t, 8, 2)
	copy(d.Buffer().Pix, []byte{0xAA, 0x55})

	require.NoError(t, d.Refresh())

	require.Len(t, c.tx, 1)
	assert.Equal(t, []testWrite{
		msb(cmdWrite | vcomBit),
		lsb(0x01), lsb(0xAA), lsb(0x00),
		lsb(0x02), lsb(0x55), lsb(0x00),
		msb(0x00),
	}, c.last())
	assert.False(t, c.selected)
	assert.Zero(t, c.stray)
}

func TestRefreshRows(t *testing.T) {
	d, c := newTestDisplay(t, 24, 3)
	for i := range d.Buffer().Pix {
		d.Buffer().Pix[i] = byte(i + 1)
	}

	require.NoError(t, d.Refresh())

	tx := c.last()
	require.Len(t, tx, 1+3*(1+3+1)+1)
	for row := 0; row < 3; row++ {
		line := tx[1+row*5 : 1+(row+1)*5]
		assert.Equal(t, []testWrite{
			lsb(byte(row + 1)),
			lsb(byte(row*3 + 1)), lsb(byte(row*3 + 2)), lsb(byte(row*3 + 3)),
			lsb(0x00),
		}, line, "row %d", row)
	}
}

func TestRefreshIgnoresRotation(t *testing.T) {
	d, c := newTestDisplay(t, 8, 2)
	copy(d.Buffer().Pix, []byte{0x0f, 0xf0})

	d.SetRotation(Rotate180)
	require.NoError(t, d.Refresh())

	tx := c.last()
	assert.Equal(t, lsb(0x0f), tx[2])
	assert.Equal(t, lsb(0xf0), tx[5])
}

func TestHold(t *testing.T) {
	d, c := newTestDisplay(t, 8, 8)
	copy(d.Buffer().Pix, []byte{1, 2, 3})

	require.NoError(t, d.Hold())
	assert.Equal(t, []testWrite{msb(vcomBit), lsb(0x00)}, c.last())
	require.NoError(t, d.Hold())
	assert.Equal(t, []testWrite{msb(0x00), lsb(0x00)}, c.last())
	assert.Equal(t, []byte{1, 2, 3}, d.Buffer().Pix[:3])
}

func TestPolarityAlternation(t *testing.T) {
	d, c := newTestDisplay(t, 16, 16)

	ops := []func() error{d.Clear, d.Refresh, d.Hold}
	for i := 0; i < 50; i++ {
		require.NoError(t, ops[rand.Intn(len(ops))]())
	}

	require.Len(t, c.tx, 50)
	for i, tx := range c.tx {
		want := i%2 == 0
		got := tx[0].V&vcomBit != 0
		require.True(t, tx[0].MSB)
		require.Equal(t, want, got, "transaction %d", i)
	}
}

func TestErrorPropagation(t *testing.T) {
	d, c := newTestDisplay(t, 8, 2)
	failure := errors.New("bus failure")

	c.err = failure
	assert.ErrorIs(t, d.Refresh(), failure)
	// The frame was still sent in full and polarity advanced.
	assert.Len(t, c.last(), 8)
	assert.Equal(t, byte(0), d.vcom)

	c.err = failure
	assert.ErrorIs(t, d.Clear(), failure)
	assert.NoError(t, d.Hold())
}

func TestDrawImage(t *testing.T) {
	d, _ := newTestDisplay(t, 16, 8)
	assert.Equal(t, pixel.MonoModel, d.ColorModel())

	d.Set(3, 2, color.White)
	assert.True(t, d.Pixel(3, 2))
	assert.Equal(t, pixel.On, d.At(3, 2))

	d.Set(3, 2, color.Black)
	assert.False(t, d.Pixel(3, 2))

	d.SetPixel(100, 100, true)
	assert.False(t, d.Pixel(100, 100))
	assert.Equal(t, pixel.Off, d.At(-1, 0))
}

func TestShowAndClose(t *testing.T) {
	t.Run("no disp", func(it *testing.T) {
		d, c := newTestDisplay(it, 8, 8)
		assert.ErrorIs(it, d.Show(true), ErrNoDispLine)
		require.NoError(it, d.Close())
		assert.True(it, c.closed)
	})
	t.Run("disp", func(it *testing.T) {
		var (
			c    = new(testConn)
			disp = &gpiotest.Pin{N: "DISP"}
		)
		d, err := New(c, &Config{Width: 8, Height: 8, Disp: disp})
		require.NoError(it, err)

		require.NoError(it, d.Show(true))
		assert.Equal(it, gpio.High, disp.Read())

		require.NoError(it, d.Close())
		assert.Equal(it, gpio.Low, disp.Read())
		assert.True(it, c.closed)
	})
}

func TestDebugLogging(t *testing.T) {
	var (
		buf    bytes.Buffer
		logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		c      = new(testConn)
	)
	d, err := New(c, &Config{Width: 8, Height: 2, Logger: logger})
	require.NoError(t, err)

	saved := debug
	debug = true
	defer func() { debug = saved }()

	require.NoError(t, d.Refresh())
	require.NoError(t, d.Clear())
	require.NoError(t, d.Hold())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `msg="sharpmem: refresh" rows=2 vcom=true`)
	assert.Contains(t, lines[1], `msg="sharpmem: clear" vcom=false`)
	assert.Contains(t, lines[2], `msg="sharpmem: hold" vcom=true`)
}

// TestWire runs the display over a bit-banged bus into the emulated panel.
func TestWire(t *testing.T) {
	const width, height = 32, 24

	var (
		panel           = sim.New(width, height)
		clk, data, cs   = panel.Lines()
		c, err          = OpenGPIO(&GPIOConfig{Clock: clk, Data: data, ChipSelect: cs})
		sequence        []bool
		wantTransaction int
	)
	require.NoError(t, err)

	d, err := New(c, &Config{Width: width, Height: height})
	require.NoError(t, err)

	for _, r := range []Rotation{NoRotation, Rotate90, Rotate180, Rotate270} {
		t.Run(r.String(), func(it *testing.T) {
			d.SetRotation(r)

			require.NoError(it, d.Clear())
			require.NoError(it, panel.Err())
			for _, v := range panel.Bytes() {
				require.Equal(it, byte(0xff), v)
			}
			sequence = append(sequence, d.vcom == 0)

			b := d.Bounds()
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					d.SetPixel(x, y, rand.Intn(3) == 0)
				}
			}
			require.NoError(it, d.Refresh())
			require.NoError(it, panel.Err())
			sequence = append(sequence, d.vcom == 0)
			wantTransaction += 2

			assert.Equal(it, d.Buffer().Pix, panel.Bytes())
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					px, py, ok := d.Buffer().Physical(x, y)
					require.True(it, ok)
					require.Equal(it, d.Pixel(x, y), panel.Pixel(px, py), "pixel (%d,%d)", x, y)
				}
			}
		})
	}

	require.NoError(t, d.Hold())
	sequence = append(sequence, d.vcom == 0)
	wantTransaction++

	assert.Equal(t, sequence, panel.VCOM)
	assert.Equal(t, 4, panel.Clears)
	assert.Equal(t, 4, panel.Frames)
	assert.Equal(t, 1, panel.Holds)
	assert.Len(t, panel.VCOM, wantTransaction)
}
