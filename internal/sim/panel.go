// Package sim emulates a memory LCD panel on the far side of the three bus lines.
//
// The panel samples the data line on every rising clock edge while chip select is high and
// decodes the transaction when chip select drops, the way the real controller does. It is used
// to check the driver down to the bit level and to preview output in a terminal.
package sim

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// ErrSetup is reported when the data line changes while the clock is high.
var ErrSetup = errors.New("sim: data changed while clock high")

// Panel is an emulated memory LCD.
type Panel struct {
	width  int
	height int
	stride int
	mem    []byte

	clk  gpio.Level
	data gpio.Level
	cs   gpio.Level
	bits []bool

	// VCOM holds the polarity bit of every transaction, in order.
	VCOM []bool

	// Transaction counters.
	Frames int
	Clears int
	Holds  int

	err error

	// OnUpdate is called after every transaction.
	OnUpdate func()
}

// Line is one of the panel inputs.
type Line struct {
	name string
	out  func(gpio.Level)
}

func (l *Line) Out(level gpio.Level) error {
	l.out(level)
	return nil
}

func (l *Line) String() string {
	return l.name
}

// New returns a panel of width x height pixels. The panel powers up with every bit cleared.
func New(width, height int) *Panel {
	stride := (width + 7) / 8
	return &Panel{
		width:  width,
		height: height,
		stride: stride,
		mem:    make([]byte, stride*height),
	}
}

// Lines returns the clock (SCLK), data (SI) and chip select (SCS) inputs.
func (p *Panel) Lines() (clock, data, chipSelect *Line) {
	return &Line{"sim SCLK", p.setClock}, &Line{"sim SI", p.setData}, &Line{"sim SCS", p.setCS}
}

func (p *Panel) setClock(level gpio.Level) {
	if level && !p.clk && p.cs {
		p.bits = append(p.bits, bool(p.data))
	}
	p.clk = level
}

func (p *Panel) setData(level gpio.Level) {
	if p.cs && p.clk && level != p.data {
		p.setErr(ErrSetup)
	}
	p.data = level
}

func (p *Panel) setCS(level gpio.Level) {
	switch {
	case bool(level && !p.cs):
		p.bits = p.bits[:0]
	case bool(!level && p.cs):
		p.setErr(p.decode(p.bits))
		if p.OnUpdate != nil {
			p.OnUpdate()
		}
	}
	p.cs = level
}

func (p *Panel) setErr(err error) {
	if err != nil && p.err == nil {
		p.err = err
	}
}

// Err returns the first protocol violation seen since the previous call and resets it.
func (p *Panel) Err() error {
	err := p.err
	p.err = nil
	return err
}

// Size returns the panel dimensions.
func (p *Panel) Size() (width, height int) {
	return p.width, p.height
}

// Pixel reports whether the pixel at (x, y) is set (reflective).
func (p *Panel) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return false
	}
	return p.mem[y*p.stride+x/8]&(1<<uint(x%8)) != 0
}

// Bytes returns a copy of the panel memory, packed like the wire format.
func (p *Panel) Bytes() []byte {
	return append([]byte(nil), p.mem...)
}

func (p *Panel) decode(bits []bool) error {
	if len(bits) < 8 {
		return fmt.Errorf("sim: short transaction of %d bits", len(bits))
	}

	var (
		write = bits[0]
		vcom  = bits[1]
		clr   = bits[2]
	)
	p.VCOM = append(p.VCOM, vcom)

	switch {
	case clr:
		p.Clears++
		for i := range p.mem {
			p.mem[i] = 0xff
		}
		return expectTrailer(bits[8:], 8)
	case write:
		p.Frames++
		return p.decodeRows(bits[8:])
	default:
		p.Holds++
		return expectTrailer(bits[8:], 8)
	}
}

func (p *Panel) decodeRows(bits []bool) error {
	size := 8 + p.width + 8
	for len(bits) >= size {
		addr := lsbFirst(bits[:8])
		if addr == 0 || int(addr) > p.height {
			return fmt.Errorf("sim: invalid row address %d", addr)
		}

		row := p.mem[int(addr-1)*p.stride:]
		for x, on := range bits[8 : 8+p.width] {
			if on {
				row[x/8] |= 1 << uint(x%8)
			} else {
				row[x/8] &^= 1 << uint(x%8)
			}
		}
		if err := expectTrailer(bits[8+p.width:size], 8); err != nil {
			return fmt.Errorf("sim: row %d: %w", addr, err)
		}
		bits = bits[size:]
	}
	return expectTrailer(bits, 8)
}

func lsbFirst(bits []bool) (v byte) {
	for i, on := range bits {
		if on {
			v |= 1 << uint(i)
		}
	}
	return
}

func expectTrailer(bits []bool, n int) error {
	if len(bits) != n {
		return fmt.Errorf("sim: expected %d trailing bits, got %d", n, len(bits))
	}
	for _, on := range bits {
		if on {
			return errors.New("sim: trailing bits must be low")
		}
	}
	return nil
}
