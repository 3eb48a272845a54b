package sharpmem

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Conn errors.
var (
	ErrClockLine = errors.New("sharpmem: clock (SCLK) line is invalid")
	ErrDataLine  = errors.New("sharpmem: data (SI) line is invalid")
	ErrCSLine    = errors.New("sharpmem: chip select (SCS) line is invalid")
)

// Line is a digital output line.
//
// Any periph.io [gpio.PinOut] is a Line, as is [RPIOPin].
type Line interface {
	Out(gpio.Level) error
}

// Conn is the connection interface for communicating with the panel.
//
// Writes never fail individually and never abort a transaction half way; a failing line is
// reported by Err once the caller is done with the transaction.
type Conn interface {
	String() string

	// Close the connection.
	Close() error

	// Select asserts (true) or releases (false) chip select. The panel selects on high.
	Select(bool)

	// WriteMSB sends one byte, most significant bit first.
	WriteMSB(byte)

	// WriteLSB sends one byte, least significant bit first.
	WriteLSB(byte)

	// Err returns the first failure since the previous call to Err and resets it.
	Err() error
}

// Bus is a bit-banged serial bus over three GPIO lines.
//
// Data is set up while the clock is low and latched by the panel on the rising edge. The
// clock is low between bytes, which are the only points where the bus is in a valid idle
// state.
type Bus struct {
	clk  Line
	data Line
	cs   Line
	err  error
}

// NewBus returns a bus that drives the given lines.
func NewBus(clock, data, chipSelect Line) *Bus {
	return &Bus{
		clk:  clock,
		data: data,
		cs:   chipSelect,
	}
}

func (b *Bus) String() string {
	return fmt.Sprintf("GPIO bus (SCLK %v, SI %v, SCS %v)", b.clk, b.data, b.cs)
}

// Close releases chip select. The lines are owned by the caller and stay open.
func (b *Bus) Close() error {
	b.out(b.cs, gpio.Low)
	return b.Err()
}

func (b *Bus) out(line Line, level gpio.Level) {
	if err := line.Out(level); err != nil && b.err == nil {
		b.err = err
	}
}

func (b *Bus) Select(selected bool) {
	b.out(b.cs, gpio.Level(selected))
}

func (b *Bus) WriteMSB(v byte) {
	for i := 0; i < 8; i++ {
		b.out(b.clk, gpio.Low)
		b.out(b.data, v&0x80 != 0)
		b.out(b.clk, gpio.High)
		v <<= 1
	}
	b.out(b.clk, gpio.Low)
}

func (b *Bus) WriteLSB(v byte) {
	for i := 0; i < 8; i++ {
		b.out(b.clk, gpio.Low)
		b.out(b.data, v&0x01 != 0)
		b.out(b.clk, gpio.High)
		v >>= 1
	}
	b.out(b.clk, gpio.Low)
}

func (b *Bus) Err() error {
	err := b.err
	b.err = nil
	return err
}

// GPIOConfig describes the bit-banged bus lines.
//
// A nil line is looked up by its pin name in the periph.io registry, after initializing the
// periph.io host drivers.
type GPIOConfig struct {
	Clock      Line
	Data       Line
	ChipSelect Line

	ClockPin      string
	DataPin       string
	ChipSelectPin string
}

// DefaultGPIOConfig drives the Raspberry Pi SPI0 header pins as plain GPIO.
var DefaultGPIOConfig = GPIOConfig{
	ClockPin:      "GPIO11",
	DataPin:       "GPIO10",
	ChipSelectPin: "GPIO8",
}

// OpenGPIO opens a bit-banged bus. The bus is left idle: chip select and clock low, data high.
//
// Chip select idles low from the start, since the panel selects on high; it is not raised
// during setup as some Arduino drivers do, so the panel never sees a selected bus before the
// first transaction.
func OpenGPIO(config *GPIOConfig) (Conn, error) {
	if config == nil {
		config = new(GPIOConfig)
		*config = DefaultGPIOConfig
	}

	var (
		c   = *config
		err error
	)
	if c.Clock == nil || c.Data == nil || c.ChipSelect == nil {
		if _, err = host.Init(); err != nil {
			return nil, fmt.Errorf("sharpmem: periph host init: %w", err)
		}
	}
	if c.Clock, err = lookupLine(c.Clock, c.ClockPin, ErrClockLine); err != nil {
		return nil, err
	}
	if c.Data, err = lookupLine(c.Data, c.DataPin, ErrDataLine); err != nil {
		return nil, err
	}
	if c.ChipSelect, err = lookupLine(c.ChipSelect, c.ChipSelectPin, ErrCSLine); err != nil {
		return nil, err
	}

	b := NewBus(c.Clock, c.Data, c.ChipSelect)
	b.out(b.cs, gpio.Low)
	b.out(b.clk, gpio.Low)
	b.out(b.data, gpio.High)
	if err = b.Err(); err != nil {
		return nil, fmt.Errorf("sharpmem: GPIO bus setup: %w", err)
	}
	return b, nil
}

func lookupLine(line Line, name string, invalid error) (Line, error) {
	if line != nil {
		return line, nil
	}
	if name == "" {
		return nil, invalid
	}
	pin := gpioreg.ByName(name)
	if pin == nil || pin == gpio.INVALID {
		return nil, fmt.Errorf("%w: pin %q not found", invalid, name)
	}
	return pin, nil
}

// Interface checks.
var (
	_ Conn = (*Bus)(nil)
	_ Line = (gpio.PinOut)(nil)
)
