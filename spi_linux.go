package sharpmem

import (
	"fmt"
	"io"
	"math/bits"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/sharpmem/conn"
)

type spiWriter interface {
	io.WriteCloser
	fmt.Stringer
}

type spiConn struct {
	bus       spiWriter
	cs        Line
	batchSize int
	buf       []byte
	err       error
}

// OpenSPI opens a connection over a Linux spidev device.
//
// Chip select is driven through a GPIO line so a frame may span several writes. All bytes of
// a transaction are buffered and written when chip select is released.
func OpenSPI(config *SPIConfig) (Conn, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}

	c := *config
	if c.SpeedHz == 0 {
		c.SpeedHz = DefaultSPIConfig.SpeedHz
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultSPIConfig.BatchSize
	}
	if !validSPISpeed(c.SpeedHz) {
		return nil, fmt.Errorf("sharpmem: invalid SPI speed %dHz", c.SpeedHz)
	}

	if c.ChipSelect == nil {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("sharpmem: periph host init: %w", err)
		}
	}
	cs, err := lookupLine(c.ChipSelect, c.ChipSelectPin, ErrCSLine)
	if err != nil {
		return nil, err
	}

	bus, err := conn.OpenSPI(c.Bus, c.Device)
	if err != nil {
		return nil, err
	}
	if err = bus.Configure(conn.SPIMode0|conn.SPINoCS, 8, c.SpeedHz); err != nil {
		_ = bus.Close()
		return nil, err
	}
	if err = cs.Out(gpio.Low); err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("sharpmem: SPI chip select setup: %w", err)
	}

	return &spiConn{
		bus:       bus,
		cs:        cs,
		batchSize: int(c.BatchSize),
	}, nil
}

func (c *spiConn) String() string {
	return fmt.Sprintf("SPI bus %s", c.bus)
}

func (c *spiConn) Close() error {
	c.setErr(c.cs.Out(gpio.Low))
	c.setErr(c.bus.Close())
	return c.Err()
}

func (c *spiConn) setErr(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}

func (c *spiConn) Select(selected bool) {
	if selected {
		c.buf = c.buf[:0]
		c.setErr(c.cs.Out(gpio.High))
		return
	}
	c.setErr(c.writeChunked(c.buf))
	c.setErr(c.cs.Out(gpio.Low))
}

// WriteMSB queues v; the controller shifts MSB first.
func (c *spiConn) WriteMSB(v byte) {
	c.buf = append(c.buf, v)
}

// WriteLSB queues v with its bits reversed, so the MSB first controller sends bit 0 first.
func (c *spiConn) WriteLSB(v byte) {
	c.buf = append(c.buf, bits.Reverse8(v))
}

func (c *spiConn) Err() error {
	err := c.err
	c.err = nil
	return err
}

func (c *spiConn) writeChunked(data []byte) (err error) {
	for len(data) > 0 {
		n := len(data)
		if n > c.batchSize {
			n = c.batchSize
		}
		if _, err = c.bus.Write(data[:n]); err != nil {
			return
		}
		data = data[n:]
	}
	return
}
