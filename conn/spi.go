//go:build linux

package conn

import (
	"fmt"
	"os"

	"github.com/BeatGlow/sharpmem/internal/ioctl"
)

// SPIMode is the spidev mode byte: clock polarity and phase plus chip select flags, as in
// <linux/spi/spidev.h>.
type SPIMode uint8

// Modes and flags.
const (
	SPIMode0 SPIMode = 0x00
	SPIMode1 SPIMode = 0x01 // CPHA
	SPIMode2 SPIMode = 0x02 // CPOL
	SPIMode3 SPIMode = 0x03

	// SPICSHigh makes the controller's chip select active high.
	SPICSHigh SPIMode = 0x04

	// SPINoCS leaves chip select alone, for devices selected through a GPIO.
	SPINoCS SPIMode = 0x40
)

// spidev request numbers, type 'k'.
const (
	spiIOCMode        = 0x6b01
	spiIOCBitsPerWord = 0x6b03
	spiIOCMaxSpeedHz  = 0x6b04
)

// SPI is an open /dev/spidevB.D character device.
type SPI struct {
	f           *os.File
	mode        SPIMode
	bitsPerWord uint8
	speedHz     uint32
}

// OpenSPI opens device on bus; the device number usually is the chip select the kernel
// driver would use.
func OpenSPI(bus, device int) (*SPI, error) {
	f, err := os.OpenFile(fmt.Sprintf("/dev/spidev%d.%d", bus, device), os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	c := &SPI{f: f}
	if err = c.read(spiIOCMode, &c.mode); err == nil {
		if err = c.read(spiIOCBitsPerWord, &c.bitsPerWord); err == nil {
			err = c.read(spiIOCMaxSpeedHz, &c.speedHz)
		}
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("conn: %s: %w", f.Name(), err)
	}
	return c, nil
}

func (c *SPI) read(request uintptr, v any) error {
	return ioctl.Do(c.f.Fd(), ioctl.Pointer(ioctl.Read, v, request), v)
}

func (c *SPI) write(request uintptr, v any) error {
	return ioctl.Do(c.f.Fd(), ioctl.Pointer(ioctl.Write, v, request), v)
}

// Configure sets the mode, word size and clock rate. The mode is read back, as drivers
// silently drop flags they do not support.
func (c *SPI) Configure(mode SPIMode, bitsPerWord uint8, speedHz uint32) error {
	if bitsPerWord < 8 || bitsPerWord > 32 {
		return fmt.Errorf("conn: SPI bits per word must be within 8-32, got %d", bitsPerWord)
	}

	if err := c.write(spiIOCMode, &mode); err != nil {
		return err
	}
	var actual SPIMode
	if err := c.read(spiIOCMode, &actual); err != nil {
		return err
	}
	if actual != mode {
		return fmt.Errorf("conn: SPI mode %#02x requested, driver uses %#02x", uint8(mode), uint8(actual))
	}
	c.mode = mode

	if bitsPerWord != c.bitsPerWord {
		if err := c.write(spiIOCBitsPerWord, &bitsPerWord); err != nil {
			return err
		}
		c.bitsPerWord = bitsPerWord
	}
	if speedHz != c.speedHz {
		if err := c.write(spiIOCMaxSpeedHz, &speedHz); err != nil {
			return err
		}
		c.speedHz = speedHz
	}
	return nil
}

// Write sends b in a single half duplex transfer.
func (c *SPI) Write(b []byte) (int, error) {
	return c.f.Write(b)
}

func (c *SPI) Close() error {
	return c.f.Close()
}

func (c *SPI) String() string {
	return fmt.Sprintf("%s (mode %#02x, %d bits, %d Hz)", c.f.Name(), uint8(c.mode), c.bitsPerWord, c.speedHz)
}
