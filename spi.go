package sharpmem

import "errors"

// ErrNotSupported is returned by OpenSPI on platforms without spidev.
var ErrNotSupported = errors.New("sharpmem: spidev is not supported on this platform")

// SPIConfig describes a hardware SPI connection.
type SPIConfig struct {
	// Bus and Device select /dev/spidev<Bus>.<Device>.
	Bus    int
	Device int

	// SpeedHz is the clock rate, one of ValidSPISpeeds.
	SpeedHz uint32

	// BatchSize is the largest single write; longer frames are split into chunks.
	BatchSize uint

	// ChipSelect is the panel's active high chip select. When nil, ChipSelectPin is looked up
	// in the periph.io registry.
	ChipSelect    Line
	ChipSelectPin string
}

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	Bus:           0,
	Device:        0,
	SpeedHz:       1_000_000,
	BatchSize:     4096,
	ChipSelectPin: "GPIO23",
}

// ValidSPISpeeds are the bus speeds memory LCD panels accept.
var ValidSPISpeeds = []uint32{
	250_000,
	500_000,
	1_000_000,
	2_000_000,
}

func validSPISpeed(hz uint32) bool {
	for _, speed := range ValidSPISpeeds {
		if speed == hz {
			return true
		}
	}
	return false
}
