// Package config loads the YAML configuration of the sharpmem command line tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BeatGlow/sharpmem"
	"github.com/BeatGlow/sharpmem/framebuffer"
)

// Backends.
const (
	BackendGPIO = "gpio"
	BackendRPIO = "rpio"
	BackendSPI  = "spi"
	BackendSim  = "sim"
)

// Errors
var (
	ErrPanel    = errors.New("config: unknown panel")
	ErrSize     = errors.New("config: invalid display size")
	ErrRotation = errors.New("config: invalid rotation")
	ErrBackend  = errors.New("config: unknown backend")
	ErrPin      = errors.New("config: invalid pin")
	ErrInterval = errors.New("config: invalid interval")
)

// Config is the tool configuration.
type Config struct {
	// Panel names a known panel; Width and Height override its geometry.
	Panel  string `yaml:"Panel"`
	Width  int    `yaml:"Width"`
	Height int    `yaml:"Height"`

	Rotation string `yaml:"Rotation"`
	Backend  string `yaml:"Backend"`

	// Refresh is the interval between frames, Hold the interval between VCOM-only transactions
	// while nothing is drawn.
	Refresh time.Duration `yaml:"Refresh"`
	Hold    time.Duration `yaml:"Hold"`

	Pins    PinConfig     `yaml:"Pins"`
	SPI     SPIConfig     `yaml:"SPI"`
	Logging LoggingConfig `yaml:"Logging"`
}

// PinConfig names the GPIO lines, as in "GPIO11".
type PinConfig struct {
	Clock      string `yaml:"Clock"`
	Data       string `yaml:"Data"`
	ChipSelect string `yaml:"ChipSelect"`
	Disp       string `yaml:"Disp"`
}

// SPIConfig selects the spidev device. ChipSelect is driven as GPIO, the kernel's own chip
// select is active low and can not be used.
type SPIConfig struct {
	Bus        int    `yaml:"Bus"`
	Device     int    `yaml:"Device"`
	SpeedHz    uint32 `yaml:"SpeedHz"`
	ChipSelect string `yaml:"ChipSelect"`
}

// LoggingConfig is handed to the logging package.
type LoggingConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

// Default returns the configuration used for keys missing from a file.
func Default() *Config {
	return &Config{
		Panel:   sharpmem.LS013B7DH05.Name,
		Backend: BackendGPIO,
		Refresh: 500 * time.Millisecond,
		Hold:    time.Second,
		Pins: PinConfig{
			Clock:      sharpmem.DefaultGPIOConfig.ClockPin,
			Data:       sharpmem.DefaultGPIOConfig.DataPin,
			ChipSelect: sharpmem.DefaultGPIOConfig.ChipSelectPin,
		},
		SPI: SPIConfig{
			Bus:        sharpmem.DefaultSPIConfig.Bus,
			Device:     sharpmem.DefaultSPIConfig.Device,
			SpeedHz:    sharpmem.DefaultSPIConfig.SpeedHz,
			ChipSelect: sharpmem.DefaultSPIConfig.ChipSelectPin,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and validates the file at name.
func Load(name string) (*Config, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML document on top of Default and validates the result.
func Parse(b []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(b, config); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks all values.
func (config *Config) Validate() error {
	if _, _, err := config.Size(); err != nil {
		return err
	}
	if _, err := config.DisplayRotation(); err != nil {
		return err
	}

	switch config.Backend {
	case BackendGPIO, BackendSim:
	case BackendRPIO:
		for _, name := range []string{config.Pins.Clock, config.Pins.Data, config.Pins.ChipSelect} {
			if _, err := PinNumber(name); err != nil {
				return err
			}
		}
		if config.Pins.Disp != "" {
			if _, err := PinNumber(config.Pins.Disp); err != nil {
				return err
			}
		}
	case BackendSPI:
		if config.SPI.Bus < 0 || config.SPI.Device < 0 {
			return fmt.Errorf("config: invalid SPI device %d.%d", config.SPI.Bus, config.SPI.Device)
		}
		if !slices.Contains(sharpmem.ValidSPISpeeds, config.SPI.SpeedHz) {
			return fmt.Errorf("config: unsupported SPI speed %d Hz", config.SPI.SpeedHz)
		}
	default:
		return fmt.Errorf("%w %q", ErrBackend, config.Backend)
	}

	if config.Refresh <= 0 {
		return fmt.Errorf("%w: refresh %s", ErrInterval, config.Refresh)
	}
	if config.Hold <= 0 {
		return fmt.Errorf("%w: hold %s", ErrInterval, config.Hold)
	}
	return nil
}

// Size resolves the display geometry.
func (config *Config) Size() (width, height int, err error) {
	if config.Panel != "" {
		panel, ok := sharpmem.Panels[config.Panel]
		if !ok {
			return 0, 0, fmt.Errorf("%w %q", ErrPanel, config.Panel)
		}
		width, height = panel.Width, panel.Height
	}
	if config.Width != 0 {
		width = config.Width
	}
	if config.Height != 0 {
		height = config.Height
	}
	if width <= 0 || width%8 != 0 || height <= 0 || height > 0xff {
		return 0, 0, fmt.Errorf("%w %dx%d", ErrSize, width, height)
	}
	return width, height, nil
}

// DisplayRotation parses Rotation.
func (config *Config) DisplayRotation() (sharpmem.Rotation, error) {
	r, ok := framebuffer.ParseRotation(config.Rotation)
	if !ok {
		return sharpmem.NoRotation, fmt.Errorf("%w %q", ErrRotation, config.Rotation)
	}
	return r, nil
}

// Display returns the driver configuration; lines are left for the caller to attach.
func (config *Config) Display() (*sharpmem.Config, error) {
	width, height, err := config.Size()
	if err != nil {
		return nil, err
	}
	rotation, err := config.DisplayRotation()
	if err != nil {
		return nil, err
	}
	return &sharpmem.Config{
		Width:    width,
		Height:   height,
		Rotation: rotation,
	}, nil
}

// PinNumber extracts the BCM number from a pin name such as "GPIO11" or "11".
func PinNumber(name string) (int, error) {
	digits := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "GPIO")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || n > 53 {
		return 0, fmt.Errorf("%w %q", ErrPin, name)
	}
	return n, nil
}
