package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeatGlow/sharpmem"
)

const testConfig = `
Panel: LS027B7DH01
Rotation: "90"
Backend: rpio
Refresh: 250ms
Hold: 2s
Pins:
  Clock: GPIO21
  Data: GPIO20
  ChipSelect: GPIO16
  Disp: GPIO26
Logging:
  Level: debug
  Format: json
`

func writeConfig(t *testing.T, name, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(data), 0o644))
}

func TestDefault(t *testing.T) {
	config := Default()
	require.NoError(t, config.Validate())

	display, err := config.Display()
	require.NoError(t, err)
	assert.Equal(t, sharpmem.LS013B7DH05.Width, display.Width)
	assert.Equal(t, sharpmem.LS013B7DH05.Height, display.Height)
	assert.Equal(t, sharpmem.NoRotation, display.Rotation)
	assert.Equal(t, "GPIO11", config.Pins.Clock)
	assert.Equal(t, "GPIO23", config.SPI.ChipSelect)
}

func TestLoad(t *testing.T) {
	name := filepath.Join(t.TempDir(), "sharpmem.yml")
	writeConfig(t, name, testConfig)

	config, err := Load(name)
	require.NoError(t, err)

	assert.Equal(t, BackendRPIO, config.Backend)
	assert.Equal(t, 250*time.Millisecond, config.Refresh)
	assert.Equal(t, 2*time.Second, config.Hold)
	assert.Equal(t, "GPIO26", config.Pins.Disp)
	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, uint32(1_000_000), config.SPI.SpeedHz, "missing keys keep their default")

	display, err := config.Display()
	require.NoError(t, err)
	assert.Equal(t, 400, display.Width)
	assert.Equal(t, 240, display.Height)
	assert.Equal(t, sharpmem.Rotate90, display.Rotation)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		Name string
		Data string
		Want error
	}{
		{"panel", "Panel: LS999", ErrPanel},
		{"width", "Width: 100", ErrSize},
		{"height", "Height: 300", ErrSize},
		{"rotation", "Rotation: sideways", ErrRotation},
		{"backend", "Backend: usb", ErrBackend},
		{"pin", "Backend: rpio\nPins:\n  Clock: PA3", ErrPin},
		{"refresh", "Refresh: 0s", ErrInterval},
		{"hold", "Hold: -1s", ErrInterval},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			_, err := Parse([]byte(test.Data))
			assert.ErrorIs(it, err, test.Want)
		})
	}

	t.Run("spi speed", func(it *testing.T) {
		_, err := Parse([]byte("Backend: spi\nSPI:\n  SpeedHz: 8000000"))
		assert.Error(it, err)
	})

	t.Run("syntax", func(it *testing.T) {
		_, err := Parse([]byte("Panel: [unterminated"))
		assert.Error(it, err)
	})
}

func TestSizeOverride(t *testing.T) {
	config := Default()
	config.Panel = ""
	config.Width, config.Height = 32, 24

	width, height, err := config.Size()
	require.NoError(t, err)
	assert.Equal(t, 32, width)
	assert.Equal(t, 24, height)
}

func TestPinNumber(t *testing.T) {
	tests := []struct {
		Name string
		Want int
		OK   bool
	}{
		{"GPIO11", 11, true},
		{"gpio8", 8, true},
		{"23", 23, true},
		{"GPIO54", 0, false},
		{"SPI0_CLK", 0, false},
		{"", 0, false},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			n, err := PinNumber(test.Name)
			if !test.OK {
				assert.ErrorIs(it, err, ErrPin)
				return
			}
			require.NoError(it, err)
			assert.Equal(it, test.Want, n)
		})
	}
}

func TestWatch(t *testing.T) {
	name := filepath.Join(t.TempDir(), "sharpmem.yml")
	writeConfig(t, name, "Rotation: \"0\"\n")

	var (
		mu       sync.Mutex
		rotation sharpmem.Rotation
		ctx, end = context.WithCancel(context.Background())
		done     = make(chan error, 1)
	)
	go func() {
		done <- Watch(ctx, name, nil, func(config *Config) {
			r, _ := config.DisplayRotation()
			mu.Lock()
			rotation = r
			mu.Unlock()
		})
	}()

	// The watcher may not be registered yet; keep writing until the change is seen.
	require.Eventually(t, func() bool {
		writeConfig(t, name, "Rotation: \"180\"\n")
		mu.Lock()
		defer mu.Unlock()
		return rotation == sharpmem.Rotate180
	}, 5*time.Second, 50*time.Millisecond)

	end()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}
