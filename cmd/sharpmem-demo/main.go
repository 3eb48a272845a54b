// Command sharpmem-demo draws a test pattern on a Sharp memory LCD.
//
// The display is driven over bit-banged GPIO (periph.io or go-rpio), spidev or, with the "sim"
// backend, a simulated panel previewed in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/golang/freetype/truetype"
	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/sharpmem"
	"github.com/BeatGlow/sharpmem/draw"
	"github.com/BeatGlow/sharpmem/internal/config"
	"github.com/BeatGlow/sharpmem/internal/logging"
	"github.com/BeatGlow/sharpmem/internal/sim"
	"github.com/BeatGlow/sharpmem/pixel"
)

func main() {
	if err := run(); err != nil {
		fatal(err)
	}
}

func run() error {
	configFlag := flag.String("config", "", "YAML configuration file, reloaded on change")
	backendFlag := flag.String("backend", "", "Bus backend: gpio, rpio, spi or sim")
	panelFlag := flag.String("panel", "", "Panel model, such as LS027B7DH01")
	rotateFlag := flag.String("rotate", "", "Display rotation")
	framesFlag := flag.Int("frames", 0, "Stop after this many frames (0: run until interrupted)")
	flag.Parse()

	cfg := config.Default()
	if *configFlag != "" {
		var err error
		if cfg, err = config.Load(*configFlag); err != nil {
			return err
		}
	}
	if *backendFlag != "" {
		cfg.Backend = *backendFlag
	}
	if *panelFlag != "" {
		cfg.Panel = *panelFlag
		cfg.Width, cfg.Height = 0, 0
	}
	if *rotateFlag != "" {
		cfg.Rotation = *rotateFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.Init(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
		Hold:   cfg.Backend == config.BackendSim,
	})
	if err != nil {
		return err
	}
	defer logging.Close()

	displayConfig, err := cfg.Display()
	if err != nil {
		return err
	}
	displayConfig.Logger = logger

	b, err := openBackend(cfg, displayConfig.Width, displayConfig.Height)
	if err != nil {
		return err
	}
	defer b.close()
	displayConfig.Disp = b.disp

	output, err := sharpmem.New(b.conn, displayConfig)
	if err != nil {
		_ = b.conn.Close()
		return err
	}
	defer func() {
		if err := output.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()
	logger.Info("display ready", "display", output.String(), "conn", b.conn.String(), "rotation", output.Rotation().String())

	if b.disp != nil {
		if err = output.Show(true); err != nil {
			return err
		}
	}
	if err = output.Clear(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reloads := make(chan *config.Config)
	if *configFlag != "" {
		go func() {
			if err := config.Watch(ctx, *configFlag, logger, func(c *config.Config) {
				select {
				case reloads <- c:
				case <-ctx.Done():
				}
			}); err != nil {
				logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	keys := make(chan rune)
	if b.screen != nil {
		go pollKeys(ctx, b.screen, keys, stop)
	}

	return loop(ctx, output, cfg, reloads, keys, *framesFlag, logger)
}

// loop owns the display: every draw and bus transaction happens on this goroutine.
func loop(ctx context.Context, output *sharpmem.Display, cfg *config.Config, reloads <-chan *config.Config, keys <-chan rune, frames int, logger *slog.Logger) error {
	var (
		refresh = time.NewTicker(cfg.Refresh)
		hold    = time.NewTicker(cfg.Hold)
		scene   = newScene(logger)
		paused  bool
		frame   int
	)
	defer refresh.Stop()
	defer hold.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-refresh.C:
			if paused {
				continue
			}
			scene.draw(output, frame)
			if err := output.Refresh(); err != nil {
				return err
			}
			hold.Reset(cfg.Hold)
			if frame++; frames > 0 && frame >= frames {
				return nil
			}

		case <-hold.C:
			if err := output.Hold(); err != nil {
				return err
			}

		case next := <-reloads:
			rotation, _ := next.DisplayRotation()
			if rotation != output.Rotation() {
				output.SetRotation(rotation)
				if err := output.Clear(); err != nil {
					return err
				}
			}
			if next.Backend != cfg.Backend || next.Panel != cfg.Panel || next.Pins != cfg.Pins || next.SPI != cfg.SPI {
				logger.Warn("bus and panel changes need a restart")
			}
			cfg.Rotation, cfg.Refresh, cfg.Hold = next.Rotation, next.Refresh, next.Hold
			refresh.Reset(cfg.Refresh)
			hold.Reset(cfg.Hold)

		case key := <-keys:
			switch key {
			case ' ':
				paused = !paused
				logger.Info("paused", "paused", paused)
			case 'r':
				output.SetRotation(output.Rotation() + 1)
				if err := output.Clear(); err != nil {
					return err
				}
			case 'c':
				if err := output.Clear(); err != nil {
					return err
				}
			}
		}
	}
}

type backend struct {
	conn   sharpmem.Conn
	disp   sharpmem.Line
	screen tcell.Screen
	closer func()
}

func (b *backend) close() {
	if b.closer != nil {
		b.closer()
	}
}

func openBackend(cfg *config.Config, width, height int) (*backend, error) {
	switch cfg.Backend {
	case config.BackendGPIO, config.BackendSPI:
		if _, err := host.Init(); err != nil {
			return nil, err
		}
		disp, err := periphLine(cfg.Pins.Disp)
		if err != nil {
			return nil, err
		}

		var c sharpmem.Conn
		if cfg.Backend == config.BackendGPIO {
			c, err = sharpmem.OpenGPIO(&sharpmem.GPIOConfig{
				ClockPin:      cfg.Pins.Clock,
				DataPin:       cfg.Pins.Data,
				ChipSelectPin: cfg.Pins.ChipSelect,
			})
		} else {
			c, err = sharpmem.OpenSPI(&sharpmem.SPIConfig{
				Bus:           cfg.SPI.Bus,
				Device:        cfg.SPI.Device,
				SpeedHz:       cfg.SPI.SpeedHz,
				BatchSize:     sharpmem.DefaultSPIConfig.BatchSize,
				ChipSelectPin: cfg.SPI.ChipSelect,
			})
		}
		if err != nil {
			return nil, err
		}
		return &backend{conn: c, disp: disp}, nil

	case config.BackendRPIO:
		if err := rpio.Open(); err != nil {
			return nil, fmt.Errorf("rpio: %w", err)
		}
		pin := func(name string) sharpmem.Line {
			n, _ := config.PinNumber(name)
			return sharpmem.NewRPIOPin(n)
		}
		b := &backend{closer: func() { _ = rpio.Close() }}
		if cfg.Pins.Disp != "" {
			b.disp = pin(cfg.Pins.Disp)
		}
		c, err := sharpmem.OpenGPIO(&sharpmem.GPIOConfig{
			Clock:      pin(cfg.Pins.Clock),
			Data:       pin(cfg.Pins.Data),
			ChipSelect: pin(cfg.Pins.ChipSelect),
		})
		if err != nil {
			b.close()
			return nil, err
		}
		b.conn = c
		return b, nil

	case config.BackendSim:
		screen, err := tcell.NewScreen()
		if err != nil {
			return nil, err
		}
		if err = screen.Init(); err != nil {
			return nil, err
		}
		screen.Clear()

		panel := sim.New(width, height)
		panel.OnUpdate = func() {
			panel.Draw(screen, 0, 0)
			screen.Show()
		}
		clock, data, chipSelect := panel.Lines()
		c, err := sharpmem.OpenGPIO(&sharpmem.GPIOConfig{
			Clock:      clock,
			Data:       data,
			ChipSelect: chipSelect,
		})
		if err != nil {
			screen.Fini()
			return nil, err
		}
		return &backend{
			conn:   c,
			screen: screen,
			closer: func() {
				screen.Fini()
				_ = logging.SetOutput(os.Stderr)
				if err := panel.Err(); err != nil {
					fmt.Fprintln(os.Stderr, "simulated panel:", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

func periphLine(name string) (sharpmem.Line, error) {
	if name == "" {
		return nil, nil
	}
	pin := gpioreg.ByName(name)
	if pin == nil || pin == gpio.INVALID {
		return nil, fmt.Errorf("DISP pin %q not found", name)
	}
	return pin, nil
}

// pollKeys forwards key presses; escape, q and control-c cancel the context.
func pollKeys(ctx context.Context, screen tcell.Screen, keys chan<- rune, cancel context.CancelFunc) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}
		switch {
		case key.Key() == tcell.KeyEscape, key.Key() == tcell.KeyCtrlC, key.Rune() == 'q':
			cancel()
			return
		case key.Key() == tcell.KeyRune:
			select {
			case keys <- key.Rune():
			case <-ctx.Done():
				return
			}
		}
	}
}

// Set pixels reflect light, ink is a cleared pixel.
var ink = pixel.Off

type scene struct {
	font *truetype.Font
}

func newScene(logger *slog.Logger) *scene {
	f, err := draw.GoFont()
	if err != nil {
		logger.Warn("no TrueType font, using the bitmap face only", "error", err)
	}
	return &scene{font: f}
}

// draw renders a frame in ink on the reflective background: border, clock, stripes and a
// bouncing ball.
func (s *scene) draw(output *sharpmem.Display, frame int) {
	r := output.Bounds()
	output.Buffer().Fill(true)
	draw.Rectangle(output, r, ink)

	pt := draw.Text(output, image.Pt(4, 15), draw.DefaultFace, time.Now().Format("15:04:05"), ink)
	if s.font != nil && r.Dx() >= 96 {
		if _, err := draw.TrueType(output, image.Pt(pt.X+6, 15), s.font, 12, output.Rotation().String(), ink); err != nil {
			s.font = nil
		}
	}

	pattern := image.Rect(4, 20, r.Max.X-4, r.Max.Y/2)
	for y := pattern.Min.Y; y < pattern.Max.Y; y++ {
		for x := pattern.Min.X; x < pattern.Max.X; x++ {
			output.SetPixel(x, y, (x+y+frame)%6 >= 2)
		}
	}

	const radius = 6
	var (
		area = image.Rect(radius+2, r.Max.Y/2+radius+2, r.Max.X-radius-2, r.Max.Y-radius-2)
		ball = image.Pt(bounce(frame*3, area.Min.X, area.Max.X), bounce(frame*2, area.Min.Y, area.Max.Y))
	)
	if !area.Empty() {
		draw.Circle(output, ball, radius, ink)
		draw.Circle(output, ball, radius/2, ink)
	}

	progress := image.Rect(4, r.Max.Y-8, 4+(frame%60)*(r.Dx()-8)/59, r.Max.Y-4)
	draw.RoundedBox(output, progress, 2, ink)
}

// bounce maps a step counter onto a position moving back and forth between lo and hi.
func bounce(step, lo, hi int) int {
	span := hi - lo
	if span <= 0 {
		return lo
	}
	step %= 2 * span
	if step > span {
		step = 2*span - step
	}
	return lo + step
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
