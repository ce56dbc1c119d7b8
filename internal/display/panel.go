package display

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
)

// Driver names accepted by NewPanel.
const (
	DriverST7789 = "st7789"
	DriverPNG    = "png"
	DriverNone   = "none"
)

// Panel shows rendered frames.
type Panel interface {
	Show(img image.Image) error
	Close() error
}

// PanelConfig selects and configures a panel driver.
type PanelConfig struct {
	Driver string

	SPIPort      string
	SPISpeedMHz  int
	DCPin        string
	BacklightPin string
	Rotation     int

	PNGPath string
}

// NewPanel opens the panel named by cfg.Driver.
func NewPanel(cfg PanelConfig, logger *slog.Logger) (Panel, error) {
	switch cfg.Driver {
	case DriverST7789, "":
		return OpenST7789(ST7789Config{
			Port:         cfg.SPIPort,
			SpeedMHz:     cfg.SPISpeedMHz,
			DCPin:        cfg.DCPin,
			BacklightPin: cfg.BacklightPin,
			Rotation:     cfg.Rotation,
		}, logger)
	case DriverPNG:
		logger.Info("Writing frames to file", "path", cfg.PNGPath)
		return NewPNGPanel(cfg.PNGPath), nil
	case DriverNone:
		return nopPanel{}, nil
	default:
		return nil, fmt.Errorf("unknown display driver %q", cfg.Driver)
	}
}

// PNGPanel writes each frame to a PNG file, replacing it atomically.
type PNGPanel struct {
	path string
}

// NewPNGPanel creates a panel writing to path.
func NewPNGPanel(path string) *PNGPanel {
	return &PNGPanel{path: path}
}

// Show implements Panel.
func (p *PNGPanel) Show(img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.path)
}

// Close implements Panel.
func (p *PNGPanel) Close() error { return nil }

type nopPanel struct{}

func (nopPanel) Show(image.Image) error { return nil }
func (nopPanel) Close() error           { return nil }
