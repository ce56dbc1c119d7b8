package display

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// ST7789 command set.
const (
	cmdSWRESET  = 0x01
	cmdSLPOUT   = 0x11
	cmdINVON    = 0x21
	cmdDISPON   = 0x29
	cmdCASET    = 0x2A
	cmdRASET    = 0x2B
	cmdRAMWR    = 0x2C
	cmdMADCTL   = 0x36
	cmdCOLMOD   = 0x3A
	cmdPORCTRL  = 0xB2
	cmdGCTRL    = 0xB7
	cmdVCOMS    = 0xBB
	cmdLCMCTRL  = 0xC0
	cmdVDVVRHEN = 0xC2
	cmdVRHS     = 0xC3
	cmdVDVS     = 0xC4
	cmdFRCTRL2  = 0xC6
	cmdPWCTRL1  = 0xD0
	cmdGMCTRP1  = 0xE0
	cmdGMCTRN1  = 0xE1
)

// spiChunk is the largest write spidev accepts by default.
const spiChunk = 4096

type initStep struct {
	cmd   byte
	data  []byte
	delay time.Duration
}

// initSequence brings a 240x240 ST7789 panel up in RGB565 mode.
var initSequence = []initStep{
	{cmd: cmdSWRESET, delay: 150 * time.Millisecond},
	{cmd: cmdMADCTL, data: []byte{0x70}},
	{cmd: cmdPORCTRL, data: []byte{0x0C, 0x0C, 0x00, 0x33, 0x33}},
	{cmd: cmdCOLMOD, data: []byte{0x05}},
	{cmd: cmdGCTRL, data: []byte{0x14}},
	{cmd: cmdVCOMS, data: []byte{0x37}},
	{cmd: cmdLCMCTRL, data: []byte{0x2C}},
	{cmd: cmdVDVVRHEN, data: []byte{0x01}},
	{cmd: cmdVRHS, data: []byte{0x12}},
	{cmd: cmdVDVS, data: []byte{0x20}},
	{cmd: cmdPWCTRL1, data: []byte{0xA4, 0xA1}},
	{cmd: cmdFRCTRL2, data: []byte{0x0F}},
	{cmd: cmdGMCTRP1, data: []byte{0xD0, 0x04, 0x0D, 0x11, 0x13, 0x2B, 0x3F, 0x54, 0x4C, 0x18, 0x0D, 0x0B, 0x1F, 0x23}},
	{cmd: cmdGMCTRN1, data: []byte{0xD0, 0x04, 0x0C, 0x11, 0x13, 0x2C, 0x3F, 0x44, 0x51, 0x2F, 0x1F, 0x1F, 0x20, 0x23}},
	{cmd: cmdINVON},
	{cmd: cmdSLPOUT},
	{cmd: cmdDISPON, delay: 100 * time.Millisecond},
}

// ST7789Config configures the SPI LCD.
type ST7789Config struct {
	Port         string
	SpeedMHz     int
	DCPin        string
	BacklightPin string
	// Rotation in degrees counter-clockwise: 0, 90, 180 or 270.
	Rotation int
}

type txer interface {
	Tx(w, r []byte) error
}

type levelOut interface {
	Out(l gpio.Level) error
}

// ST7789 drives a 240x240 ST7789 LCD.
type ST7789 struct {
	conn      txer
	dc        levelOut
	backlight levelOut
	closer    func() error
	rotation  int
	sleep     func(time.Duration)
	logger    *slog.Logger
}

// OpenST7789 initialises periph, opens the SPI port and resets the panel.
func OpenST7789(cfg ST7789Config, logger *slog.Logger) (*ST7789, error) {
	if cfg.Rotation%90 != 0 {
		return nil, fmt.Errorf("unsupported rotation %d", cfg.Rotation)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("open spi %s: %w", cfg.Port, err)
	}
	conn, err := port.Connect(physic.Frequency(cfg.SpeedMHz)*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect spi %s: %w", cfg.Port, err)
	}

	dc := gpioreg.ByName(cfg.DCPin)
	if dc == nil {
		port.Close()
		return nil, fmt.Errorf("unknown dc pin %s", cfg.DCPin)
	}

	d := &ST7789{
		conn:     conn,
		dc:       dc,
		closer:   port.Close,
		rotation: ((cfg.Rotation % 360) + 360) % 360,
		sleep:    time.Sleep,
		logger:   logger,
	}
	if cfg.BacklightPin != "" {
		bl := gpioreg.ByName(cfg.BacklightPin)
		if bl == nil {
			port.Close()
			return nil, fmt.Errorf("unknown backlight pin %s", cfg.BacklightPin)
		}
		d.backlight = bl
	}

	if err := d.init(); err != nil {
		port.Close()
		return nil, err
	}
	logger.Info("ST7789 ready", "port", cfg.Port, "speed_mhz", cfg.SpeedMHz, "rotation", d.rotation)
	return d, nil
}

func (d *ST7789) init() error {
	if d.backlight != nil {
		if err := d.backlight.Out(gpio.High); err != nil {
			return fmt.Errorf("backlight on: %w", err)
		}
	}
	for _, step := range initSequence {
		if err := d.command(step.cmd, step.data...); err != nil {
			return fmt.Errorf("init command 0x%02X: %w", step.cmd, err)
		}
		if step.delay > 0 {
			d.sleep(step.delay)
		}
	}
	return nil
}

// command sends cmd with DC low, then data with DC high.
func (d *ST7789) command(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.conn.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return d.write(data)
}

// write sends data with DC high in spiChunk sized transfers.
func (d *ST7789) write(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for start := 0; start < len(data); start += spiChunk {
		end := min(start+spiChunk, len(data))
		if err := d.conn.Tx(data[start:end], nil); err != nil {
			return err
		}
	}
	return nil
}

func (d *ST7789) setWindow(x0, y0, x1, y1 int) error {
	if err := d.command(cmdCASET, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.command(cmdRASET, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	return d.command(cmdRAMWR)
}

// Show implements Panel.
func (d *ST7789) Show(img image.Image) error {
	if err := d.setWindow(0, 0, Size-1, Size-1); err != nil {
		return fmt.Errorf("set window: %w", err)
	}
	return d.write(toRGB565(img, d.rotation))
}

// Close blanks the backlight and releases the SPI port.
func (d *ST7789) Close() error {
	if d.backlight != nil {
		if err := d.backlight.Out(gpio.Low); err != nil {
			d.logger.Warn("Failed to turn off backlight", "error", err)
		}
	}
	if d.closer != nil {
		return d.closer()
	}
	return nil
}

// toRGB565 converts the Size x Size top-left area of img to big-endian
// RGB565, rotated counter-clockwise by rotation degrees.
func toRGB565(img image.Image, rotation int) []byte {
	const n = Size
	b := img.Bounds()
	buf := make([]byte, 0, n*n*2)

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			var sx, sy int
			switch rotation {
			case 90:
				sx, sy = n-1-y, x
			case 180:
				sx, sy = n-1-x, n-1-y
			case 270:
				sx, sy = y, n-1-x
			default:
				sx, sy = x, y
			}

			r, g, bl, _ := img.At(b.Min.X+sx, b.Min.Y+sy).RGBA()
			c := uint16(r>>8&0xF8)<<8 | uint16(g>>8&0xFC)<<3 | uint16(bl>>8)>>3
			buf = append(buf, byte(c>>8), byte(c))
		}
	}
	return buf
}
