// Package collectors feeds the metrics package from the board and the event bus.
package collectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/smazurov/luffyplayer/internal/logging"
	"github.com/smazurov/luffyplayer/internal/metrics"
)

const thermalRoot = "/sys/class/thermal"

// ThermalCollector samples SoC temperatures from the kernel thermal zones.
type ThermalCollector struct {
	logger   logging.Logger
	root     string
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewThermalCollector creates a new thermal collector.
func NewThermalCollector() *ThermalCollector {
	return &ThermalCollector{
		logger:   logging.GetLogger("metrics"),
		root:     thermalRoot,
		interval: 10 * time.Second,
	}
}

// Start begins sampling in the background.
func (c *ThermalCollector) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	go c.run()
	return nil
}

// Stop stops the collector.
func (c *ThermalCollector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *ThermalCollector) run() {
	c.logger.Info("Starting thermal metrics collection", "path", c.root, "interval", c.interval)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *ThermalCollector) collect() {
	zones, err := c.readZones()
	if err != nil {
		c.logger.Warn("Failed to read thermal zones", "error", err)
		return
	}
	for _, z := range zones {
		metrics.SetTemperature(z.Name, z.Celsius)
	}
}

type thermalZone struct {
	Name    string
	Celsius float64
}

func (c *ThermalCollector) readZones() ([]thermalZone, error) {
	dirs, err := filepath.Glob(filepath.Join(c.root, "thermal_zone*"))
	if err != nil {
		return nil, err
	}

	var zones []thermalZone
	for _, dir := range dirs {
		raw, err := os.ReadFile(filepath.Join(dir, "temp"))
		if err != nil {
			continue
		}
		celsius, err := parseMilliCelsius(string(raw))
		if err != nil {
			c.logger.Debug("Skipping thermal zone", "zone", dir, "error", err)
			continue
		}

		name := filepath.Base(dir)
		if t, err := os.ReadFile(filepath.Join(dir, "type")); err == nil {
			if s := strings.TrimSpace(string(t)); s != "" {
				name = s
			}
		}
		zones = append(zones, thermalZone{Name: name, Celsius: celsius})
	}
	return zones, nil
}

// parseMilliCelsius converts the sysfs millidegree reading to degrees.
func parseMilliCelsius(raw string) (float64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid temperature %q: %w", strings.TrimSpace(raw), err)
	}
	return float64(v) / 1000, nil
}
