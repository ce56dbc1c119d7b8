package led

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// New creates an LED controller for the running board.
// Falls back to a no-op controller when the board has no usable LEDs.
func New(logger *slog.Logger) Controller {
	return newForBoard(detectBoard(deviceTreeModelPath), sysfsLEDPath, logger)
}

func newForBoard(boardModel, ledRoot string, logger *slog.Logger) Controller {
	logger.Info("Detecting board for LED control", "board_model", boardModel)

	if !strings.Contains(boardModel, "Raspberry Pi") {
		logger.Info("No LED support detected, using no-op controller", "board_model", boardModel)
		return newNoop(logger)
	}

	// Kernels before 6.1 name the activity LED led0 and the power LED led1.
	leds := map[string]string{}
	for ledType, names := range map[string][]string{
		"act": {"ACT", "led0"},
		"pwr": {"PWR", "led1"},
	} {
		for _, name := range names {
			if _, err := os.Stat(filepath.Join(ledRoot, name)); err == nil {
				leds[ledType] = name
				break
			}
		}
	}
	if len(leds) == 0 {
		logger.Info("Raspberry Pi detected but no LEDs in sysfs, using no-op controller", "path", ledRoot)
		return newNoop(logger)
	}

	logger.Info("Detected Raspberry Pi, using sysfs LED controller", "leds", leds)
	return newSysfs(ledRoot, leds)
}

// detectBoard reads the device tree model to identify the board.
func detectBoard(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}

	// Device tree strings are NUL terminated
	return strings.TrimRight(string(data), "\x00")
}
