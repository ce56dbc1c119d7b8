package audio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Device is one PCM device from /proc/asound/pcm.
type Device struct {
	CardNumber   int    `json:"card_number" example:"1" doc:"Sound card index"`
	DeviceNumber int    `json:"device_number" example:"0" doc:"Device index on card"`
	Name         string `json:"name" example:"HifiBerry DAC HiFi pcm5102a-hifi-0" doc:"Device name"`
	Playback     bool   `json:"playback" doc:"Device can play audio"`
	Capture      bool   `json:"capture" doc:"Device can record audio"`
	ALSADevice   string `json:"alsa_device" example:"hw:1,0" doc:"ALSA device string"`
}

// ListDevices reads <procRoot>/asound/pcm.
func ListDevices(procRoot string) ([]Device, error) {
	f, err := os.Open(filepath.Join(procRoot, "asound", "pcm"))
	if err != nil {
		return nil, fmt.Errorf("failed to read ALSA PCM devices: %w", err)
	}
	defer f.Close()
	return ParseDevices(f)
}

// ParseDevices parses lines like
//
//	01-00: HifiBerry DAC HiFi pcm5102a-hifi-0 : HifiBerry DAC HiFi pcm5102a-hifi-0 : playback 1
//
// Malformed lines are skipped.
func ParseDevices(r io.Reader) ([]Device, error) {
	var devices []Device
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), ":")
		if len(fields) < 3 {
			continue
		}
		card, dev, ok := strings.Cut(strings.TrimSpace(fields[0]), "-")
		if !ok {
			continue
		}
		cardNum, err1 := strconv.Atoi(card)
		devNum, err2 := strconv.Atoi(dev)
		if err1 != nil || err2 != nil {
			continue
		}

		d := Device{
			CardNumber:   cardNum,
			DeviceNumber: devNum,
			Name:         strings.TrimSpace(fields[1]),
			ALSADevice:   fmt.Sprintf("hw:%d,%d", cardNum, devNum),
		}
		for _, f := range fields[3:] {
			f = strings.TrimSpace(f)
			d.Playback = d.Playback || strings.HasPrefix(f, "playback")
			d.Capture = d.Capture || strings.HasPrefix(f, "capture")
		}
		devices = append(devices, d)
	}
	return devices, scanner.Err()
}
