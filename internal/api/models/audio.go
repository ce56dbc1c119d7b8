package models

import "github.com/smazurov/luffyplayer/internal/audio"

// AudioDevicesData lists the kernel's sound cards and PCM devices.
type AudioDevicesData struct {
	Cards   []audio.Card   `json:"cards" doc:"Sound cards from /proc/asound/cards"`
	Devices []audio.Device `json:"devices" doc:"PCM devices from /proc/asound/pcm"`
	Default string         `json:"default" example:"sndrpihifiberry" doc:"Card pinned as the ALSA default"`
	Count   int            `json:"count" example:"2" doc:"Number of cards found"`
}

// AudioDevicesResponse wraps AudioDevicesData for API responses.
type AudioDevicesResponse struct {
	Body AudioDevicesData
}
