package audio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const piCards = ` 0 [vc4hdmi0       ]: vc4-hdmi - vc4-hdmi-0
                      vc4-hdmi-0
 1 [sndrpihifiberry]: HifiberryDac - snd_rpi_hifiberry_dac
                      snd_rpi_hifiberry_dac
`

func TestParseCards(t *testing.T) {
	cards, err := ParseCards(strings.NewReader(piCards))
	if err != nil {
		t.Fatalf("ParseCards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}

	tests := []struct {
		card     Card
		index    int
		id       string
		driver   string
		longName string
		hdmi     bool
	}{
		{cards[0], 0, "vc4hdmi0", "vc4-hdmi", "vc4-hdmi-0", true},
		{cards[1], 1, "sndrpihifiberry", "HifiberryDac", "snd_rpi_hifiberry_dac", false},
	}
	for _, tt := range tests {
		if tt.card.Index != tt.index || tt.card.ID != tt.id || tt.card.Driver != tt.driver {
			t.Errorf("card = %+v, want %d/%s/%s", tt.card, tt.index, tt.id, tt.driver)
		}
		if tt.card.LongName != tt.longName {
			t.Errorf("LongName = %q, want %q", tt.card.LongName, tt.longName)
		}
		if tt.card.IsHDMI() != tt.hdmi {
			t.Errorf("%s IsHDMI = %v, want %v", tt.card.ID, tt.card.IsHDMI(), tt.hdmi)
		}
	}
}

func TestParseCardsEmpty(t *testing.T) {
	for _, input := range []string{"", "--- no soundcards ---\n"} {
		if _, err := ParseCards(strings.NewReader(input)); !errors.Is(err, ErrNoCards) {
			t.Errorf("ParseCards(%q) error = %v, want ErrNoCards", input, err)
		}
	}
}

func TestListCardsAndFind(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "asound"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "asound", "cards"), []byte(piCards), 0o644); err != nil {
		t.Fatal(err)
	}

	cards, err := ListCards(root)
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if c, ok := FindCard(cards, "sndrpihifiberry"); !ok || c.Index != 1 {
		t.Errorf("FindCard = %+v, %v", c, ok)
	}
	if _, ok := FindCard(cards, "Headphones"); ok {
		t.Error("FindCard found a card that is not there")
	}

	if _, err := ListCards(t.TempDir()); err == nil {
		t.Error("expected error for missing proc file")
	}
}

func TestParseDevices(t *testing.T) {
	input := `00-00: MAI PCM i2s-hifi-0 : MAI PCM i2s-hifi-0 : playback 1
01-00: HifiBerry DAC HiFi pcm5102a-hifi-0 : HifiBerry DAC HiFi pcm5102a-hifi-0 : playback 1
02-00: USB Audio : USB Audio : playback 1 : capture 1
garbage line
`
	devices, err := ParseDevices(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseDevices: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("got %d devices, want 3", len(devices))
	}
	if d := devices[1]; d.ALSADevice != "hw:1,0" || !d.Playback || d.Capture {
		t.Errorf("dac device = %+v", d)
	}
	if d := devices[2]; !d.Playback || !d.Capture {
		t.Errorf("usb device = %+v, want playback and capture", d)
	}
}
