// Package audio reads the ALSA card and PCM tables exported under /proc/asound.
package audio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoCards is returned when the kernel reports no sound cards.
var ErrNoCards = errors.New("no soundcards found")

// Card is one entry of /proc/asound/cards.
type Card struct {
	Index    int    `json:"index" example:"1" doc:"Card index"`
	ID       string `json:"id" example:"sndrpihifiberry" doc:"Card identifier used in asound.conf"`
	Driver   string `json:"driver" example:"HifiberryDac" doc:"Driver name"`
	Name     string `json:"name" example:"snd_rpi_hifiberry_dac" doc:"Short card name"`
	LongName string `json:"long_name" example:"snd_rpi_hifiberry_dac" doc:"Long card name"`
}

// IsHDMI reports whether the card is an HDMI audio output.
func (c Card) IsHDMI() bool {
	s := strings.ToLower(c.ID + " " + c.Driver + " " + c.Name)
	return strings.Contains(s, "hdmi")
}

//  1 [sndrpihifiberry]: HifiberryDac - snd_rpi_hifiberry_dac
var cardLine = regexp.MustCompile(`^\s*(\d+)\s+\[([^\]\s]+)\s*\]:\s+(\S+)\s+-\s+(.*)$`)

// ListCards reads <procRoot>/asound/cards.
func ListCards(procRoot string) ([]Card, error) {
	f, err := os.Open(filepath.Join(procRoot, "asound", "cards"))
	if err != nil {
		return nil, fmt.Errorf("failed to read ALSA cards: %w", err)
	}
	defer f.Close()
	return ParseCards(f)
}

// ParseCards parses the /proc/asound/cards format. Each card is a header
// line followed by an indented long name.
func ParseCards(r io.Reader) ([]Card, error) {
	var cards []Card
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := cardLine.FindStringSubmatch(line); m != nil {
			index, _ := strconv.Atoi(m[1])
			cards = append(cards, Card{
				Index:  index,
				ID:     m[2],
				Driver: m[3],
				Name:   strings.TrimSpace(m[4]),
			})
			continue
		}
		if strings.Contains(line, "no soundcards") {
			return nil, ErrNoCards
		}
		if n := len(cards); n > 0 && cards[n-1].LongName == "" {
			cards[n-1].LongName = strings.TrimSpace(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	return cards, nil
}

// FindCard looks a card up by its ID. The match is case-sensitive, as in ALSA.
func FindCard(cards []Card, id string) (Card, bool) {
	for _, c := range cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}
