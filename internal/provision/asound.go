package provision

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultCard is the ALSA id of the HifiBerry DAC driver.
const DefaultCard = "sndrpihifiberry"

// RenderAsoundConf pins the default PCM and control device to card.
func RenderAsoundConf(card string) string {
	var b strings.Builder
	for i, iface := range []string{"pcm", "ctl"} {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s.!default {\n    type hw\n    card %s\n}\n", iface, card)
	}
	return b.String()
}

// ParseAsoundDefaults returns the cards the default PCM and control devices
// are pinned to. Both the block form and the dotted form
// (pcm.!default.card X) are understood; an empty result means not pinned.
func ParseAsoundDefaults(content string) (pcmCard, ctlCard string) {
	tokens := tokenizeAsound(content)

	var path []string
	var depth []int
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok {
		case "{":
			depth = append(depth, 0)
			continue
		case "}":
			if n := len(depth); n > 0 {
				path = path[:len(path)-depth[n-1]]
				depth = depth[:n-1]
			}
			continue
		case "=", ";", ",":
			continue
		}

		key := strings.Split(tok, ".")
		next := ""
		j := i + 1
		for j < len(tokens) && tokens[j] == "=" {
			j++
		}
		if j < len(tokens) {
			next = tokens[j]
		}

		if next == "{" {
			path = append(path, key...)
			depth = append(depth, len(key))
			i = j
			continue
		}

		full := append(append([]string{}, path...), key...)
		if len(full) == 3 && full[2] == "card" && isDefaultName(full[1]) {
			switch full[0] {
			case "pcm":
				pcmCard = next
			case "ctl":
				ctlCard = next
			}
		}
		i = j
	}
	return pcmCard, ctlCard
}

func isDefaultName(s string) bool {
	return s == "!default" || s == "default"
}

// tokenizeAsound splits ALSA config text into words, quoted strings and the
// punctuation { } = ; , with comments removed.
func tokenizeAsound(content string) []string {
	var tokens []string
	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '#':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case unicode.IsSpace(r):
		case strings.ContainsRune("{}=;,", r):
			tokens = append(tokens, string(r))
		case r == '"' || r == '\'':
			quote := r
			var b strings.Builder
			for i++; i < len(runes) && runes[i] != quote; i++ {
				b.WriteRune(runes[i])
			}
			tokens = append(tokens, b.String())
		default:
			var b strings.Builder
			for ; i < len(runes) && !unicode.IsSpace(runes[i]) && !strings.ContainsRune("{}=;,#\"'", runes[i]); i++ {
				b.WriteRune(runes[i])
			}
			i--
			tokens = append(tokens, b.String())
		}
	}
	return tokens
}
