package display

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// Font sizes in points at 72 DPI, so one point is one pixel.
const (
	largeFontSize = 18
	smallFontSize = 14
)

// Faces holds the two faces the screen uses.
type Faces struct {
	Large font.Face
	Small font.Face
}

// FallbackFaces uses the built-in bitmap face for both sizes.
func FallbackFaces() Faces {
	return Faces{Large: basicfont.Face7x13, Small: basicfont.Face7x13}
}

// LoadFaces loads TrueType faces from disk. If either file cannot be used
// it logs a warning and returns FallbackFaces.
func LoadFaces(largePath, smallPath string, logger *slog.Logger) Faces {
	large, err := loadFace(largePath, largeFontSize)
	if err == nil {
		var small font.Face
		small, err = loadFace(smallPath, smallFontSize)
		if err == nil {
			return Faces{Large: large, Small: small}
		}
	}
	logger.Warn("Font not found, using default bitmap font", "error", err)
	return FallbackFaces()
}

func loadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face %s: %w", path, err)
	}
	return face, nil
}
