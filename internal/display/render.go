package display

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Size is the edge length of the square screen in pixels.
const Size = 240

var (
	colorWhite   = color.RGBA{255, 255, 255, 255}
	colorPlaying = color.RGBA{0, 255, 0, 255}
	colorStopped = color.RGBA{255, 0, 0, 255}
	colorLegend  = color.RGBA{200, 200, 200, 255}
)

// Legend lists the button bindings drawn at the bottom of the screen.
var Legend = []string{
	"A: Play/Pause",
	"B: Next Track",
	"X: Vol Down",
	"Y: Vol Up",
}

// Status is everything a frame shows.
type Status struct {
	// Path of the current track. The background art is read from it.
	Path        string
	Playing     bool
	MediaLoaded bool
	Volume      int
	Elapsed     time.Duration
	Total       time.Duration
}

// Renderer draws status frames. It caches the art of the last track so the
// once-a-second redraw does not reread the file.
type Renderer struct {
	faces  Faces
	logger *slog.Logger

	mu      sync.Mutex
	artPath string
	art     *image.RGBA
}

// NewRenderer creates a renderer using faces.
func NewRenderer(faces Faces, logger *slog.Logger) *Renderer {
	return &Renderer{faces: faces, logger: logger}
}

// Render draws st into a new Size x Size image.
func (r *Renderer) Render(st Status) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	if bg := r.background(st.Path); bg != nil {
		copy(img.Pix, bg.Pix)
	} else {
		xdraw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, xdraw.Src)
	}

	r.text(img, r.faces.Large, 10, 20, "Now Playing:", colorWhite)

	nameColor := colorStopped
	if st.Playing {
		nameColor = colorPlaying
	}
	r.text(img, r.faces.Large, 10, 45, trackName(st.Path), nameColor)

	r.text(img, r.faces.Large, 10, 85, fmt.Sprintf("Volume: %d%%", st.Volume), colorWhite)

	if st.Playing && st.MediaLoaded {
		r.text(img, r.faces.Large, 10, 120,
			fmt.Sprintf("Time: %ds / %ds", int(st.Elapsed.Seconds()), int(st.Total.Seconds())), colorWhite)
	}

	for i, line := range Legend {
		r.text(img, r.faces.Small, 10, 160+i*20, line, colorLegend)
	}
	return img
}

func trackName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

// text draws s with its top-left corner at (x, y).
func (r *Renderer) text(dst *image.RGBA, face font.Face, x, y int, s string, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + face.Metrics().Ascent},
	}
	d.DrawString(s)
}

func (r *Renderer) background(path string) *image.RGBA {
	if path == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if path == r.artPath {
		return r.art
	}

	r.artPath = path
	r.art = nil

	art, err := ReadAlbumArt(path)
	if err != nil {
		r.logger.Debug("No album art", "path", path, "error", err)
		return nil
	}
	if art != nil {
		r.art = artBackground(art, Size)
	}
	return r.art
}
