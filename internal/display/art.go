package display

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // cover art decoders
	_ "image/png"
	"os"

	"github.com/dhowden/tag"
	xdraw "golang.org/x/image/draw"
)

// artDim is the brightness kept when art is used as background.
const artDim = 0.3

// ReadAlbumArt returns the embedded cover of an audio file, or nil when the
// file carries none. ID3 APIC, MP4 covr and FLAC pictures are supported.
func ReadAlbumArt(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tags: %w", err)
	}

	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, nil
	}

	img, _, err := image.Decode(bytes.NewReader(pic.Data))
	if err != nil {
		return nil, fmt.Errorf("decode %s cover: %w", pic.MIMEType, err)
	}
	return img, nil
}

// artBackground scales art to fit within size x size keeping its aspect,
// centres it on black and dims it.
func artBackground(art image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, xdraw.Src)

	b := art.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return dst
	}

	w, h := size, size
	if b.Dx() > b.Dy() {
		h = max(1, b.Dy()*size/b.Dx())
	} else {
		w = max(1, b.Dx()*size/b.Dy())
	}
	x0 := (size - w) / 2
	y0 := (size - h) / 2
	xdraw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), art, b, xdraw.Src, nil)

	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = uint8(float64(dst.Pix[i]) * artDim)
		dst.Pix[i+1] = uint8(float64(dst.Pix[i+1]) * artDim)
		dst.Pix[i+2] = uint8(float64(dst.Pix[i+2]) * artDim)
		dst.Pix[i+3] = 0xff
	}
	return dst
}
