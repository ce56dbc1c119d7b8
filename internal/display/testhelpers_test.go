package display

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// writeTaggedMP3 writes an ID3v2.3 tag with an APIC frame holding cover,
// followed by a few bytes standing in for audio.
func writeTaggedMP3(t *testing.T, cover []byte) string {
	t.Helper()

	var frame bytes.Buffer
	frame.WriteByte(0x00) // ISO-8859-1
	frame.WriteString("image/png\x00")
	frame.WriteByte(0x03) // front cover
	frame.WriteByte(0x00) // empty description
	frame.Write(cover)

	var frames bytes.Buffer
	frames.WriteString("APIC")
	binary.Write(&frames, binary.BigEndian, uint32(frame.Len()))
	frames.Write([]byte{0, 0})
	frames.Write(frame.Bytes())

	size := frames.Len()
	var file bytes.Buffer
	file.WriteString("ID3")
	file.Write([]byte{3, 0, 0})
	file.Write([]byte{byte(size >> 21 & 0x7f), byte(size >> 14 & 0x7f), byte(size >> 7 & 0x7f), byte(size & 0x7f)})
	file.Write(frames.Bytes())
	file.Write(bytes.Repeat([]byte{0xff, 0xfb, 0x90, 0x00}, 64))

	path := filepath.Join(t.TempDir(), "tagged.mp3")
	if err := os.WriteFile(path, file.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writePlainFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, bytes.Repeat([]byte{0}, 256), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
