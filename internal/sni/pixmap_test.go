package sni

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestToPixmapByteOrder(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	img.Set(1, 0, color.NRGBA{B: 0xff, A: 0xff})

	p := ToPixmap(img)
	if p.Width != 2 || p.Height != 1 {
		t.Fatalf("size = %dx%d, want 2x1", p.Width, p.Height)
	}
	want := []byte{0xff, 0xff, 0x00, 0x00, 0xff, 0x00, 0x00, 0xff}
	if string(p.Data) != string(want) {
		t.Fatalf("data = %x, want %x", p.Data, want)
	}
}

func TestPixmapFromARGB(t *testing.T) {
	p := PixmapFromARGB(2, 1, []uint32{0xff112233, 0x80aabbcc})
	if p.Width != 2 || p.Height != 1 {
		t.Fatalf("size = %dx%d, want 2x1", p.Width, p.Height)
	}
	want := []byte{0xff, 0x11, 0x22, 0x33, 0x80, 0xaa, 0xbb, 0xcc}
	if string(p.Data) != string(want) {
		t.Fatalf("data = %x, want %x", p.Data, want)
	}
}

func TestLoadPixmap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icon.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 16, 16))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	p, err := LoadPixmap(path)
	if err != nil {
		t.Fatalf("load pixmap: %v", err)
	}
	if p.Width != 16 || p.Height != 16 || len(p.Data) != 16*16*4 {
		t.Fatalf("unexpected pixmap %dx%d (%d bytes)", p.Width, p.Height, len(p.Data))
	}

	if _, err := LoadPixmap(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
