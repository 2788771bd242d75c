package sni

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"slices"

	"deedles.dev/ximage/format"
)

// Pixmap is one icon size in ARGB32, network byte order.
type Pixmap struct {
	Width  int32
	Height int32
	Data   []byte
}

// ToPixmap converts img into the pixmap layout StatusNotifierHosts expect.
func ToPixmap(img image.Image) Pixmap {
	bounds := img.Bounds().Canon()
	dst := &format.Image{
		Format: format.ARGB8888,
		Rect:   bounds,
		Pix:    make([]byte, format.ARGB8888.Size()*bounds.Dx()*bounds.Dy()),
	}
	draw.Draw(dst, bounds, img, bounds.Min, draw.Src)
	endianSwap(dst.Pix)

	return Pixmap{
		Width:  int32(bounds.Dx()),
		Height: int32(bounds.Dy()),
		Data:   dst.Pix,
	}
}

// PixmapFromARGB packs width*height ARGB words, as found in _NET_WM_ICON,
// into a pixmap.
func PixmapFromARGB(width, height int, argb []uint32) Pixmap {
	data := make([]byte, 4*len(argb))
	for i, px := range argb {
		binary.BigEndian.PutUint32(data[4*i:], px)
	}
	return Pixmap{Width: int32(width), Height: int32(height), Data: data}
}

// LoadPixmap decodes a PNG file into a pixmap.
func LoadPixmap(path string) (Pixmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pixmap{}, fmt.Errorf("open icon: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return Pixmap{}, fmt.Errorf("decode icon %s: %w", path, err)
	}
	return ToPixmap(img), nil
}

func endianSwap(data []byte) {
	for i := 0; i+4 <= len(data); i += 4 {
		slices.Reverse(data[i : i+4])
	}
}
