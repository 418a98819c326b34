package display

import (
	"encoding/binary"
	"image"
	"image/color"
)

// Pack converts a color to RGB565: rrrrrggggggbbbbb.
func Pack(c color.RGBA) uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
}

// packRow encodes n pixels starting at (x, y) of img as little-endian RGB565
// into dst. dst must hold at least n*2 bytes. Alpha is ignored; buffers
// handed to the writer are already composited.
func packRow(img *image.RGBA, x, y, n int, dst []byte) {
	i := img.PixOffset(x, y)
	pix := img.Pix[i : i+n*4 : i+n*4]
	for j := 0; j < n; j++ {
		r := pix[j*4]
		g := pix[j*4+1]
		b := pix[j*4+2]
		v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
		binary.LittleEndian.PutUint16(dst[j*2:], v)
	}
}
