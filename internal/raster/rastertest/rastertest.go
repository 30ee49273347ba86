// Package rastertest writes small TIFF images for tests.
package rastertest

import (
	"bytes"
	"encoding/binary"
	"image"
	"io"
	"math"
	"os"

	xtiff "golang.org/x/image/tiff"
)

// Sample formats.
const (
	Uint  = 1
	Int   = 2
	Float = 3
)

// Spec describes an uncompressed, single-strip, chunky TIFF.
type Spec struct {
	Width, Height int
	Samples       int
	Bits          int // 16 or 32
	Format        int // Uint, Int or Float
	// Data holds Width*Height*Samples values, pixel-interleaved.
	Data []float64
}

// Encode writes s as a little-endian TIFF.
func Encode(w io.Writer, s Spec) error {
	le := binary.LittleEndian
	bps := s.Bits / 8
	pixels := new(bytes.Buffer)
	for _, v := range s.Data {
		b := make([]byte, bps)
		switch {
		case s.Format == Float && bps == 4:
			le.PutUint32(b, math.Float32bits(float32(v)))
		case bps == 4:
			le.PutUint32(b, uint32(int32(v)))
		default:
			le.PutUint16(b, uint16(int16(v)))
		}
		pixels.Write(b)
	}

	type entry struct {
		tag, typ uint16
		count    uint32
		value    uint32
	}
	const nEntries = 10
	ifdOff := uint32(8)
	ifdSize := uint32(2 + 12*nEntries + 4)
	bitsOff := ifdOff + ifdSize
	fmtOff := bitsOff + uint32(2*s.Samples)
	dataOff := fmtOff + uint32(2*s.Samples)

	inline := func(n int) bool { return n*2 <= 4 }
	bitsVal, fmtVal := bitsOff, fmtOff
	if inline(s.Samples) {
		bitsVal = uint32(s.Bits)
		fmtVal = uint32(s.Format)
		if s.Samples == 2 {
			bitsVal |= uint32(s.Bits) << 16
			fmtVal |= uint32(s.Format) << 16
		}
	}

	entries := []entry{
		{256, 4, 1, uint32(s.Width)},
		{257, 4, 1, uint32(s.Height)},
		{258, 3, uint32(s.Samples), bitsVal},
		{259, 3, 1, 1},
		{262, 3, 1, 1},
		{273, 4, 1, dataOff},
		{277, 3, 1, uint32(s.Samples)},
		{278, 4, 1, uint32(s.Height)},
		{279, 4, 1, uint32(pixels.Len())},
		{339, 3, uint32(s.Samples), fmtVal},
	}

	out := new(bytes.Buffer)
	out.WriteString("II")
	binary.Write(out, le, uint16(42))
	binary.Write(out, le, ifdOff)
	binary.Write(out, le, uint16(nEntries))
	for _, e := range entries {
		binary.Write(out, le, e.tag)
		binary.Write(out, le, e.typ)
		binary.Write(out, le, e.count)
		binary.Write(out, le, e.value)
	}
	binary.Write(out, le, uint32(0))
	for i := 0; i < s.Samples; i++ {
		binary.Write(out, le, uint16(s.Bits))
	}
	for i := 0; i < s.Samples; i++ {
		binary.Write(out, le, uint16(s.Format))
	}
	out.Write(pixels.Bytes())

	_, err := w.Write(out.Bytes())
	return err
}

// WriteFile encodes s to path.
func WriteFile(path string, s Spec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteGray16 writes a single-band 16-bit image through golang.org/x/image/tiff.
func WriteGray16(path string, width, height int, values []uint16) error {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for i, v := range values {
		img.Pix[2*i] = byte(v >> 8)
		img.Pix[2*i+1] = byte(v)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := xtiff.Encode(f, img, nil); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
