package raster

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	xtiff "golang.org/x/image/tiff"
)

// TIFF tags used to choose and drive a decoder.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
	tagTileWidth       = 322
	tagSampleFormat    = 339
)

const (
	sampleUint  = 1
	sampleInt   = 2
	sampleFloat = 3
)

// layout is the subset of the first image file directory the decoders need.
type layout struct {
	order        binary.ByteOrder
	width        int
	height       int
	bits         int
	samples      int
	compression  int
	planar       int
	sampleFormat int
	rowsPerStrip int
	stripOffsets []int64
	stripCounts  []int64
	tiled        bool
}

// OpenTIFF inspects a TIFF image and returns a decoder for it.
//
// Single-band 8 or 16 bit unsigned images are decoded with
// golang.org/x/image/tiff. Multi-sample, signed and floating point images
// (complex SLC pairs, compact-pol channels) must be uncompressed and
// strip-organised; they are read directly from their strips.
//
// If r implements io.Closer it is closed by the decoder's Close.
func OpenTIFF(r io.ReaderAt, size int64) (Decoder, error) {
	l, err := readLayout(r)
	if err != nil {
		return nil, err
	}
	closer, _ := r.(io.Closer)

	if l.samples == 1 && (l.bits == 8 || l.bits == 16) && l.sampleFormat == sampleUint {
		return &grayDecoder{src: io.NewSectionReader(r, 0, size), l: l, closer: closer}, nil
	}
	if l.tiled {
		return nil, &UnsupportedError{Reason: "tiled multi-sample image"}
	}
	if l.compression != 1 {
		return nil, &UnsupportedError{Reason: fmt.Sprintf("compression %d for %d-bit %d-sample image", l.compression, l.bits, l.samples)}
	}
	switch l.bits {
	case 8, 16, 32, 64:
	default:
		return nil, &UnsupportedError{Reason: fmt.Sprintf("%d bits per sample", l.bits)}
	}
	return &stripDecoder{r: r, l: l, closer: closer}, nil
}

func readLayout(r io.ReaderAt) (*layout, error) {
	var hdr [8]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("read tiff header: %w", err)
	}
	l := &layout{planar: 1, compression: 1, sampleFormat: sampleUint, samples: 1, bits: 1}
	switch string(hdr[:2]) {
	case "II":
		l.order = binary.LittleEndian
	case "MM":
		l.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("not a tiff file")
	}
	switch magic := l.order.Uint16(hdr[2:4]); magic {
	case 42:
	case 43:
		return nil, &UnsupportedError{Reason: "BigTIFF"}
	default:
		return nil, fmt.Errorf("bad tiff magic %d", magic)
	}

	off := int64(l.order.Uint32(hdr[4:8]))
	var cnt [2]byte
	if _, err := r.ReadAt(cnt[:], off); err != nil {
		return nil, fmt.Errorf("read ifd: %w", err)
	}
	n := int(l.order.Uint16(cnt[:]))
	entries := make([]byte, 12*n)
	if _, err := r.ReadAt(entries, off+2); err != nil {
		return nil, fmt.Errorf("read ifd entries: %w", err)
	}

	rowsPerStrip := -1
	for i := 0; i < n; i++ {
		e := entries[12*i : 12*i+12]
		tag := l.order.Uint16(e[0:2])
		vals, err := l.values(r, e)
		if err != nil {
			return nil, fmt.Errorf("tag %d: %w", tag, err)
		}
		if len(vals) == 0 {
			continue
		}
		switch tag {
		case tagImageWidth:
			l.width = int(vals[0])
		case tagImageLength:
			l.height = int(vals[0])
		case tagBitsPerSample:
			l.bits = int(vals[0])
			for _, b := range vals[1:] {
				if int(b) != l.bits {
					return nil, &UnsupportedError{Reason: "mixed bits per sample"}
				}
			}
		case tagCompression:
			l.compression = int(vals[0])
		case tagStripOffsets:
			l.stripOffsets = vals
		case tagSamplesPerPixel:
			l.samples = int(vals[0])
		case tagRowsPerStrip:
			rowsPerStrip = int(vals[0])
		case tagStripByteCounts:
			l.stripCounts = vals
		case tagPlanarConfig:
			l.planar = int(vals[0])
		case tagTileWidth:
			l.tiled = true
		case tagSampleFormat:
			l.sampleFormat = int(vals[0])
		}
	}

	if l.width <= 0 || l.height <= 0 {
		return nil, fmt.Errorf("tiff has no image dimensions")
	}
	if rowsPerStrip <= 0 || rowsPerStrip > l.height {
		rowsPerStrip = l.height
	}
	l.rowsPerStrip = rowsPerStrip
	return l, nil
}

// values decodes an IFD entry's integer values, following the offset when
// they do not fit inline.
func (l *layout) values(r io.ReaderAt, e []byte) ([]int64, error) {
	typ := l.order.Uint16(e[2:4])
	count := int(l.order.Uint32(e[4:8]))
	var size int
	switch typ {
	case 1, 2, 6, 7: // BYTE, ASCII, SBYTE, UNDEFINED
		size = 1
	case 3, 8: // SHORT, SSHORT
		size = 2
	case 4, 9: // LONG, SLONG
		size = 4
	default:
		return nil, nil
	}
	if typ == 2 || typ == 7 {
		return nil, nil
	}
	if count > 1<<24 {
		return nil, fmt.Errorf("implausible value count %d", count)
	}

	raw := e[8:12]
	if count*size > 4 {
		raw = make([]byte, count*size)
		if _, err := r.ReadAt(raw, int64(l.order.Uint32(e[8:12]))); err != nil {
			return nil, err
		}
	}
	out := make([]int64, count)
	for i := range out {
		b := raw[i*size:]
		switch size {
		case 1:
			out[i] = int64(b[0])
		case 2:
			out[i] = int64(l.order.Uint16(b))
		case 4:
			out[i] = int64(l.order.Uint32(b))
		}
	}
	return out, nil
}

// grayDecoder decodes the whole image on first use.
type grayDecoder struct {
	src    *io.SectionReader
	l      *layout
	closer io.Closer
	img    image.Image
}

func (d *grayDecoder) Size() (int, int) { return d.l.width, d.l.height }
func (d *grayDecoder) SampleBands() int { return 1 }

func (d *grayDecoder) ReadWindow(band int, win Window, dst []float64) error {
	if err := checkRead(d, band, win, dst); err != nil {
		return err
	}
	if d.img == nil {
		if _, err := d.src.Seek(0, io.SeekStart); err != nil {
			return err
		}
		img, err := xtiff.Decode(d.src)
		if err != nil {
			return err
		}
		d.img = img
	}

	b := d.img.Bounds()
	k := 0
	for y := win.Y; y < win.Y+win.Height; y++ {
		for x := win.X; x < win.X+win.Width; x++ {
			px, py := b.Min.X+x, b.Min.Y+y
			switch img := d.img.(type) {
			case *image.Gray16:
				dst[k] = float64(img.Gray16At(px, py).Y)
			case *image.Gray:
				dst[k] = float64(img.GrayAt(px, py).Y)
			default:
				dst[k] = float64(color.Gray16Model.Convert(img.At(px, py)).(color.Gray16).Y)
			}
			k++
		}
	}
	return nil
}

func (d *grayDecoder) Close() error {
	d.img = nil
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

// stripDecoder reads uncompressed strips directly.
type stripDecoder struct {
	r      io.ReaderAt
	l      *layout
	closer io.Closer
	row    []byte
}

func (d *stripDecoder) Size() (int, int) { return d.l.width, d.l.height }
func (d *stripDecoder) SampleBands() int { return d.l.samples }

func (d *stripDecoder) ReadWindow(band int, win Window, dst []float64) error {
	if err := checkRead(d, band, win, dst); err != nil {
		return err
	}
	l := d.l
	bps := l.bits / 8
	stride := bps
	if l.planar == 1 {
		stride = bps * l.samples
	}
	rowBytes := int64(l.width * stride)
	stripsPerPlane := (l.height + l.rowsPerStrip - 1) / l.rowsPerStrip

	span := win.Width * stride
	if cap(d.row) < span {
		d.row = make([]byte, span)
	}
	buf := d.row[:span]

	k := 0
	for y := win.Y; y < win.Y+win.Height; y++ {
		strip := y / l.rowsPerStrip
		if l.planar == 2 {
			strip += band * stripsPerPlane
		}
		if strip >= len(l.stripOffsets) {
			return fmt.Errorf("row %d: strip %d missing", y, strip)
		}
		off := l.stripOffsets[strip] + int64(y%l.rowsPerStrip)*rowBytes + int64(win.X*stride)
		if _, err := d.r.ReadAt(buf, off); err != nil {
			return fmt.Errorf("row %d: %w", y, err)
		}
		for x := 0; x < win.Width; x++ {
			p := x * stride
			if l.planar == 1 {
				p += band * bps
			}
			dst[k] = d.sample(buf[p : p+bps])
			k++
		}
	}
	return nil
}

func (d *stripDecoder) sample(b []byte) float64 {
	o := d.l.order
	switch d.l.sampleFormat {
	case sampleInt:
		switch len(b) {
		case 1:
			return float64(int8(b[0]))
		case 2:
			return float64(int16(o.Uint16(b)))
		case 4:
			return float64(int32(o.Uint32(b)))
		case 8:
			return float64(int64(o.Uint64(b)))
		}
	case sampleFloat:
		switch len(b) {
		case 4:
			return float64(math.Float32frombits(o.Uint32(b)))
		case 8:
			return math.Float64frombits(o.Uint64(b))
		}
	default:
		switch len(b) {
		case 1:
			return float64(b[0])
		case 2:
			return float64(o.Uint16(b))
		case 4:
			return float64(o.Uint32(b))
		case 8:
			return float64(o.Uint64(b))
		}
	}
	return math.NaN()
}

func (d *stripDecoder) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

func checkRead(d Decoder, band int, win Window, dst []float64) error {
	w, h := d.Size()
	if band < 0 || band >= d.SampleBands() {
		return fmt.Errorf("band %d out of range [0,%d)", band, d.SampleBands())
	}
	if win.Empty() || !win.Within(w, h) {
		return fmt.Errorf("window %s outside %dx%d image", win, w, h)
	}
	if len(dst) < win.Len() {
		return fmt.Errorf("destination holds %d samples, window needs %d", len(dst), win.Len())
	}
	return nil
}
