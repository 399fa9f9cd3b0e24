package tiff

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/335g/gotiff/tiff/tag"
)

// Output is always little-endian; the decoder accepts either order.
var enc = binary.LittleEndian

// The layout of a written stream is fixed:
//
//	1. Header (8 bytes).
//	2. Compressed strip data.
//	3. The IFD.
//	4. Pointer area for entry values larger than 4 bytes.

type encodeOptions struct {
	compression  Compression
	predictor    Predictor
	rowsPerStrip int // 0 means one strip for the whole image
}

// EncodeOption configures an Encoder.
type EncodeOption func(*encodeOptions)

// WithCompression selects the strip compression scheme. The default is none.
func WithCompression(c Compression) EncodeOption {
	return func(o *encodeOptions) { o.compression = c }
}

// WithPredictor enables horizontal differencing. Only meaningful together
// with LZW compression, as in the format's own usage.
func WithPredictor(p Predictor) EncodeOption {
	return func(o *encodeOptions) { o.predictor = p }
}

// WithRowsPerStrip splits pixel data into strips of n rows each. The default
// writes the whole image as one strip.
func WithRowsPerStrip(n int) EncodeOption {
	return func(o *encodeOptions) { o.rowsPerStrip = n }
}

// Encoder serializes Images into TIFF byte streams.
type Encoder struct {
	w    io.Writer
	opts encodeOptions
}

// NewEncoder prepares an encoder writing to w.
func NewEncoder(w io.Writer, opts ...EncodeOption) (*Encoder, error) {
	o := encodeOptions{compression: CompressionNone, predictor: PredictorNone}
	for _, opt := range opts {
		opt(&o)
	}
	switch o.compression {
	case CompressionNone, CompressionPackBits, CompressionLZW:
	default:
		return nil, errf(KindUnsupportedCompression, "%s", o.compression)
	}
	if o.predictor == PredictorHorizontal && o.compression != CompressionLZW {
		return nil, errf(KindUnsupportedCompression, "horizontal differencing requires LZW")
	}
	return &Encoder{w: w, opts: o}, nil
}

// Encode writes w header, strip data and one IFD for img. The pixel buffer
// is written verbatim under the declared photometric interpretation; sample
// planes are always interleaved (chunky) on output. Round-tripping through
// Decoder.Image with a lossless compression reproduces the buffer exactly.
func Encode(w io.Writer, img *Image, opts ...EncodeOption) error {
	e, err := NewEncoder(w, opts...)
	if err != nil {
		return err
	}
	return e.Encode(img)
}

func (e *Encoder) validate(img *Image) (bits int, err error) {
	if img.Width <= 0 || img.Height <= 0 || img.SamplesPerPixel <= 0 {
		return 0, errf(KindInconsistentLayout, "implausible dimensions %dx%dx%d", img.Width, img.Height, img.SamplesPerPixel)
	}
	if len(img.BitsPerSample) == 0 {
		return 0, errf(KindMissingRequiredTag, "image declares no bit depth")
	}
	for _, b := range img.BitsPerSample {
		if b != img.BitsPerSample[0] {
			return 0, errf(KindInconsistentLayout, "non-uniform bit depths %v", img.BitsPerSample)
		}
	}
	bits = int(img.BitsPerSample[0])
	switch bits {
	case 1, 2, 4, 8:
		if want := img.Width * img.Height * img.SamplesPerPixel; len(img.Pix8) != want {
			return 0, errf(KindInconsistentLayout, "Pix8 has %d samples, want %d", len(img.Pix8), want)
		}
	case 16:
		if want := img.Width * img.Height * img.SamplesPerPixel; len(img.Pix16) != want {
			return 0, errf(KindInconsistentLayout, "Pix16 has %d samples, want %d", len(img.Pix16), want)
		}
	default:
		return 0, errf(KindInconsistentLayout, "unsupported bit depth %d", bits)
	}
	if img.Photometric == Paletted {
		if img.SamplesPerPixel != 1 {
			return 0, errf(KindInconsistentLayout, "palette image with %d samples per pixel", img.SamplesPerPixel)
		}
		if len(img.ColorMap) != 3*(1<<bits) {
			return 0, errTag(KindInconsistentLayout, tag.ColorMap, "%d entries for %d-bit indices", len(img.ColorMap), bits)
		}
	}
	if e.opts.predictor == PredictorHorizontal && bits < 8 {
		return 0, errf(KindUnsupportedCompression, "horizontal differencing with %d-bit samples", bits)
	}
	return bits, nil
}

// packRows serializes rows [y0, y1) of the pixel buffer into the wire
// representation: sub-byte samples packed MSB-first with rows padded to a
// byte boundary, 16-bit samples little-endian. Stored sub-byte samples are
// mapped back from their widened 8-bit form; palette indices are raw.
func packRows(img *Image, bits, y0, y1 int) []byte {
	spp := img.SamplesPerPixel
	rowBytes := (img.Width*spp*bits + 7) / 8
	out := make([]byte, rowBytes*(y1-y0))

	switch bits {
	case 8:
		for y := y0; y < y1; y++ {
			copy(out[(y-y0)*rowBytes:], img.Pix8[y*img.Width*spp:(y+1)*img.Width*spp])
		}
	case 16:
		for y := y0; y < y1; y++ {
			row := out[(y-y0)*rowBytes:]
			src := img.Pix16[y*img.Width*spp : (y+1)*img.Width*spp]
			for i, v := range src {
				enc.PutUint16(row[i*2:], v)
			}
		}
	default:
		maxRaw := uint32(1)<<bits - 1
		for y := y0; y < y1; y++ {
			row := out[(y-y0)*rowBytes:]
			var acc uint32
			var n, bi int
			for i := y * img.Width * spp; i < (y+1)*img.Width*spp; i++ {
				raw := uint32(img.Pix8[i])
				if img.Photometric != Paletted {
					raw = raw * maxRaw / 255
				}
				acc = acc<<bits | raw
				n += bits
				for n >= 8 {
					n -= 8
					row[bi] = byte(acc >> n)
					bi++
				}
			}
			if n > 0 {
				row[bi] = byte(acc << (8 - n))
			}
		}
	}
	return out
}

// ifdEntry is one directory entry staged for serialization. Rational values
// occupy two consecutive uint32s.
type ifdEntry struct {
	id   tag.ID
	typ  tag.Type
	data []uint32
}

func (e ifdEntry) count() uint32 {
	n := uint32(len(e.data))
	if e.typ == tag.Rational {
		n /= 2
	}
	return n
}

func (e ifdEntry) putData(p []byte) {
	for _, d := range e.data {
		switch e.typ {
		case tag.Byte, tag.ASCII:
			p[0] = byte(d)
			p = p[1:]
		case tag.Short:
			enc.PutUint16(p, uint16(d))
			p = p[2:]
		default: // Long, Rational
			enc.PutUint32(p, d)
			p = p[4:]
		}
	}
}

// Encode writes img to the underlying writer.
func (e *Encoder) Encode(img *Image) error {
	bits, err := e.validate(img)
	if err != nil {
		return err
	}

	rps := e.opts.rowsPerStrip
	if rps <= 0 || rps > img.Height {
		rps = img.Height
	}
	nStrips := (img.Height + rps - 1) / rps
	spp := img.SamplesPerPixel
	rowBytes := (img.Width*spp*bits + 7) / 8

	strips := make([][]byte, nStrips)
	for s := 0; s < nStrips; s++ {
		y0 := s * rps
		y1 := y0 + rps
		if y1 > img.Height {
			y1 = img.Height
		}
		raw := packRows(img, bits, y0, y1)
		if e.opts.predictor == PredictorHorizontal {
			applyPredictor(raw, rowBytes, spp, bits, enc)
		}
		compressed, err := encodeSegment(e.opts.compression, raw)
		if err != nil {
			return err
		}
		strips[s] = compressed
	}

	offsets := make([]uint32, nStrips)
	counts := make([]uint32, nStrips)
	off := uint32(headerSize)
	for s, data := range strips {
		offsets[s] = off
		counts[s] = uint32(len(data))
		off += uint32(len(data))
	}
	dataLen := off - headerSize

	bitsData := make([]uint32, spp)
	for i := range bitsData {
		bitsData[i] = uint32(bits)
	}

	ifd := []ifdEntry{
		{tag.ImageWidth, tag.Long, []uint32{uint32(img.Width)}},
		{tag.ImageLength, tag.Long, []uint32{uint32(img.Height)}},
		{tag.BitsPerSample, tag.Short, bitsData},
		{tag.Compression, tag.Short, []uint32{uint32(e.opts.compression)}},
		{tag.PhotometricInterpretation, tag.Short, []uint32{uint32(img.Photometric)}},
		{tag.StripOffsets, tag.Long, offsets},
		{tag.SamplesPerPixel, tag.Short, []uint32{uint32(spp)}},
		{tag.RowsPerStrip, tag.Long, []uint32{uint32(rps)}},
		{tag.StripByteCounts, tag.Long, counts},
		{tag.XResolution, tag.Rational, []uint32{defaultResolution, 1}},
		{tag.YResolution, tag.Rational, []uint32{defaultResolution, 1}},
		{tag.PlanarConfiguration, tag.Short, []uint32{uint32(PlanarChunky)}},
		{tag.ResolutionUnit, tag.Short, []uint32{resolutionPerInch}},
	}
	if e.opts.predictor == PredictorHorizontal {
		ifd = append(ifd, ifdEntry{tag.Predictor, tag.Short, []uint32{uint32(PredictorHorizontal)}})
	}
	if img.Photometric == Paletted {
		cm := make([]uint32, len(img.ColorMap))
		for i, v := range img.ColorMap {
			cm[i] = uint32(v)
		}
		ifd = append(ifd, ifdEntry{tag.ColorMap, tag.Short, cm})
	}
	if img.Photometric == RGB && spp == 4 {
		// The fourth channel is unassociated alpha.
		ifd = append(ifd, ifdEntry{tag.ExtraSamples, tag.Short, []uint32{2}})
	}

	// Entries must be written in ascending tag order.
	sort.Slice(ifd, func(i, j int) bool { return ifd[i].id < ifd[j].id })

	var hdr [headerSize]byte
	enc.PutUint16(hdr[0:2], intelByteOrder)
	enc.PutUint16(hdr[2:4], magicNumber)
	enc.PutUint32(hdr[4:8], headerSize+dataLen) // IFD follows the strip data
	if _, err := e.w.Write(hdr[:]); err != nil {
		return err
	}
	for _, data := range strips {
		if _, err := e.w.Write(data); err != nil {
			return err
		}
	}

	// Serialize the directory with a pointer area for values over 4 bytes.
	pstart := headerSize + dataLen + 2 + uint32(len(ifd))*entrySize + 4
	var parea []byte
	buf := make([]byte, 2, 2+len(ifd)*entrySize+4)
	enc.PutUint16(buf[0:2], uint16(len(ifd)))
	var ent [entrySize]byte
	for _, en := range ifd {
		enc.PutUint16(ent[0:2], uint16(en.id))
		enc.PutUint16(ent[2:4], uint16(en.typ))
		enc.PutUint32(ent[4:8], en.count())
		enc.PutUint32(ent[8:12], 0)
		datalen := int(en.count() * en.typ.Size())
		if datalen <= 4 {
			en.putData(ent[8:12])
		} else {
			vals := make([]byte, datalen)
			en.putData(vals)
			enc.PutUint32(ent[8:12], pstart+uint32(len(parea)))
			parea = append(parea, vals...)
		}
		buf = append(buf, ent[:]...)
	}
	buf = append(buf, 0, 0, 0, 0) // no next IFD
	if _, err := e.w.Write(buf); err != nil {
		return err
	}
	_, err = e.w.Write(parea)
	return err
}
