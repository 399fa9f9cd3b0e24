// Package tiff decodes and encodes TIFF byte streams: header and IFD
// parsing with typed tag access, strip- and tile-organized pixel data,
// and the baseline lossless compression schemes (none, PackBits, LZW
// with horizontal predictor).
package tiff

import (
	"context"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/335g/gotiff/tiff/tag"
)

type options struct {
	warnf          func(format string, args ...any)
	limitEntries   uint32
	limitValueSize int64
	parallelism    int
}

// Option configures a Decoder.
type Option func(*options)

// WithWarnf installs a callback for non-fatal parse diagnostics, such as
// entries degraded for having unknown type codes. The default discards them.
func WithWarnf(f func(format string, args ...any)) Option {
	return func(o *options) { o.warnf = f }
}

// WithLimits caps the number of entries read per IFD and the byte size of a
// single resolved value, guarding against pathological files.
func WithLimits(maxEntries uint32, maxValueSize int64) Option {
	return func(o *options) {
		o.limitEntries = maxEntries
		o.limitValueSize = maxValueSize
	}
}

// WithParallelism sets how many strips or tiles decode concurrently.
// n < 1 means GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}

// Decoder reads one TIFF stream: the header is validated and the first IFD
// located up front, directories and pixel data are materialized on demand.
type Decoder struct {
	r     *reader
	opts  options
	first uint32

	mu     sync.Mutex
	chain  []*IFD
	images map[*IFD]*Image
}

// NewDecoder reads all of r and validates the TIFF header.
func NewDecoder(r io.Reader, opts ...Option) (*Decoder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{Kind: KindUnexpectedEOF, msg: "reading source", cause: err}
	}
	return NewDecoderBytes(data, opts...)
}

// NewDecoderBytes is NewDecoder over an in-memory source. The slice is
// retained and must not be mutated during use.
func NewDecoderBytes(data []byte, opts ...Option) (*Decoder, error) {
	o := options{
		warnf:          func(string, ...any) {},
		limitEntries:   4096,
		limitValueSize: 1 << 24,
		parallelism:    0,
	}
	for _, opt := range opts {
		opt(&o)
	}

	r, first, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if first == 0 {
		return nil, errf(KindInvalidHeader, "no IFDs")
	}
	return &Decoder{
		r:      r,
		opts:   o,
		first:  first,
		images: make(map[*IFD]*Image),
	}, nil
}

// FirstIFD parses and returns the first directory.
func (d *Decoder) FirstIFD() (*IFD, error) {
	return d.IFD(0)
}

// IFD walks the directory chain and returns the n-th directory (0-based),
// parsing and caching as it goes. Walking past the end of the chain fails
// with an out-of-range error.
func (d *Decoder) IFD(n int) (*IFD, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	seen := map[int64]bool{}
	for _, f := range d.chain {
		seen[f.Offset()] = true
	}

	for len(d.chain) <= n {
		var next int64
		if len(d.chain) == 0 {
			next = int64(d.first)
		} else {
			link := d.chain[len(d.chain)-1].NextOffset()
			if link == 0 {
				return nil, errf(KindOutOfRange, "IFD %d requested, chain has %d", n, len(d.chain))
			}
			next = int64(link)
		}
		if seen[next] {
			return nil, errAt(KindInconsistentLayout, next, "IFD chain loops")
		}
		seen[next] = true

		ifd, err := d.parseIFD(next)
		if err != nil {
			return nil, err
		}
		d.chain = append(d.chain, ifd)
	}
	return d.chain[n], nil
}

// IFDs walks and returns the whole directory chain. Any parse failure along
// the chain fails the walk; a truncated chain is never returned as success.
func (d *Decoder) IFDs() ([]*IFD, error) {
	for n := 0; ; n++ {
		ifd, err := d.IFD(n)
		if err != nil {
			return nil, err
		}
		if ifd.NextOffset() == 0 {
			break
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*IFD(nil), d.chain...), nil
}

// Value resolves the value of one tag without touching pixel data.
func (d *Decoder) Value(ifd *IFD, id tag.ID) (Value, error) {
	e, ok := ifd.Entry(id)
	if !ok {
		return Value{}, errTag(KindTagNotFound, id, "")
	}
	return d.resolve(e)
}

// Uint returns the first value of id as an unsigned integer, widening Byte,
// Short and Long storage.
func (d *Decoder) Uint(ifd *IFD, id tag.ID) (uint64, error) {
	v, err := d.Value(ifd, id)
	if err != nil {
		return 0, err
	}
	return v.Uint(0)
}

// Uints returns all values of id as unsigned integers.
func (d *Decoder) Uints(ifd *IFD, id tag.ID) ([]uint64, error) {
	v, err := d.Value(ifd, id)
	if err != nil {
		return nil, err
	}
	if v.Uints == nil {
		return nil, errTag(KindTypeMismatch, id, "stored as %s, want an unsigned integer type", v.Type)
	}
	return v.Uints, nil
}

// String returns the value of an ASCII tag with its NUL terminator trimmed.
func (d *Decoder) String(ifd *IFD, id tag.ID) (string, error) {
	v, err := d.Value(ifd, id)
	if err != nil {
		return "", err
	}
	return v.String()
}

// Rational returns the first value of a rational tag.
func (d *Decoder) Rational(ifd *IFD, id tag.ID) (Rat, error) {
	v, err := d.Value(ifd, id)
	if err != nil {
		return Rat{}, err
	}
	return v.Rational(0)
}

// Image materializes the pixel data of one directory. Results are cached per
// IFD; repeated calls return the same Image. On any failure no partial image
// is returned.
func (d *Decoder) Image(ifd *IFD) (*Image, error) {
	d.mu.Lock()
	if img, ok := d.images[ifd]; ok {
		d.mu.Unlock()
		return img, nil
	}
	d.mu.Unlock()

	img, err := d.decodeImage(ifd)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.images[ifd] = img
	d.mu.Unlock()
	return img, nil
}

func (d *Decoder) decodeImage(ifd *IFD) (*Image, error) {
	l, err := d.gatherLayout(ifd)
	if err != nil {
		return nil, err
	}

	switch l.predictor {
	case PredictorNone:
	case PredictorHorizontal:
		if l.bits < 8 {
			return nil, errTag(KindUnsupportedCompression, tag.Predictor, "horizontal differencing with %d-bit samples", l.bits)
		}
	default:
		return nil, errTag(KindUnsupportedCompression, tag.Predictor, "predictor %d", l.predictor)
	}

	segs, err := d.segments(ifd, l)
	if err != nil {
		return nil, err
	}

	img := &Image{
		Width:       l.width,
		Height:      l.height,
		Planar:      l.planar,
		Compression: l.compression,
	}

	// The output buffer is normalized: WhiteIsZero is inverted into
	// BlackIsZero polarity and palettes are expanded to RGB, so the
	// reported photometric always describes the buffer as stored.
	if l.photometric == Paletted {
		img.Photometric = RGB
		img.SamplesPerPixel = 3
		img.BitsPerSample = []uint16{16, 16, 16}
		img.Pix16 = make([]uint16, l.width*l.height*3)
	} else {
		img.Photometric = l.photometric
		if img.Photometric == WhiteIsZero {
			img.Photometric = BlackIsZero
		}
		img.SamplesPerPixel = l.samplesPerPixel
		img.BitsPerSample = make([]uint16, l.samplesPerPixel)
		for i := range img.BitsPerSample {
			img.BitsPerSample[i] = uint16(l.bits)
		}
		if l.bits == 16 {
			img.Pix16 = make([]uint16, l.width*l.height*l.samplesPerPixel)
		} else {
			img.Pix8 = make([]uint8, l.width*l.height*l.samplesPerPixel)
		}
	}

	par := d.opts.parallelism
	if par < 1 {
		par = runtime.GOMAXPROCS(0)
	}

	// Each segment decodes independently and writes only its own region of
	// the output buffer, so no locking is needed; the first failure stops
	// further dispatch and fails the whole decode.
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(par)
	for _, seg := range segs {
		if ctx.Err() != nil {
			break
		}
		seg := seg
		g.Go(func() error {
			raw, err := d.r.slice(seg.offset, seg.length)
			if err != nil {
				return err
			}
			want := seg.decodedLen(l.bits)
			data, err := decodeSegment(l.compression, raw, want)
			if err != nil {
				return err
			}
			if l.predictor == PredictorHorizontal {
				if l.compression == CompressionNone {
					// decodeSegment passed the source through; keep the
					// source immutable.
					data = append([]byte(nil), data...)
				}
				undoPredictor(data, seg.rowBytes(l.bits), seg.samples, l.bits, d.r.order)
			}
			d.assembleSegment(l, img, seg, data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return img, nil
}
