package tiff

import (
	"encoding/binary"
	"math"
)

// reader is a bounds-checked, endianness-aware view over the source bytes.
// All positioning is explicit; there is no shared cursor, so concurrent tag
// resolution and strip decoding can read through the same view safely. The
// underlying slice is never mutated.
type reader struct {
	data  []byte
	order binary.ByteOrder
}

func (r *reader) size() int64 { return int64(len(r.data)) }

// slice returns n bytes starting at off, or an out-of-range error when the
// span exceeds the source. The returned slice aliases the source and must be
// treated as read-only.
func (r *reader) slice(off, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off > r.size()-n {
		return nil, errAt(KindOutOfRange, off, "%d bytes requested, source is %d bytes", n, r.size())
	}
	return r.data[off : off+n], nil
}

func (r *reader) u16(off int64) (uint16, error) {
	b, err := r.slice(off, 2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r *reader) u32(off int64) (uint32, error) {
	b, err := r.slice(off, 4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *reader) f32(off int64) (float32, error) {
	v, err := r.u32(off)
	return math.Float32frombits(v), err
}

func (r *reader) f64(off int64) (float64, error) {
	b, err := r.slice(off, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(r.order.Uint64(b)), nil
}
