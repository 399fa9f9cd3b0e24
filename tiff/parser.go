package tiff

import (
	"bytes"
	"encoding/binary"

	"github.com/335g/gotiff/tiff/tag"
)

// parseHeader validates the byte-order marker and magic number and returns a
// byte cursor plus the offset of the first IFD.
func parseHeader(data []byte) (*reader, uint32, error) {
	if len(data) < headerSize {
		return nil, 0, errf(KindInvalidHeader, "source is %d bytes, header needs %d", len(data), headerSize)
	}

	// The marker bytes are endianness-independent, so any order works here.
	var order binary.ByteOrder
	switch binary.LittleEndian.Uint16(data[0:2]) {
	case intelByteOrder:
		order = binary.LittleEndian
	case motorolaByteOrder:
		order = binary.BigEndian
	default:
		return nil, 0, errf(KindInvalidHeader, "unknown byte order marker 0x%X", data[0:2])
	}

	r := &reader{data: data, order: order}

	magic, err := r.u16(2)
	if err != nil {
		return nil, 0, err
	}
	if magic != magicNumber {
		return nil, 0, errf(KindInvalidHeader, "magic number is %d, want %d", magic, magicNumber)
	}

	first, err := r.u32(4)
	if err != nil {
		return nil, 0, err
	}
	if first != 0 && int64(first) < headerSize {
		return nil, 0, errf(KindInvalidHeader, "first IFD offset %d overlaps the header", first)
	}
	return r, first, nil
}

// parseIFD reads the directory at offset: entry count, the 12-byte entries,
// and the next-IFD link. A malformed individual entry is degraded and
// reported through Warnf; an unreadable entry count is fatal.
func (d *Decoder) parseIFD(offset int64) (*IFD, error) {
	count, err := d.r.u16(offset)
	if err != nil {
		return nil, &Error{Kind: KindUnexpectedEOF, Offset: offset, msg: "unreadable IFD entry count", cause: err}
	}
	if uint32(count) > d.opts.limitEntries {
		return nil, errAt(KindOutOfRange, offset, "IFD declares %d entries, limit is %d", count, d.opts.limitEntries)
	}

	ifd := &IFD{
		offset: offset,
		index:  make(map[tag.ID]int, count),
	}

	for i := 0; i < int(count); i++ {
		base := offset + 2 + int64(i)*entrySize
		raw, err := d.r.slice(base, entrySize)
		if err != nil {
			// The directory record itself is truncated, nothing after this
			// entry can be read either.
			return nil, &Error{Kind: KindUnexpectedEOF, Offset: base, msg: "truncated IFD entry", cause: err}
		}

		e := Entry{
			ID:          tag.ID(d.r.order.Uint16(raw[0:2])),
			RawType:     d.r.order.Uint16(raw[2:4]),
			Count:       d.r.order.Uint32(raw[4:8]),
			fieldOffset: base + 8,
		}
		e.Type = tag.Type(e.RawType)
		if !e.Type.Valid() {
			// Forward compatibility: unrecognized type codes are preserved as
			// Undefined raw bytes instead of failing the whole directory.
			d.opts.warnf("tiff: entry %s has unknown type code %d, keeping raw bytes", tag.Name(e.ID), e.RawType)
			e.Type = tag.Undefined
		}
		if !tag.Allows(e.ID, e.Type) {
			// Advisory only: the registry never aborts parsing.
			d.opts.warnf("tiff: entry %s stored as %s, which the registry does not list for it", tag.Name(e.ID), e.Type)
		}
		ifd.insert(e)
	}

	nextOff := offset + 2 + int64(count)*entrySize
	next, err := d.r.u32(nextOff)
	if err != nil {
		d.opts.warnf("tiff: unreadable next-IFD link at %#x, treating directory as terminal", nextOff)
		next = 0
	}
	ifd.next = next
	return ifd, nil
}

// resolve decodes the value of one entry, following the value field as an
// offset when count*size exceeds four bytes. It never reads past the source:
// a bad offset/count pair fails with OutOfRange.
func (d *Decoder) resolve(e Entry) (Value, error) {
	size := e.Type.Size()
	if size == 0 {
		size = 1
	}
	total := int64(size) * int64(e.Count)
	if total > d.opts.limitValueSize {
		return Value{}, errTag(KindOutOfRange, e.ID, "value is %d bytes, limit is %d", total, d.opts.limitValueSize)
	}

	dataOff := e.fieldOffset
	if !e.inline() {
		off, err := d.r.u32(e.fieldOffset)
		if err != nil {
			return Value{}, err
		}
		dataOff = int64(off)
	}

	raw, err := d.r.slice(dataOff, total)
	if err != nil {
		return Value{}, &Error{Kind: KindOutOfRange, Offset: dataOff, Tag: e.ID, msg: "value data out of range", cause: err}
	}

	v := Value{Type: e.Type, Count: e.Count}
	n := int(e.Count)
	order := d.r.order

	switch e.Type {
	case tag.Byte:
		v.Uints = make([]uint64, n)
		for i := 0; i < n; i++ {
			v.Uints[i] = uint64(raw[i])
		}
	case tag.Short:
		v.Uints = make([]uint64, n)
		for i := 0; i < n; i++ {
			v.Uints[i] = uint64(order.Uint16(raw[i*2:]))
		}
	case tag.Long:
		v.Uints = make([]uint64, n)
		for i := 0; i < n; i++ {
			v.Uints[i] = uint64(order.Uint32(raw[i*4:]))
		}
	case tag.SByte:
		v.Ints = make([]int64, n)
		for i := 0; i < n; i++ {
			v.Ints[i] = int64(int8(raw[i]))
		}
	case tag.SShort:
		v.Ints = make([]int64, n)
		for i := 0; i < n; i++ {
			v.Ints[i] = int64(int16(order.Uint16(raw[i*2:])))
		}
	case tag.SLong:
		v.Ints = make([]int64, n)
		for i := 0; i < n; i++ {
			v.Ints[i] = int64(int32(order.Uint32(raw[i*4:])))
		}
	case tag.Rational:
		v.Rats = make([]Rat, n)
		for i := 0; i < n; i++ {
			v.Rats[i] = Rat{
				Num: int64(order.Uint32(raw[i*8:])),
				Den: int64(order.Uint32(raw[i*8+4:])),
			}
		}
	case tag.SRational:
		v.Rats = make([]Rat, n)
		for i := 0; i < n; i++ {
			v.Rats[i] = Rat{
				Num: int64(int32(order.Uint32(raw[i*8:]))),
				Den: int64(int32(order.Uint32(raw[i*8+4:]))),
			}
		}
	case tag.Float:
		v.Floats = make([]float64, n)
		for i := 0; i < n; i++ {
			f, _ := (&reader{data: raw, order: order}).f32(int64(i * 4))
			v.Floats[i] = float64(f)
		}
	case tag.Double:
		v.Floats = make([]float64, n)
		for i := 0; i < n; i++ {
			f, _ := (&reader{data: raw, order: order}).f64(int64(i * 8))
			v.Floats[i] = f
		}
	case tag.ASCII:
		v.Str = string(bytes.TrimRight(raw, "\x00"))
	default: // tag.Undefined and degraded unknown types
		v.Raw = append([]byte(nil), raw...)
	}
	return v, nil
}
