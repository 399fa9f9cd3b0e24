package tiff

import (
	"fmt"

	"github.com/335g/gotiff/tiff/tag"
)

// Entry is one 12-byte IFD entry. The four-byte value field holds the data
// itself when count*size fits in it, otherwise an offset to the data; which
// of the two is decided purely by size, never by tag identity.
type Entry struct {
	ID    tag.ID
	Type  tag.Type
	Count uint32

	// RawType is the type code as stored in the file. It differs from Type
	// only when the code was unrecognized and degraded to Undefined.
	RawType uint16

	// fieldOffset is the absolute position of the entry's value field.
	fieldOffset int64
}

// byteLen returns the total encoded size of the entry's values.
func (e Entry) byteLen() int64 {
	return int64(e.Type.Size()) * int64(e.Count)
}

// inline reports whether the values live in the 4-byte field itself.
func (e Entry) inline() bool {
	return e.byteLen() <= 4
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s[%d]", tag.Name(e.ID), e.Type, e.Count)
}

// IFD is one image file directory: an ordered set of entries, unique by tag
// id, plus the offset of the next directory in the chain (0 means terminal).
// IFDs are immutable once parsed.
type IFD struct {
	offset  int64
	entries []Entry
	index   map[tag.ID]int
	next    uint32
}

// Entries returns the entries in file order.
func (f *IFD) Entries() []Entry { return f.entries }

// Entry returns the entry for id, if present.
func (f *IFD) Entry(id tag.ID) (Entry, bool) {
	i, ok := f.index[id]
	if !ok {
		return Entry{}, false
	}
	return f.entries[i], true
}

// Has reports whether id is present.
func (f *IFD) Has(id tag.ID) bool {
	_, ok := f.index[id]
	return ok
}

// Offset is the absolute position of the directory in the source.
func (f *IFD) Offset() int64 { return f.offset }

// NextOffset is the absolute position of the next directory in the chain,
// or 0 if this is the last one.
func (f *IFD) NextOffset() uint32 { return f.next }

// insert adds an entry, letting a later duplicate of the same id win.
func (f *IFD) insert(e Entry) {
	if i, ok := f.index[e.ID]; ok {
		f.entries[i] = e
		return
	}
	f.index[e.ID] = len(f.entries)
	f.entries = append(f.entries, e)
}

// Rat is a rational number as stored in a Rational or SRational value.
// Fields are int64 so one type covers both the signed and unsigned variants.
type Rat struct {
	Num, Den int64
}

// Value is the decoded data of one entry: exactly one of the payload slices
// is populated, according to Type. Integral types (Byte, Short, Long and
// their signed forms) are widened to 64 bits so callers get one uniform
// integer view, as the format's documented widening rules allow.
type Value struct {
	Type  tag.Type
	Count uint32

	Uints  []uint64
	Ints   []int64
	Floats []float64
	Rats   []Rat
	Str    string
	Raw    []byte
}

// Uint returns the i-th value as an unsigned integer. It fails with a
// TypeMismatch error for non-integral types rather than coercing.
func (v Value) Uint(i int) (uint64, error) {
	switch v.Type {
	case tag.Byte, tag.Short, tag.Long:
		if i < 0 || i >= len(v.Uints) {
			return 0, errf(KindOutOfRange, "value index %d of %d", i, len(v.Uints))
		}
		return v.Uints[i], nil
	default:
		return 0, errf(KindTypeMismatch, "%s is not an unsigned integer type", v.Type)
	}
}

// Int returns the i-th value as a signed integer, accepting both signed and
// unsigned integral storage types.
func (v Value) Int(i int) (int64, error) {
	switch v.Type {
	case tag.Byte, tag.Short, tag.Long:
		u, err := v.Uint(i)
		return int64(u), err
	case tag.SByte, tag.SShort, tag.SLong:
		if i < 0 || i >= len(v.Ints) {
			return 0, errf(KindOutOfRange, "value index %d of %d", i, len(v.Ints))
		}
		return v.Ints[i], nil
	default:
		return 0, errf(KindTypeMismatch, "%s is not an integer type", v.Type)
	}
}

// Rational returns the i-th value as a rational.
func (v Value) Rational(i int) (Rat, error) {
	if v.Type != tag.Rational && v.Type != tag.SRational {
		return Rat{}, errf(KindTypeMismatch, "%s is not a rational type", v.Type)
	}
	if i < 0 || i >= len(v.Rats) {
		return Rat{}, errf(KindOutOfRange, "value index %d of %d", i, len(v.Rats))
	}
	return v.Rats[i], nil
}

// String returns the ASCII payload with its NUL terminator trimmed.
func (v Value) String() (string, error) {
	if v.Type != tag.ASCII {
		return "", errf(KindTypeMismatch, "%s is not ASCII", v.Type)
	}
	return v.Str, nil
}
