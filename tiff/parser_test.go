package tiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/335g/gotiff/tiff/tag"
)

func TestParseHeader(t *testing.T) {
	le := newBuilder(binary.LittleEndian)
	le.addLong(tag.ImageWidth, 7)
	be := newBuilder(binary.BigEndian)
	be.addLong(tag.ImageWidth, 7)

	t.Run("little-endian", func(t *testing.T) {
		d, err := NewDecoderBytes(le.build())
		require.NoError(t, err)
		w, err := d.Uint(mustFirstIFD(t, d), tag.ImageWidth)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), w)
	})

	t.Run("big-endian", func(t *testing.T) {
		d, err := NewDecoderBytes(be.build())
		require.NoError(t, err)
		w, err := d.Uint(mustFirstIFD(t, d), tag.ImageWidth)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), w)
	})

	t.Run("reader source", func(t *testing.T) {
		d, err := NewDecoder(bytes.NewReader(le.build()))
		require.NoError(t, err)
		_, err = d.FirstIFD()
		assert.NoError(t, err)
	})
}

func mustFirstIFD(t *testing.T, d *Decoder) *IFD {
	t.Helper()
	ifd, err := d.FirstIFD()
	require.NoError(t, err)
	return ifd
}

func TestParseHeaderErrors(t *testing.T) {
	valid := newBuilder(binary.LittleEndian)
	valid.addLong(tag.ImageWidth, 7)
	good := valid.build()

	badMarker := append([]byte(nil), good...)
	badMarker[0], badMarker[1] = 'X', 'X'

	badMagic := append([]byte(nil), good...)
	badMagic[2] = 43

	overlapping := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(overlapping[4:], 4) // inside the header

	noIFDs := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(noIFDs[4:], 0)

	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", good[:6]},
		{"bad byte order marker", badMarker},
		{"bad magic", badMagic},
		{"first IFD inside header", overlapping},
		{"zero IFDs", noIFDs},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDecoderBytes(tc.data)
			assert.ErrorIs(t, err, ErrInvalidHeader)
		})
	}
}

func TestParseIFDInlineAndOffset(t *testing.T) {
	b := newBuilder(binary.LittleEndian)
	b.addShort(tag.ImageWidth, 640)           // 2 bytes, inline
	b.addLong(tag.StripOffsets, 8, 100, 200)  // 12 bytes, pointer area
	b.addASCII(tag.Software, "gotiff test")   // 12 bytes, pointer area
	b.addEntry(tag.XResolution, tag.Rational, 1, b.u32s(300, 1))

	d, err := NewDecoderBytes(b.build())
	require.NoError(t, err)
	ifd := mustFirstIFD(t, d)
	assert.Len(t, ifd.Entries(), 4)

	w, err := d.Uint(ifd, tag.ImageWidth)
	require.NoError(t, err)
	assert.Equal(t, uint64(640), w)

	offs, err := d.Uints(ifd, tag.StripOffsets)
	require.NoError(t, err)
	assert.Equal(t, []uint64{8, 100, 200}, offs)

	s, err := d.String(ifd, tag.Software)
	require.NoError(t, err)
	assert.Equal(t, "gotiff test", s)

	r, err := d.Rational(ifd, tag.XResolution)
	require.NoError(t, err)
	assert.Equal(t, Rat{Num: 300, Den: 1}, r)
}

func TestParseIFDUnknownType(t *testing.T) {
	b := newBuilder(binary.LittleEndian)
	b.addShort(tag.ImageWidth, 640)
	b.addEntryRaw(tag.ID(0x9999), 200, 4, [4]byte{0xDE, 0xAD, 0xBE, 0xEF})

	var warnings []string
	d, err := NewDecoderBytes(b.build(), WithWarnf(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}))
	require.NoError(t, err)
	ifd := mustFirstIFD(t, d)

	e, ok := ifd.Entry(tag.ID(0x9999))
	require.True(t, ok)
	assert.Equal(t, tag.Undefined, e.Type)
	assert.Equal(t, uint16(200), e.RawType)

	v, err := d.Value(ifd, tag.ID(0x9999))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, v.Raw)

	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "unknown type code 200")

	// The unrelated entry still resolves normally.
	w, err := d.Uint(ifd, tag.ImageWidth)
	require.NoError(t, err)
	assert.Equal(t, uint64(640), w)
}

func TestParseIFDDuplicateTagLastWins(t *testing.T) {
	b := newBuilder(binary.LittleEndian)
	b.addLong(tag.ImageWidth, 640)
	b.addLong(tag.ImageWidth, 800)

	d, err := NewDecoderBytes(b.build())
	require.NoError(t, err)
	ifd := mustFirstIFD(t, d)

	assert.Len(t, ifd.Entries(), 1)
	w, err := d.Uint(ifd, tag.ImageWidth)
	require.NoError(t, err)
	assert.Equal(t, uint64(800), w)
}

func TestParseIFDTruncated(t *testing.T) {
	b := newBuilder(binary.LittleEndian)
	b.addLong(tag.ImageWidth, 640)
	data := b.build()

	t.Run("count unreadable", func(t *testing.T) {
		d, err := NewDecoderBytes(data[:headerSize+1])
		require.NoError(t, err)
		_, err = d.FirstIFD()
		assert.ErrorIs(t, err, ErrUnexpectedEOF)
	})

	t.Run("entry record truncated", func(t *testing.T) {
		d, err := NewDecoderBytes(data[:headerSize+2+5])
		require.NoError(t, err)
		_, err = d.FirstIFD()
		assert.ErrorIs(t, err, ErrUnexpectedEOF)
	})

	t.Run("next link unreadable is terminal", func(t *testing.T) {
		var warnings []string
		d, err := NewDecoderBytes(data[:headerSize+2+entrySize], WithWarnf(func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		}))
		require.NoError(t, err)
		ifd := mustFirstIFD(t, d)
		assert.Equal(t, uint32(0), ifd.NextOffset())
		assert.NotEmpty(t, warnings)
	})
}

func TestResolveOutOfRange(t *testing.T) {
	b := newBuilder(binary.LittleEndian)
	// Count of 1000 longs with the value field pointing near the end.
	b.addEntryRaw(tag.StripOffsets, uint16(tag.Long), 1000, [4]byte{0xF0, 0x00, 0x00, 0x00})

	d, err := NewDecoderBytes(b.build())
	require.NoError(t, err)
	_, err = d.Value(mustFirstIFD(t, d), tag.StripOffsets)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDecoderLimits(t *testing.T) {
	t.Run("entry count", func(t *testing.T) {
		b := newBuilder(binary.LittleEndian)
		b.addLong(tag.ImageWidth, 1)
		b.addLong(tag.ImageLength, 1)
		b.addShort(tag.SamplesPerPixel, 1)

		d, err := NewDecoderBytes(b.build(), WithLimits(2, 1<<20))
		require.NoError(t, err)
		_, err = d.FirstIFD()
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("value size", func(t *testing.T) {
		b := newBuilder(binary.LittleEndian)
		b.addASCII(tag.ImageDescription, "a fairly long description string")

		d, err := NewDecoderBytes(b.build(), WithLimits(4096, 8))
		require.NoError(t, err)
		_, err = d.String(mustFirstIFD(t, d), tag.ImageDescription)
		assert.ErrorIs(t, err, ErrOutOfRange)
	})
}

func TestIFDChain(t *testing.T) {
	// Two minimal directories built by hand: the builder only emits one.
	le := binary.LittleEndian
	entry := func(out []byte, id tag.ID, val uint32) []byte {
		out = le.AppendUint16(out, uint16(id))
		out = le.AppendUint16(out, uint16(tag.Long))
		out = le.AppendUint32(out, 1)
		return le.AppendUint32(out, val)
	}

	var data []byte
	data = le.AppendUint16(data, intelByteOrder)
	data = le.AppendUint16(data, magicNumber)
	data = le.AppendUint32(data, headerSize)

	second := uint32(headerSize + 2 + entrySize + 4)
	data = le.AppendUint16(data, 1)
	data = entry(data, tag.ImageWidth, 7)
	data = le.AppendUint32(data, second)

	data = le.AppendUint16(data, 1)
	data = entry(data, tag.ImageWidth, 9)
	data = le.AppendUint32(data, 0)

	d, err := NewDecoderBytes(data)
	require.NoError(t, err)

	ifds, err := d.IFDs()
	require.NoError(t, err)
	require.Len(t, ifds, 2)

	for i, want := range []uint64{7, 9} {
		w, err := d.Uint(ifds[i], tag.ImageWidth)
		require.NoError(t, err)
		assert.Equal(t, want, w)
	}

	_, err = d.IFD(2)
	assert.ErrorIs(t, err, ErrOutOfRange)

	// IFD(n) returns the cached directory on repeat calls.
	again, err := d.IFD(1)
	require.NoError(t, err)
	assert.Same(t, ifds[1], again)
}

func TestIFDsPropagatesMidChainFailure(t *testing.T) {
	// The second directory declares more entries than the configured limit.
	// The chain walk must surface that, not return a truncated chain.
	le := binary.LittleEndian
	entry := func(out []byte, id tag.ID, val uint32) []byte {
		out = le.AppendUint16(out, uint16(id))
		out = le.AppendUint16(out, uint16(tag.Long))
		out = le.AppendUint32(out, 1)
		return le.AppendUint32(out, val)
	}

	var data []byte
	data = le.AppendUint16(data, intelByteOrder)
	data = le.AppendUint16(data, magicNumber)
	data = le.AppendUint32(data, headerSize)

	second := uint32(headerSize + 2 + entrySize + 4)
	data = le.AppendUint16(data, 1)
	data = entry(data, tag.ImageWidth, 7)
	data = le.AppendUint32(data, second)

	data = le.AppendUint16(data, 2)
	data = entry(data, tag.ImageWidth, 9)
	data = entry(data, tag.ImageLength, 9)
	data = le.AppendUint32(data, 0)

	d, err := NewDecoderBytes(data, WithLimits(1, 1<<20))
	require.NoError(t, err)

	_, err = d.IFDs()
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestIFDChainLoop(t *testing.T) {
	b := newBuilder(binary.LittleEndian)
	b.addLong(tag.ImageWidth, 7)
	data := b.build()

	// Point the next-IFD link back at the directory itself.
	linkOff := headerSize + 2 + entrySize
	binary.LittleEndian.PutUint32(data[linkOff:], headerSize)

	d, err := NewDecoderBytes(data)
	require.NoError(t, err)
	_, err = d.IFD(1)
	assert.ErrorIs(t, err, ErrInconsistentLayout)
}
