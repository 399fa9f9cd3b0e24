package tiff

import (
	"encoding/binary"

	"github.com/335g/gotiff/tiff/tag"
)

type endianness interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// fileBuilder assembles synthetic TIFF streams for tests: header, data
// blobs, then one IFD with a pointer area for values over 4 bytes.
type fileBuilder struct {
	order   endianness
	blobs   []byte // strip/tile data, placed right after the header
	entries []builderEntry
}

type builderEntry struct {
	id    tag.ID
	typ   uint16
	count uint32
	data  []byte // value bytes, already in file order
	value *[4]byte
}

func newBuilder(order endianness) *fileBuilder {
	return &fileBuilder{order: order}
}

func (b *fileBuilder) u16s(vals ...uint16) []byte {
	var out []byte
	for _, v := range vals {
		out = b.order.AppendUint16(out, v)
	}
	return out
}

func (b *fileBuilder) u32s(vals ...uint32) []byte {
	var out []byte
	for _, v := range vals {
		out = b.order.AppendUint32(out, v)
	}
	return out
}

// addBlob appends raw pixel data and returns its absolute offset.
func (b *fileBuilder) addBlob(data []byte) uint32 {
	off := uint32(headerSize + len(b.blobs))
	b.blobs = append(b.blobs, data...)
	return off
}

// addEntry stages an entry whose value bytes go inline when they fit and to
// the pointer area otherwise.
func (b *fileBuilder) addEntry(id tag.ID, typ tag.Type, count uint32, data []byte) {
	b.entries = append(b.entries, builderEntry{id: id, typ: uint16(typ), count: count, data: data})
}

// addEntryRaw stages an entry with full control of the type code and the
// 4-byte value field, for malformed and forward-compatibility cases.
func (b *fileBuilder) addEntryRaw(id tag.ID, typ uint16, count uint32, value [4]byte) {
	b.entries = append(b.entries, builderEntry{id: id, typ: typ, count: count, value: &value})
}

func (b *fileBuilder) addShort(id tag.ID, vals ...uint16) {
	b.addEntry(id, tag.Short, uint32(len(vals)), b.u16s(vals...))
}

func (b *fileBuilder) addLong(id tag.ID, vals ...uint32) {
	b.addEntry(id, tag.Long, uint32(len(vals)), b.u32s(vals...))
}

func (b *fileBuilder) addASCII(id tag.ID, s string) {
	b.addEntry(id, tag.ASCII, uint32(len(s)+1), append([]byte(s), 0))
}

// build serializes the stream.
func (b *fileBuilder) build() []byte {
	marker := uint16(intelByteOrder)
	if b.order.Uint16([]byte{0, 1}) == 1 { // big-endian probe
		marker = motorolaByteOrder
	}

	ifdOff := uint32(headerSize + len(b.blobs))
	pstart := ifdOff + 2 + uint32(len(b.entries))*entrySize + 4

	var out []byte
	out = b.order.AppendUint16(out, marker)
	out = b.order.AppendUint16(out, magicNumber)
	out = b.order.AppendUint32(out, ifdOff)
	out = append(out, b.blobs...)

	var parea []byte
	out = b.order.AppendUint16(out, uint16(len(b.entries)))
	for _, e := range b.entries {
		out = b.order.AppendUint16(out, uint16(e.id))
		out = b.order.AppendUint16(out, e.typ)
		out = b.order.AppendUint32(out, e.count)
		switch {
		case e.value != nil:
			out = append(out, e.value[:]...)
		case len(e.data) <= 4:
			var field [4]byte
			copy(field[:], e.data)
			out = append(out, field[:]...)
		default:
			out = b.order.AppendUint32(out, pstart+uint32(len(parea)))
			parea = append(parea, e.data...)
		}
	}
	out = b.order.AppendUint32(out, 0) // terminal IFD
	out = append(out, parea...)
	return out
}

// grayBuilder stages the layout tags shared by most grayscale fixtures.
func grayBuilder(order endianness, width, height uint32, bits uint16, strip []byte) *fileBuilder {
	b := newBuilder(order)
	off := b.addBlob(strip)
	b.addLong(tag.ImageWidth, width)
	b.addLong(tag.ImageLength, height)
	b.addShort(tag.BitsPerSample, bits)
	b.addShort(tag.Compression, uint16(CompressionNone))
	b.addShort(tag.PhotometricInterpretation, uint16(BlackIsZero))
	b.addLong(tag.StripOffsets, off)
	b.addShort(tag.SamplesPerPixel, 1)
	b.addLong(tag.RowsPerStrip, height)
	b.addLong(tag.StripByteCounts, uint32(len(strip)))
	return b
}

// mustImage synthesizes a chunky test image with a deterministic pattern.
// Sub-byte depths get values that survive the widen/narrow mapping exactly.
func mustImage(width, height, spp int, bits uint16) *Image {
	img := &Image{
		Width:           width,
		Height:          height,
		SamplesPerPixel: spp,
		BitsPerSample:   make([]uint16, spp),
		Photometric:     BlackIsZero,
		Planar:          PlanarChunky,
	}
	if spp >= 3 {
		img.Photometric = RGB
	}
	for i := range img.BitsPerSample {
		img.BitsPerSample[i] = bits
	}
	n := width * height * spp
	switch bits {
	case 16:
		img.Pix16 = make([]uint16, n)
		for i := range img.Pix16 {
			img.Pix16[i] = uint16(i*2654435761 + 40503)
		}
	case 8:
		img.Pix8 = make([]uint8, n)
		for i := range img.Pix8 {
			img.Pix8[i] = uint8(i*31 + 7)
		}
	default:
		scale := 255 / (1<<bits - 1)
		img.Pix8 = make([]uint8, n)
		for i := range img.Pix8 {
			img.Pix8[i] = uint8((i % (1 << bits)) * scale)
		}
	}
	return img
}
