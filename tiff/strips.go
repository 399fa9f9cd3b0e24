package tiff

import (
	"github.com/335g/gotiff/tiff/tag"
)

// maxDecodedSamples bounds the decoded pixel buffer. Dimension tags are
// untrusted input; past this bound the size arithmetic for buffers and
// segments could wrap.
const maxDecodedSamples = 1 << 30

// layout is the resolved set of tags that govern where pixel data lives and
// how it is organized.
type layout struct {
	width, height   int
	samplesPerPixel int
	bits            int // uniform per-component bit depth
	photometric     Photometric
	planar          PlanarConfig
	compression     Compression
	predictor       Predictor
	colorMap        []uint16

	tiled                 bool
	rowsPerStrip          int
	tileWidth, tileLength int
}

// segment describes one independently compressed chunk of pixel data and its
// logical placement in the image grid. For tiles, width and height are the
// full (padded) tile dimensions; the assembler clips at the image edge.
type segment struct {
	offset, length int64
	x0, y0         int
	width, height  int
	plane          int // sample plane for PlanarSeparate, 0 otherwise
	samples        int // samples interleaved within this segment's rows
}

// rowBytes is the encoded length of one row of this segment.
func (s segment) rowBytes(bits int) int {
	return (s.width*s.samples*bits + 7) / 8
}

// decodedLen is the expected byte length of the segment after decompression.
func (s segment) decodedLen(bits int) int {
	return s.rowBytes(bits) * s.height
}

func (d *Decoder) uintValues(ifd *IFD, id tag.ID) ([]uint64, bool, error) {
	e, ok := ifd.Entry(id)
	if !ok {
		return nil, false, nil
	}
	v, err := d.resolve(e)
	if err != nil {
		return nil, true, err
	}
	if v.Uints == nil {
		return nil, true, errTag(KindTypeMismatch, id, "stored as %s, want an unsigned integer type", v.Type)
	}
	return v.Uints, true, nil
}

// uintTag returns the first value of id, or def when the tag is absent.
func (d *Decoder) uintTag(ifd *IFD, id tag.ID, def uint64) (uint64, error) {
	vals, ok, err := d.uintValues(ifd, id)
	if err != nil {
		return 0, err
	}
	if !ok || len(vals) == 0 {
		return def, nil
	}
	return vals[0], nil
}

// gatherLayout resolves the layout tags of one IFD, applying the format's
// documented defaults and failing fast on anything that would prevent
// computing dimensions or locating pixel data.
func (d *Decoder) gatherLayout(ifd *IFD) (*layout, error) {
	var l layout

	for _, req := range []tag.ID{tag.ImageWidth, tag.ImageLength, tag.PhotometricInterpretation} {
		if !ifd.Has(req) {
			return nil, errTag(KindMissingRequiredTag, req, "")
		}
	}

	width, err := d.uintTag(ifd, tag.ImageWidth, 0)
	if err != nil {
		return nil, err
	}
	height, err := d.uintTag(ifd, tag.ImageLength, 0)
	if err != nil {
		return nil, err
	}
	if width == 0 || height == 0 || width > 1<<30 || height > 1<<30 {
		return nil, errf(KindInconsistentLayout, "implausible dimensions %dx%d", width, height)
	}
	l.width, l.height = int(width), int(height)

	photo, err := d.uintTag(ifd, tag.PhotometricInterpretation, 0)
	if err != nil {
		return nil, err
	}
	l.photometric = Photometric(photo)

	spp, err := d.uintTag(ifd, tag.SamplesPerPixel, 1)
	if err != nil {
		return nil, err
	}
	if spp == 0 || spp > 16 {
		return nil, errf(KindInconsistentLayout, "implausible samples per pixel %d", spp)
	}
	l.samplesPerPixel = int(spp)

	bits, ok, err := d.uintValues(ifd, tag.BitsPerSample)
	if err != nil {
		return nil, err
	}
	if !ok || len(bits) == 0 {
		bits = []uint64{1} // format default
	}
	if len(bits) != 1 && len(bits) != l.samplesPerPixel {
		return nil, errTag(KindInconsistentLayout, tag.BitsPerSample, "%d values for %d samples", len(bits), l.samplesPerPixel)
	}
	for _, b := range bits {
		if b != bits[0] {
			return nil, errTag(KindInconsistentLayout, tag.BitsPerSample, "non-uniform bit depths %v are not supported", bits)
		}
	}
	switch bits[0] {
	case 1, 2, 4, 8, 16:
		l.bits = int(bits[0])
	default:
		return nil, errTag(KindInconsistentLayout, tag.BitsPerSample, "unsupported bit depth %d", bits[0])
	}

	// Width and height are individually bounded above, but their product with
	// the sample count must be bounded too, or buffer sizes wrap.
	if s := int64(l.width) * int64(l.height) * int64(l.samplesPerPixel); s > maxDecodedSamples {
		return nil, errf(KindInconsistentLayout, "image declares %d samples, limit is %d", s, maxDecodedSamples)
	}

	compression, err := d.uintTag(ifd, tag.Compression, uint64(CompressionNone))
	if err != nil {
		return nil, err
	}
	// Some producers write 0 for "no compression" even though the format
	// gives Compression no zero value.
	if compression == 0 {
		compression = uint64(CompressionNone)
	}
	l.compression = Compression(compression)

	predictor, err := d.uintTag(ifd, tag.Predictor, uint64(PredictorNone))
	if err != nil {
		return nil, err
	}
	l.predictor = Predictor(predictor)

	planar, err := d.uintTag(ifd, tag.PlanarConfiguration, uint64(PlanarChunky))
	if err != nil {
		return nil, err
	}
	l.planar = PlanarConfig(planar)
	if l.planar != PlanarChunky && l.planar != PlanarSeparate {
		return nil, errTag(KindInconsistentLayout, tag.PlanarConfiguration, "unknown value %d", planar)
	}

	if l.photometric == Paletted {
		cm, ok, err := d.uintValues(ifd, tag.ColorMap)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errTag(KindMissingRequiredTag, tag.ColorMap, "palette image without color map")
		}
		if len(cm) != 3*(1<<l.bits) {
			return nil, errTag(KindInconsistentLayout, tag.ColorMap, "%d entries for %d-bit indices", len(cm), l.bits)
		}
		l.colorMap = make([]uint16, len(cm))
		for i, v := range cm {
			l.colorMap[i] = uint16(v)
		}
	}

	switch {
	case ifd.Has(tag.TileOffsets):
		l.tiled = true
		tw, err := d.uintTag(ifd, tag.TileWidth, 0)
		if err != nil {
			return nil, err
		}
		th, err := d.uintTag(ifd, tag.TileLength, 0)
		if err != nil {
			return nil, err
		}
		if tw == 0 || th == 0 {
			return nil, errTag(KindMissingRequiredTag, tag.TileWidth, "tiled image without tile dimensions")
		}
		// Tiles may pad past the image edge, so their area needs its own bound.
		if tw > 1<<30 || th > 1<<30 || int64(tw)*int64(th)*int64(l.samplesPerPixel) > maxDecodedSamples {
			return nil, errTag(KindInconsistentLayout, tag.TileWidth, "implausible tile dimensions %dx%d", tw, th)
		}
		l.tileWidth, l.tileLength = int(tw), int(th)
	case ifd.Has(tag.StripOffsets):
		rps, err := d.uintTag(ifd, tag.RowsPerStrip, uint64(l.height))
		if err != nil {
			return nil, err
		}
		if rps == 0 || rps > uint64(l.height) {
			rps = uint64(l.height)
		}
		l.rowsPerStrip = int(rps)
	default:
		return nil, errf(KindNoImageData, "no strip or tile location tags")
	}

	return &l, nil
}

// segments builds the ordered strip or tile descriptors for l, validating
// that they tile the pixel grid exactly: offsets and byte counts pair up,
// and the computed coverage spans every row with no gaps and no overlaps.
func (d *Decoder) segments(ifd *IFD, l *layout) ([]segment, error) {
	offTag, cntTag := tag.StripOffsets, tag.StripByteCounts
	if l.tiled {
		offTag, cntTag = tag.TileOffsets, tag.TileByteCounts
	}

	offsets, ok, err := d.uintValues(ifd, offTag)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errf(KindNoImageData, "no strip or tile location tags")
	}
	counts, ok, err := d.uintValues(ifd, cntTag)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errTag(KindMissingRequiredTag, cntTag, "")
	}
	if len(offsets) != len(counts) {
		return nil, errf(KindInconsistentLayout, "%d offsets but %d byte counts", len(offsets), len(counts))
	}

	planes := 1
	segSamples := l.samplesPerPixel
	if l.planar == PlanarSeparate {
		planes = l.samplesPerPixel
		segSamples = 1
	}

	var segs []segment
	if l.tiled {
		across := (l.width + l.tileWidth - 1) / l.tileWidth
		down := (l.height + l.tileLength - 1) / l.tileLength
		perPlane := across * down
		if len(offsets) != perPlane*planes {
			return nil, errf(KindInconsistentLayout, "%d tiles for a %dx%d grid over %d plane(s)", len(offsets), across, down, planes)
		}
		segs = make([]segment, 0, len(offsets))
		for p := 0; p < planes; p++ {
			for ty := 0; ty < down; ty++ {
				for tx := 0; tx < across; tx++ {
					i := p*perPlane + ty*across + tx
					segs = append(segs, segment{
						offset:  int64(offsets[i]),
						length:  int64(counts[i]),
						x0:      tx * l.tileWidth,
						y0:      ty * l.tileLength,
						width:   l.tileWidth,
						height:  l.tileLength,
						plane:   p,
						samples: segSamples,
					})
				}
			}
		}
	} else {
		perPlane := (l.height + l.rowsPerStrip - 1) / l.rowsPerStrip
		if len(offsets) != perPlane*planes {
			return nil, errf(KindInconsistentLayout, "%d strips for %d rows at %d rows per strip over %d plane(s)", len(offsets), l.height, l.rowsPerStrip, planes)
		}
		segs = make([]segment, 0, len(offsets))
		for p := 0; p < planes; p++ {
			for s := 0; s < perPlane; s++ {
				y0 := s * l.rowsPerStrip
				rows := l.rowsPerStrip
				if y0+rows > l.height {
					// The final strip covers only the remaining rows.
					rows = l.height - y0
				}
				i := p*perPlane + s
				segs = append(segs, segment{
					offset:  int64(offsets[i]),
					length:  int64(counts[i]),
					x0:      0,
					y0:      y0,
					width:   l.width,
					height:  rows,
					plane:   p,
					samples: segSamples,
				})
			}
		}
	}

	for _, s := range segs {
		if s.offset < 0 || s.length < 0 || s.offset > d.r.size()-s.length {
			return nil, errAt(KindOutOfRange, s.offset, "segment of %d bytes exceeds source", s.length)
		}
	}
	return segs, nil
}
