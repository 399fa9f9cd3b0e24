package tiff

// bitReader unpacks sub-byte samples MSB-first within each byte. Rows are
// byte-aligned, so the caller flushes at every row boundary.
type bitReader struct {
	buf []byte
	off int
	v   uint32
	n   uint
}

func (b *bitReader) read(bits uint) uint32 {
	for b.n < bits {
		b.v = b.v<<8 | uint32(b.buf[b.off])
		b.off++
		b.n += 8
	}
	b.n -= bits
	rv := b.v >> b.n
	b.v &^= rv << b.n
	return rv
}

// flushRow discards the padding bits at the end of a row.
func (b *bitReader) flushRow() {
	b.v = 0
	b.n = 0
}

// scaleTo8 widens a raw sub-byte sample to the full 8-bit range, so a 1-bit
// 1 becomes 255 and a 4-bit 15 becomes 255. Palette indices skip this; they
// index the color map raw.
func scaleTo8(v uint32, bits int) uint8 {
	switch bits {
	case 1:
		return uint8(v * 255)
	case 2:
		return uint8(v * 85)
	case 4:
		return uint8(v * 17)
	default:
		return uint8(v)
	}
}

// assembleSegment scatters one decoded segment into the image's pixel
// buffer: de-interleaving per the planar configuration, unpacking sub-byte
// depths, and applying the photometric interpretation. data is exactly
// seg.decodedLen(l.bits) bytes; tile regions hanging past the image edge are
// consumed and dropped.
func (d *Decoder) assembleSegment(l *layout, img *Image, seg segment, data []byte) {
	maxRaw := uint32(1)<<l.bits - 1
	invert := l.photometric == WhiteIsZero
	rowBytes := seg.rowBytes(l.bits)

	// Sample index of (x, y, s) in the interleaved output buffer.
	outSPP := img.SamplesPerPixel
	idx := func(x, y, s int) int {
		return (y*l.width+x)*outSPP + s
	}

	switch {
	case l.photometric == Paletted:
		n := 1 << l.bits
		br := &bitReader{buf: data}
		for y := 0; y < seg.height; y++ {
			for x := 0; x < seg.width; x++ {
				ci := int(br.read(uint(l.bits)))
				if seg.y0+y >= l.height || seg.x0+x >= l.width {
					continue
				}
				i := idx(seg.x0+x, seg.y0+y, 0)
				img.Pix16[i+0] = l.colorMap[ci]
				img.Pix16[i+1] = l.colorMap[n+ci]
				img.Pix16[i+2] = l.colorMap[2*n+ci]
			}
			br.flushRow()
		}

	case l.bits == 16:
		for y := 0; y < seg.height; y++ {
			if seg.y0+y >= l.height {
				break
			}
			row := data[y*rowBytes:]
			for x := 0; x < seg.width; x++ {
				if seg.x0+x >= l.width {
					break
				}
				for s := 0; s < seg.samples; s++ {
					v := d.r.order.Uint16(row[(x*seg.samples+s)*2:])
					if invert {
						v = ^v
					}
					img.Pix16[idx(seg.x0+x, seg.y0+y, seg.plane+s)] = v
				}
			}
		}

	case l.bits == 8:
		for y := 0; y < seg.height; y++ {
			if seg.y0+y >= l.height {
				break
			}
			row := data[y*rowBytes:]
			for x := 0; x < seg.width; x++ {
				if seg.x0+x >= l.width {
					break
				}
				for s := 0; s < seg.samples; s++ {
					v := row[x*seg.samples+s]
					if invert {
						v = ^v
					}
					img.Pix8[idx(seg.x0+x, seg.y0+y, seg.plane+s)] = v
				}
			}
		}

	default: // 1, 2 or 4 bits per sample
		br := &bitReader{buf: data}
		for y := 0; y < seg.height; y++ {
			for x := 0; x < seg.width; x++ {
				for s := 0; s < seg.samples; s++ {
					v := br.read(uint(l.bits))
					if seg.y0+y >= l.height || seg.x0+x >= l.width {
						continue
					}
					if invert {
						v = maxRaw - v
					}
					img.Pix8[idx(seg.x0+x, seg.y0+y, seg.plane+s)] = scaleTo8(v, l.bits)
				}
			}
			br.flushRow()
		}
	}
}
