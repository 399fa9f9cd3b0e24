package tiff

// TIFF-variant LZW: 9-to-12-bit codes packed MSB-first, dictionary reset at
// code 256 (clear), end of information at 257. The code width grows one code
// earlier than in the GIF flavor: the decoder widens after filling table slot
// 2^width-2, the encoder after filling slot 2^width-1 (its table runs one
// entry ahead of the decoder's at the same point in the stream).

const (
	lzwClearCode = 256
	lzwEOICode   = 257
	lzwFirstCode = 258
	lzwMaxWidth  = 12
	lzwTableSize = 4096
	// The encoder emits a clear code when the table reaches this slot, as
	// libtiff does, so the decoder never sees a width-13 situation.
	lzwResetAt = 4094
)

type lzwBitReader struct {
	src  []byte
	pos  int // byte position
	bits uint32
	n    uint // bits available in bits
}

// read returns the next width-bit code, MSB-first, or ok == false when the
// input is exhausted.
func (br *lzwBitReader) read(width uint) (code int, ok bool) {
	for br.n < width {
		if br.pos >= len(br.src) {
			return 0, false
		}
		br.bits = br.bits<<8 | uint32(br.src[br.pos])
		br.pos++
		br.n += 8
	}
	br.n -= width
	code = int(br.bits >> br.n)
	br.bits &= 1<<br.n - 1
	return code, true
}

// lzwDecode expands src into exactly want bytes. Decoding stops when the
// output is full or an EOI code arrives; an EOI or end of input before the
// buffer is full is a codec error, and no table string may spill past want.
func lzwDecode(src []byte, want int) ([]byte, error) {
	var (
		prefix [lzwTableSize]int32
		suffix [lzwTableSize]byte
		length [lzwTableSize]int32
	)
	for i := 0; i < 256; i++ {
		prefix[i] = -1
		suffix[i] = byte(i)
		length[i] = 1
	}

	dst := make([]byte, want)
	pos := 0
	scratch := make([]byte, lzwTableSize)

	// expand writes the string for code into scratch back-to-front and
	// returns it front-to-back.
	expand := func(code int) []byte {
		l := int(length[code])
		for i := l - 1; i >= 0; i-- {
			scratch[i] = suffix[code]
			code = int(prefix[code])
		}
		return scratch[:l]
	}

	br := &lzwBitReader{src: src}
	width := uint(9)
	nextCode := lzwFirstCode
	prevCode := -1

	for pos < want {
		code, ok := br.read(width)
		if !ok {
			return nil, errAt(KindCodecError, int64(br.pos), "lzw input exhausted with %d of %d bytes decoded", pos, want)
		}

		switch {
		case code == lzwEOICode:
			return nil, errAt(KindCodecError, int64(br.pos), "lzw end of information with %d of %d bytes decoded", pos, want)
		case code == lzwClearCode:
			nextCode = lzwFirstCode
			width = 9
			prevCode = -1
			continue
		case code > nextCode:
			return nil, errAt(KindCodecError, int64(br.pos), "lzw code %d beyond table size %d", code, nextCode)
		case prevCode < 0:
			// First code after a clear must name a single byte.
			if code >= 256 {
				return nil, errAt(KindCodecError, int64(br.pos), "lzw first code %d after clear is not a literal", code)
			}
			dst[pos] = byte(code)
			pos++
			prevCode = code
			continue
		}

		var out []byte
		if code < nextCode {
			out = expand(code)
		} else {
			// The KwKwK case: the code being defined right now.
			prev := expand(prevCode)
			out = append(prev, prev[0])
		}

		n := copy(dst[pos:], out)
		pos += n

		if nextCode < lzwTableSize {
			prefix[nextCode] = int32(prevCode)
			suffix[nextCode] = out[0]
			length[nextCode] = length[prevCode] + 1
			nextCode++
			if nextCode >= 1<<width-1 && width < lzwMaxWidth {
				width++
			}
		}
		prevCode = code
	}

	// The output is full; a conformant stream follows with EOI, but a
	// truncated trailer is tolerated.
	return dst, nil
}

type lzwBitWriter struct {
	dst  []byte
	bits uint32
	n    uint
}

func (bw *lzwBitWriter) write(code int, width uint) {
	bw.bits = bw.bits<<width | uint32(code)
	bw.n += width
	for bw.n >= 8 {
		bw.n -= 8
		bw.dst = append(bw.dst, byte(bw.bits>>bw.n))
	}
}

func (bw *lzwBitWriter) flush() {
	if bw.n > 0 {
		bw.dst = append(bw.dst, byte(bw.bits<<(8-bw.n)))
		bw.n = 0
	}
	bw.bits = 0
}

// lzwEncode compresses src with the TIFF LZW variant. The stream opens with
// a clear code and ends with EOI, resetting the table at slot 4094.
func lzwEncode(src []byte) []byte {
	bw := &lzwBitWriter{dst: make([]byte, 0, len(src)/2+16)}

	// next[prefix<<8|b] maps an existing code extended by byte b.
	next := make(map[uint32]int, 4096)

	width := uint(9)
	nextCode := lzwFirstCode
	bw.write(lzwClearCode, width)

	reset := func() {
		for k := range next {
			delete(next, k)
		}
		width = 9
		nextCode = lzwFirstCode
	}

	prefix := -1
	for _, b := range src {
		if prefix < 0 {
			prefix = int(b)
			continue
		}
		key := uint32(prefix)<<8 | uint32(b)
		if code, ok := next[key]; ok {
			prefix = code
			continue
		}

		bw.write(prefix, width)
		next[key] = nextCode
		nextCode++
		// Widen one entry earlier than the decoder does: this table runs
		// one ahead of the decoder's.
		if nextCode >= 1<<width && width < lzwMaxWidth {
			width++
		}
		if nextCode >= lzwResetAt {
			bw.write(lzwClearCode, width)
			reset()
		}
		prefix = int(b)
	}

	if prefix >= 0 {
		bw.write(prefix, width)
	}
	bw.write(lzwEOICode, width)
	bw.flush()
	return bw.dst
}
