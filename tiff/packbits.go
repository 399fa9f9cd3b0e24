package tiff

// packBitsDecode expands PackBits run-length data into exactly want bytes.
// A control byte n in [0,127] copies the next n+1 literal bytes, n in
// [129,255] repeats the following byte 257-n times, and n == 128 is a no-op.
// Decoding stops once the output is full; running out of input first is an
// error, and no run is ever allowed to spill past want.
func packBitsDecode(src []byte, want int) ([]byte, error) {
	dst := make([]byte, 0, want)
	i := 0
	for len(dst) < want {
		if i >= len(src) {
			return nil, errAt(KindCodecError, int64(i), "packbits input exhausted with %d of %d bytes decoded", len(dst), want)
		}
		n := int(int8(src[i]))
		i++
		switch {
		case n >= 0:
			run := n + 1
			if len(dst)+run > want {
				return nil, errAt(KindCodecError, int64(i-1), "packbits literal run overflows output")
			}
			if i+run > len(src) {
				return nil, errAt(KindCodecError, int64(i-1), "packbits literal run exceeds input")
			}
			dst = append(dst, src[i:i+run]...)
			i += run
		case n == -128:
			// No-op.
		default:
			run := 1 - n
			if len(dst)+run > want {
				return nil, errAt(KindCodecError, int64(i-1), "packbits repeat run overflows output")
			}
			if i >= len(src) {
				return nil, errAt(KindCodecError, int64(i-1), "packbits repeat run exceeds input")
			}
			b := src[i]
			i++
			for j := 0; j < run; j++ {
				dst = append(dst, b)
			}
		}
	}
	return dst, nil
}

// packBitsEncode compresses src with PackBits: runs of three or more equal
// bytes become repeat packets, everything else literal packets, both capped
// at 128 bytes per packet.
func packBitsEncode(src []byte) []byte {
	var dst []byte
	i := 0
	for i < len(src) {
		// Measure the run starting at i.
		run := 1
		for i+run < len(src) && src[i+run] == src[i] && run < 128 {
			run++
		}
		if run >= 3 {
			dst = append(dst, byte(1-run), src[i])
			i += run
			continue
		}
		// Collect literals until the next run of 3 begins or 128 bytes.
		lit := i
		for lit < len(src) && lit-i < 128 {
			if lit+2 < len(src) && src[lit] == src[lit+1] && src[lit] == src[lit+2] {
				break
			}
			lit++
		}
		n := lit - i
		dst = append(dst, byte(n-1))
		dst = append(dst, src[i:lit]...)
		i = lit
	}
	return dst
}
