package tiff

// decodeSegment expands one strip or tile's raw bytes according to the
// compression scheme. The result is exactly want bytes; corrupt input fails
// with a codec error instead of ever producing an oversized buffer.
func decodeSegment(c Compression, raw []byte, want int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(raw) != want {
			return nil, errf(KindCodecError, "uncompressed segment is %d bytes, want %d", len(raw), want)
		}
		return raw, nil
	case CompressionPackBits:
		return packBitsDecode(raw, want)
	case CompressionLZW:
		return lzwDecode(raw, want)
	default:
		return nil, errf(KindUnsupportedCompression, "%s", c)
	}
}

// encodeSegment compresses one segment's bytes. Only the lossless schemes
// the decoder understands are offered.
func encodeSegment(c Compression, raw []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return raw, nil
	case CompressionPackBits:
		return packBitsEncode(raw), nil
	case CompressionLZW:
		return lzwEncode(raw), nil
	default:
		return nil, errf(KindUnsupportedCompression, "%s", c)
	}
}
