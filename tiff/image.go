package tiff

// Image is the result of a decode: dimensions, sample layout, and a fully
// materialized pixel buffer. Exactly one of Pix8 and Pix16 is non-nil, sized
// Width*Height*SamplesPerPixel; a decode never returns a partially filled
// buffer.
//
// Samples are always stored interleaved (chunky), whatever the source's
// planar configuration was; Planar records how the file stored them.
type Image struct {
	Width           int
	Height          int
	SamplesPerPixel int

	// BitsPerSample holds the declared per-component bit depth. Storage
	// width is the declared depth rounded up to 8 or 16 bits.
	BitsPerSample []uint16

	Photometric Photometric
	Planar      PlanarConfig
	Compression Compression

	// ColorMap is the palette for Paletted images: 2^bits red values, then
	// green, then blue, each 16-bit. Nil otherwise.
	ColorMap []uint16

	Pix8  []uint8
	Pix16 []uint16
}

// StorageBits returns the per-sample storage width of the pixel buffer:
// 16 when samples live in Pix16, 8 otherwise.
func (img *Image) StorageBits() int {
	if img.Pix16 != nil {
		return 16
	}
	return 8
}

// Sample returns sample s of the pixel at (x, y) widened to uint16,
// regardless of the buffer's storage width.
func (img *Image) Sample(x, y, s int) uint16 {
	i := (y*img.Width+x)*img.SamplesPerPixel + s
	if img.Pix16 != nil {
		return img.Pix16[i]
	}
	return uint16(img.Pix8[i])
}
