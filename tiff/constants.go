package tiff

import "fmt"

const (
	// intelByteOrder is the TIFF marker for Intel byte ordering (little-endian).
	intelByteOrder = 0x4949 // "II"
	// motorolaByteOrder is the TIFF marker for Motorola byte ordering (big-endian).
	motorolaByteOrder = 0x4D4D // "MM"

	// magicNumber is the fixed version constant following the byte-order marker.
	magicNumber = 42

	// headerSize is the byte length of the file header.
	headerSize = 8
	// entrySize is the byte length of one IFD entry.
	entrySize = 12
)

// Compression identifies the scheme used to compress strip or tile data.
type Compression uint16

const (
	CompressionNone     Compression = 1
	CompressionCCITT    Compression = 2
	CompressionG3       Compression = 3
	CompressionG4       Compression = 4
	CompressionLZW      Compression = 5
	CompressionJPEGOld  Compression = 6
	CompressionJPEG     Compression = 7
	CompressionDeflate  Compression = 8
	CompressionPackBits Compression = 32773
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionCCITT:
		return "CCITT"
	case CompressionG3:
		return "Group3Fax"
	case CompressionG4:
		return "Group4Fax"
	case CompressionLZW:
		return "LZW"
	case CompressionJPEGOld, CompressionJPEG:
		return "JPEG"
	case CompressionDeflate:
		return "Deflate"
	case CompressionPackBits:
		return "PackBits"
	}
	return fmt.Sprintf("Compression(%d)", uint16(c))
}

// Photometric identifies how raw sample values map to visual meaning.
type Photometric uint16

const (
	WhiteIsZero Photometric = 0
	BlackIsZero Photometric = 1
	RGB         Photometric = 2
	Paletted    Photometric = 3
	TransMask   Photometric = 4
	CMYK        Photometric = 5
	YCbCr       Photometric = 6
)

func (p Photometric) String() string {
	switch p {
	case WhiteIsZero:
		return "WhiteIsZero"
	case BlackIsZero:
		return "BlackIsZero"
	case RGB:
		return "RGB"
	case Paletted:
		return "Paletted"
	case TransMask:
		return "TransparencyMask"
	case CMYK:
		return "CMYK"
	case YCbCr:
		return "YCbCr"
	}
	return fmt.Sprintf("Photometric(%d)", uint16(p))
}

// PlanarConfig tells whether samples for one pixel are interleaved (chunky)
// or stored in separate per-component planes.
type PlanarConfig uint16

const (
	PlanarChunky   PlanarConfig = 1
	PlanarSeparate PlanarConfig = 2
)

// Predictor identifies the delta-encoding applied to samples before
// compression.
type Predictor uint16

const (
	PredictorNone       Predictor = 1
	PredictorHorizontal Predictor = 2
)

const (
	// resolutionPerInch is the ResolutionUnit value for dots per inch.
	resolutionPerInch = 2
	// defaultResolution is the bogus 72 dpi the encoder stamps on output,
	// matching what most writers emit when resolution is meaningless.
	defaultResolution = 72
)
