package tiff

import "encoding/binary"

// Horizontal differencing stores each sample as the delta from the sample to
// its left in the same row and plane. The chain resets at every row
// boundary; arithmetic wraps at the sample's bit width. Only 8- and 16-bit
// samples carry a predictor in this module.

// undoPredictor reconstructs samples in place after decompression.
func undoPredictor(buf []byte, rowBytes, samples, bits int, order binary.ByteOrder) {
	switch bits {
	case 8:
		for row := 0; row+rowBytes <= len(buf); row += rowBytes {
			for i := samples; i < rowBytes; i++ {
				buf[row+i] += buf[row+i-samples]
			}
		}
	case 16:
		stride := 2 * samples
		for row := 0; row+rowBytes <= len(buf); row += rowBytes {
			for i := stride; i+1 < rowBytes; i += 2 {
				v := order.Uint16(buf[row+i:]) + order.Uint16(buf[row+i-stride:])
				order.PutUint16(buf[row+i:], v)
			}
		}
	}
}

// applyPredictor converts samples to horizontal deltas in place before
// compression, right to left so each source sample is still intact when read.
func applyPredictor(buf []byte, rowBytes, samples, bits int, order binary.ByteOrder) {
	switch bits {
	case 8:
		for row := 0; row+rowBytes <= len(buf); row += rowBytes {
			for i := rowBytes - 1; i >= samples; i-- {
				buf[row+i] -= buf[row+i-samples]
			}
		}
	case 16:
		stride := 2 * samples
		for row := 0; row+rowBytes <= len(buf); row += rowBytes {
			for i := rowBytes - 2; i >= stride; i -= 2 {
				v := order.Uint16(buf[row+i:]) - order.Uint16(buf[row+i-stride:])
				order.PutUint16(buf[row+i:], v)
			}
		}
	}
}
