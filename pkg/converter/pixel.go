package converter

import (
	"fmt"

	"github.com/lmshao/remote-desk/pkg/frame"
)

// channelOrder describes where R, G, B, A live in a packed pixel for a
// given format, in byte-offset order. I420 has no packed order and is
// handled separately.
func channelOrder(f frame.Format) (r, g, b, a int, bpp int, hasAlpha bool, ok bool) {
	switch f {
	case frame.RGB24:
		return 0, 1, 2, -1, 3, false, true
	case frame.BGR24:
		return 2, 1, 0, -1, 3, false, true
	case frame.RGBA32:
		return 0, 1, 2, 3, 4, true, true
	case frame.BGRA32:
		return 2, 1, 0, 3, 4, true, true
	default:
		return 0, 0, 0, 0, 0, false, false
	}
}

// reorderChannels permutes each pixel's bytes from f's packed layout to
// outFormat's, setting alpha to 255 when the output format adds one that
// the input lacked.
func reorderChannels(f *frame.Frame, outFormat frame.Format) (*frame.Frame, error) {
	srcR, srcG, srcB, _, srcBpp, _, ok := channelOrder(f.Format)
	if !ok {
		return nil, fmt.Errorf("converter: unsupported input format %s", f.Format)
	}
	dstR, dstG, dstB, dstA, dstBpp, dstHasAlpha, ok := channelOrder(outFormat)
	if !ok {
		return nil, fmt.Errorf("converter: unsupported output format %s", outFormat)
	}

	srcStride := f.Stride
	if srcStride == 0 {
		srcStride = f.Width * srcBpp
	}
	dstStride := f.Width * dstBpp
	out := make([]byte, f.Height*dstStride)

	for y := 0; y < f.Height; y++ {
		srcRow := y * srcStride
		dstRow := y * dstStride
		for x := 0; x < f.Width; x++ {
			sp := srcRow + x*srcBpp
			dp := dstRow + x*dstBpp
			out[dp+dstR] = f.Bytes[sp+srcR]
			out[dp+dstG] = f.Bytes[sp+srcG]
			out[dp+dstB] = f.Bytes[sp+srcB]
			if dstHasAlpha {
				out[dp+dstA] = 255
			}
		}
	}

	result := f.Clone(out)
	result.Format = outFormat
	result.Stride = dstStride
	return result, nil
}

// convertToI420 converts a packed RGB/BGR frame to planar I420 using the
// BT.601 integer coefficients from the spec, with even-sample (not
// averaged) chroma subsampling.
func convertToI420(f *frame.Frame) (*frame.Frame, error) {
	r, g, b, _, bpp, _, ok := channelOrder(f.Format)
	if !ok {
		return nil, fmt.Errorf("converter: unsupported input format %s", f.Format)
	}

	w, h := f.Width, f.Height
	srcStride := f.Stride
	if srcStride == 0 {
		srcStride = w * bpp
	}

	ySize := w * h
	cw, ch := w/2, h/2
	out := make([]byte, ySize+2*cw*ch)
	yPlane := out[:ySize]
	uPlane := out[ySize : ySize+cw*ch]
	vPlane := out[ySize+cw*ch:]

	for y := 0; y < h; y++ {
		srcRow := y * srcStride
		for x := 0; x < w; x++ {
			p := srcRow + x*bpp
			R := int(f.Bytes[p+r])
			G := int(f.Bytes[p+g])
			B := int(f.Bytes[p+b])

			yPlane[y*w+x] = clamp8((77*R + 150*G + 29*B) >> 8)

			if x%2 == 0 && y%2 == 0 {
				u := clamp8((((-43*R - 85*G + 128*B) >> 8) + 128))
				v := clamp8((((128*R - 107*G - 21*B) >> 8) + 128))
				uPlane[(y/2)*cw+(x/2)] = u
				vPlane[(y/2)*cw+(x/2)] = v
			}
		}
	}

	result := f.Clone(out)
	result.Format = frame.I420
	result.Stride = 0
	return result, nil
}

func clamp8(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
