// Package scaler implements the Video Scaler processor: bilinear
// resampling of BGRA32/RGBA32 frames to a target resolution.
package scaler

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lmshao/remote-desk/pkg/frame"
	"github.com/lmshao/remote-desk/pkg/media"
)

const statsEMAAlpha = 0.1

// Algorithm names the resampling strategy. Only Bilinear is implemented;
// the others are accepted by Config for forward compatibility but rejected
// at construction time (see Open Questions in SPEC_FULL.md).
type Algorithm int

const (
	Nearest Algorithm = iota
	Bilinear
	Bicubic
	Lanczos
)

// ErrUnsupportedAlgorithm is returned by New for any Algorithm other than
// Bilinear.
var ErrUnsupportedAlgorithm = errors.New("scaler: algorithm not implemented")

// ErrInvalidTarget is returned by New when TargetWidth or TargetHeight is
// not positive.
var ErrInvalidTarget = errors.New("scaler: target dimensions must be > 0")

// Config configures a Scaler.
type Config struct {
	TargetWidth         int
	TargetHeight        int
	Algorithm           Algorithm
	MaintainAspectRatio bool
	EnableThreading     bool
}

// Stats reports running counters, read under Scaler's own mutex.
type Stats struct {
	FramesProcessed  uint64
	FramesDropped    uint64
	AvgScalingTimeUs float64
	InputWidth       int
	InputHeight      int
	OutputWidth      int
	OutputHeight     int
}

// Scaler is a media.Processor that resamples video frames to Config's
// target resolution.
type Scaler struct {
	media.BaseProcessor

	cfg Config

	mu       sync.Mutex
	stats    Stats
	haveEMA  bool

	processed atomic.Uint64
	dropped   atomic.Uint64
}

// New validates cfg and returns a ready Scaler.
func New(cfg Config) (*Scaler, error) {
	if cfg.TargetWidth <= 0 || cfg.TargetHeight <= 0 {
		return nil, ErrInvalidTarget
	}
	if cfg.Algorithm != Bilinear {
		return nil, ErrUnsupportedAlgorithm
	}
	return &Scaler{
		BaseProcessor: media.NewBaseProcessor(),
		cfg:           cfg,
	}, nil
}

// Snapshot returns a copy of the current stats.
func (s *Scaler) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.stats
	snap.FramesProcessed = s.processed.Load()
	snap.FramesDropped = s.dropped.Load()
	return snap
}

// OnFrame implements media.Sink.
func (s *Scaler) OnFrame(f *frame.Frame) {
	if f == nil || !f.IsValid() || !f.Format.IsVideo() {
		s.dropped.Add(1)
		componentStats().FramesDropped.Inc()
		return
	}

	targetW, targetH := s.targetDimensions(f.Width, f.Height)

	if f.Width == targetW && f.Height == targetH {
		s.BaseProcessor.Deliver(f)
		s.processed.Add(1)
		componentStats().FramesProcessed.Inc()
		return
	}

	start := time.Now()
	out, ok := s.resample(f, targetW, targetH)
	elapsed := time.Since(start)
	elapsedUs := float64(elapsed.Microseconds())
	if !ok {
		s.dropped.Add(1)
		componentStats().FramesDropped.Inc()
		return
	}
	componentStats().ProcessingTime.Observe(elapsed.Seconds())

	s.mu.Lock()
	s.stats.InputWidth, s.stats.InputHeight = f.Width, f.Height
	s.stats.OutputWidth, s.stats.OutputHeight = targetW, targetH
	if !s.haveEMA {
		s.stats.AvgScalingTimeUs = elapsedUs
		s.haveEMA = true
	} else {
		s.stats.AvgScalingTimeUs = statsEMAAlpha*elapsedUs + (1-statsEMAAlpha)*s.stats.AvgScalingTimeUs
	}
	s.mu.Unlock()

	s.BaseProcessor.Deliver(out)
	s.processed.Add(1)
	componentStats().FramesProcessed.Inc()
}

// targetDimensions computes (target_w, target_h) per the spec: exact
// config target when aspect ratio is not preserved, else the largest box
// that fits inside the target while preserving the input's aspect ratio,
// with each dimension rounded up to the nearest even number.
func (s *Scaler) targetDimensions(inW, inH int) (int, int) {
	if !s.cfg.MaintainAspectRatio || inW == 0 || inH == 0 {
		return s.cfg.TargetWidth, s.cfg.TargetHeight
	}

	targetW, targetH := s.cfg.TargetWidth, s.cfg.TargetHeight
	inAspect := float64(inW) / float64(inH)
	boxAspect := float64(targetW) / float64(targetH)

	var w, h int
	if inAspect > boxAspect {
		w = targetW
		h = int(float64(targetW) / inAspect)
	} else {
		h = targetH
		w = int(float64(targetH) * inAspect)
	}
	return roundUpEven(w), roundUpEven(h)
}

func roundUpEven(n int) int {
	if n%2 != 0 {
		n++
	}
	if n < 2 {
		n = 2
	}
	return n
}

func (s *Scaler) resample(f *frame.Frame, targetW, targetH int) (*frame.Frame, bool) {
	bpp := frame.BytesPerPixel(f.Format)
	if bpp == 0 || (f.Format != frame.BGRA32 && f.Format != frame.RGBA32) {
		return nil, false
	}

	srcStride := f.Stride
	if srcStride == 0 {
		srcStride = f.Width * bpp
	}

	dstStride := targetW * bpp
	out := make([]byte, targetH*dstStride)

	bilinearResample(f.Bytes, srcStride, f.Width, f.Height, out, dstStride, targetW, targetH, bpp)

	result := f.Clone(out)
	result.Width = targetW
	result.Height = targetH
	result.Stride = dstStride
	return result, true
}

// bilinearResample implements the exact algorithm from the spec: for each
// destination pixel compute the fractional source coordinate, clamp the
// four neighbours to the source bounds, and linearly interpolate each
// channel, clamping the result to [0,255].
func bilinearResample(src []byte, srcStride, srcW, srcH int, dst []byte, dstStride, dstW, dstH, bpp int) {
	if srcW <= 0 || srcH <= 0 {
		return
	}
	for y := 0; y < dstH; y++ {
		sy := float64(y) * float64(srcH) / float64(dstH)
		y0 := int(sy)
		if y0 > srcH-1 {
			y0 = srcH - 1
		}
		y1 := y0 + 1
		if y1 > srcH-1 {
			y1 = srcH - 1
		}
		dy := sy - float64(y0)

		for x := 0; x < dstW; x++ {
			sx := float64(x) * float64(srcW) / float64(dstW)
			x0 := int(sx)
			if x0 > srcW-1 {
				x0 = srcW - 1
			}
			x1 := x0 + 1
			if x1 > srcW-1 {
				x1 = srcW - 1
			}
			dx := sx - float64(x0)

			for c := 0; c < bpp; c++ {
				p00 := float64(src[y0*srcStride+x0*bpp+c])
				p10 := float64(src[y0*srcStride+x1*bpp+c])
				p01 := float64(src[y1*srcStride+x0*bpp+c])
				p11 := float64(src[y1*srcStride+x1*bpp+c])

				top := p00 + (p10-p00)*dx
				bottom := p01 + (p11-p01)*dx
				v := top + (bottom-top)*dy

				dst[y*dstStride+x*bpp+c] = clampByte(v)
			}
		}
	}
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}
