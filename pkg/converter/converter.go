// Package converter implements the Pixel-Format Converter processor:
// channel-reorder conversions between packed RGB/BGR/RGBA/BGRA formats and
// RGB/BGR -> I420 color-space conversion using BT.601 coefficients.
package converter

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/lmshao/remote-desk/pkg/frame"
	"github.com/lmshao/remote-desk/pkg/media"
)

// ErrOddDimensions is the conversion error for an I420 output when the
// input's width or height is odd; OnFrame drops such a frame and counts it
// in FramesDropped.
var ErrOddDimensions = errors.New("converter: I420 output requires even width and height")

// Config configures a Converter.
type Config struct {
	InputFormat     frame.Format
	OutputFormat    frame.Format
	EnableThreading bool
}

var supportedFormats = map[frame.Format]bool{
	frame.RGB24:  true,
	frame.BGR24:  true,
	frame.RGBA32: true,
	frame.BGRA32: true,
	frame.I420:   true,
}

// Converter is a media.Processor mapping one pixel format to another.
type Converter struct {
	media.BaseProcessor

	cfg atomic.Pointer[Config]

	processed atomic.Uint64
	dropped   atomic.Uint64
}

// New validates cfg and returns a ready Converter.
func New(cfg Config) (*Converter, error) {
	if !supportedFormats[cfg.OutputFormat] {
		return nil, errors.New("converter: unsupported output format")
	}
	c := &Converter{BaseProcessor: media.NewBaseProcessor()}
	cfgCopy := cfg
	c.cfg.Store(&cfgCopy)
	return c, nil
}

// SetOutputFormat changes the target format. Calling it repeatedly with
// the same format has no observable effect beyond the first call.
func (c *Converter) SetOutputFormat(f frame.Format) {
	cur := *c.cfg.Load()
	if cur.OutputFormat == f {
		return
	}
	cur.OutputFormat = f
	c.cfg.Store(&cur)
}

// FramesProcessed and FramesDropped are exposed for tests/metrics.
func (c *Converter) FramesProcessed() uint64 { return c.processed.Load() }
func (c *Converter) FramesDropped() uint64   { return c.dropped.Load() }

// OutputSize returns the byte size of a converted frame of the given
// dimensions and output format, per the spec's size table.
func OutputSize(format frame.Format, width, height int) int {
	switch format {
	case frame.RGB24, frame.BGR24:
		return width * height * 3
	case frame.RGBA32, frame.BGRA32:
		return width * height * 4
	case frame.I420:
		return width*height + 2*(width/2)*(height/2)
	default:
		return 0
	}
}

// OnFrame implements media.Sink.
func (c *Converter) OnFrame(f *frame.Frame) {
	if f == nil || !f.IsValid() || !f.Format.IsVideo() {
		c.dropped.Add(1)
		componentStats().FramesDropped.Inc()
		return
	}

	cfg := *c.cfg.Load()
	if f.Format == cfg.OutputFormat {
		// Zero-copy forward: same reference to the next sink.
		c.BaseProcessor.Deliver(f)
		c.processed.Add(1)
		componentStats().FramesProcessed.Inc()
		return
	}

	start := time.Now()
	out, err := c.convert(f, cfg.OutputFormat)
	if err != nil {
		c.dropped.Add(1)
		componentStats().FramesDropped.Inc()
		return
	}
	componentStats().ProcessingTime.Observe(time.Since(start).Seconds())

	c.BaseProcessor.Deliver(out)
	c.processed.Add(1)
	componentStats().FramesProcessed.Inc()
}

func (c *Converter) convert(f *frame.Frame, outFormat frame.Format) (*frame.Frame, error) {
	if outFormat == frame.I420 {
		if f.Width%2 != 0 || f.Height%2 != 0 {
			return nil, ErrOddDimensions
		}
		return convertToI420(f)
	}
	return reorderChannels(f, outFormat)
}
