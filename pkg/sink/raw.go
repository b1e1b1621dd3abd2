package sink

import (
	"io"
	"sync"

	"github.com/lmshao/remote-desk/pkg/frame"
	"github.com/lmshao/remote-desk/pkg/media"
)

// RawDumper writes each frame's payload unchanged to w — a ".bgra",
// ".rgba", or ".yuv" dumper with no container framing at all.
type RawDumper struct {
	media.BaseSink

	mu     sync.Mutex
	w      io.Writer
	closer io.Closer

	FramesWritten uint64
	BytesWritten  uint64
}

// NewRawDumper wraps w (and, if non-nil, closer is closed by Stop).
func NewRawDumper(w io.Writer, closer io.Closer) *RawDumper {
	return &RawDumper{BaseSink: media.NewBaseSink(), w: w, closer: closer}
}

func (d *RawDumper) OnFrame(f *frame.Frame) {
	if !d.IsRunning() || f == nil || !f.IsValid() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, _ := d.w.Write(f.Bytes)
	d.FramesWritten++
	d.BytesWritten += uint64(n)
}

func (d *RawDumper) Stop() {
	d.BaseSink.Stop()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closer != nil {
		d.closer.Close()
	}
}
