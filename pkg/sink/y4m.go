// Package sink provides the example terminal sinks named in spec §6: a
// Y4M recorder and a raw pixel dumper. Both are ordinary media.Sink
// implementations, not part of the pipeline core.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/lmshao/remote-desk/pkg/frame"
	"github.com/lmshao/remote-desk/pkg/media"
)

// Y4MRecorder writes an uncompressed Y4M container: one header line, then
// "FRAME\n" plus the raw payload per video frame it receives.
type Y4MRecorder struct {
	media.BaseSink

	mu          sync.Mutex
	w           *bufio.Writer
	closer      io.Closer
	wroteHeader bool

	FramesWritten uint64
	BytesWritten  uint64
}

// NewY4MRecorder wraps w (and, if non-nil, closer is closed by Stop).
func NewY4MRecorder(w io.Writer, closer io.Closer) *Y4MRecorder {
	return &Y4MRecorder{
		BaseSink: media.NewBaseSink(),
		w:        bufio.NewWriter(w),
		closer:   closer,
	}
}

// OnFrame implements media.Sink. The first valid video frame's dimensions
// and framerate fix the header; subsequent frames are assumed consistent.
func (r *Y4MRecorder) OnFrame(f *frame.Frame) {
	if !r.IsRunning() || f == nil || !f.IsValid() || !f.Format.IsVideo() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.wroteHeader {
		fps := f.FrameRate
		if fps <= 0 {
			fps = 30
		}
		fmt.Fprintf(r.w, "YUV4MPEG2 W%d H%d F%d:1 Ip A1:1 C420\n", f.Width, f.Height, fps)
		r.wroteHeader = true
	}

	r.w.WriteString("FRAME\n")
	n, _ := r.w.Write(f.Bytes)
	r.FramesWritten++
	r.BytesWritten += uint64(n)
}

// Stop flushes buffered output and closes the underlying writer, on top of
// the base lifecycle's running-flag flip.
func (r *Y4MRecorder) Stop() {
	r.BaseSink.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Flush()
	if r.closer != nil {
		r.closer.Close()
	}
}
