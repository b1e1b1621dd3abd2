// Package media defines the Source/Sink/Processor capabilities that make
// up the pipeline's node graph, and the Pipeline assembler that wires them.
package media

import (
	"sync/atomic"

	"github.com/lmshao/remote-desk/pkg/frame"
)

var nodeIDCounter atomic.Uint64

// nextNodeID hands out a process-lifetime-unique, purely diagnostic ID.
// The original source used the source object's address; a Go object's
// address isn't stable enough to rely on (the GC may move nothing, but
// comparing addresses across types invites subtle bugs), so a counter is
// used instead, exactly as spec'd as an acceptable reimplementation choice.
func nextNodeID() uint64 {
	return nodeIDCounter.Add(1)
}

// Sink consumes frames. Implementations must not block for long in OnFrame
// and must silently ignore frames delivered while not running.
type Sink interface {
	ID() uint64
	Initialize() bool
	Start() bool
	Stop()
	IsRunning() bool
	OnFrame(f *frame.Frame)
}

// Source produces frames and fans them out to a set of Sinks.
type Source interface {
	ID() uint64
	AddSink(s Sink)
	RemoveSink(s Sink)
	ClearSinks()
	SinkCount() int
	HasSinks() bool
	Deliver(f *frame.Frame)
}

// Processor is both a Sink (receives upstream frames) and a Source
// (republishes derived frames downstream).
type Processor interface {
	Sink
	Source
}
