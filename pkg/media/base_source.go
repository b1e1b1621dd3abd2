package media

import "github.com/lmshao/remote-desk/pkg/frame"

// BaseSource implements the fan-out half of the Source capability. Embed it
// in a concrete producer (capture engine, processor) to get AddSink/
// RemoveSink/ClearSinks/Deliver for free.
type BaseSource struct {
	id    uint64
	sinks SinkList
}

// NewBaseSource returns a BaseSource with a fresh diagnostic ID.
func NewBaseSource() BaseSource {
	return BaseSource{id: nextNodeID()}
}

func (s *BaseSource) ID() uint64 { return s.id }

func (s *BaseSource) AddSink(sink Sink)    { s.sinks.Add(sink) }
func (s *BaseSource) RemoveSink(sink Sink) { s.sinks.Remove(sink) }
func (s *BaseSource) ClearSinks()          { s.sinks.Clear() }
func (s *BaseSource) SinkCount() int       { return s.sinks.Count() }
func (s *BaseSource) HasSinks() bool       { return s.sinks.Has() }
func (s *BaseSource) Deliver(f *frame.Frame) { s.sinks.Deliver(f) }
