package media

import (
	"errors"
	"fmt"
)

// ErrAlreadyLinked names the condition of a pipeline that has already been
// linked and not since Unlinked/Cleared. This Pipeline's LinkAll never
// returns it: LinkAll returns a bool and re-links idempotently (see
// LinkAll). It exists for implementations that want to detect-and-reject
// instead of silently re-linking.
var ErrAlreadyLinked = errors.New("pipeline: already linked")

// Pipeline owns exactly one Source, an ordered chain of Processors, and at
// most one terminal Sink, and orchestrates their lifecycle together.
type Pipeline struct {
	source     Source
	processors []Processor
	sink       Sink
	linked     bool
}

// NewPipeline returns an empty, unlinked Pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

func (p *Pipeline) SetSource(s Source) { p.source = s }
func (p *Pipeline) SetSink(s Sink)     { p.sink = s }
func (p *Pipeline) AddProcessor(proc Processor) {
	p.processors = append(p.processors, proc)
}

// IsConnected reports whether both a source and a sink are set.
func (p *Pipeline) IsConnected() bool {
	return p.source != nil && p.sink != nil
}

// LinkAll wires source -> processors... -> sink. It is idempotent: calling
// it twice never duplicates an edge, because it clears every upstream's
// fan-out set before re-adding the single downstream edge each node should
// have in this linear pipeline.
func (p *Pipeline) LinkAll() bool {
	if p.source == nil || p.sink == nil {
		return false
	}

	p.source.ClearSinks()
	for _, proc := range p.processors {
		proc.ClearSinks()
	}

	upstream := p.source
	for _, proc := range p.processors {
		upstream.AddSink(proc)
		upstream = proc
	}
	upstream.AddSink(p.sink)

	p.linked = true
	return true
}

// UnlinkAll clears every upstream node's fan-out set, disconnecting the
// chain without dropping the node references themselves.
func (p *Pipeline) UnlinkAll() {
	if p.source != nil {
		p.source.ClearSinks()
	}
	for _, proc := range p.processors {
		proc.ClearSinks()
	}
	p.linked = false
}

// Clear drops every node reference and unlinks.
func (p *Pipeline) Clear() {
	p.UnlinkAll()
	p.source = nil
	p.sink = nil
	p.processors = nil
}

// Start starts the sink, then each processor in forward order, then the
// source last (producers must not fire before consumers are ready). It
// returns false on the first failure and does NOT roll back components
// already started — see spec's documented partial-start anomaly; callers
// must call Stop (idempotent) to clean up.
func (p *Pipeline) Start() bool {
	if p.sink != nil {
		if !p.sink.Start() {
			return false
		}
	}
	for _, proc := range p.processors {
		if !proc.Start() {
			return false
		}
	}
	if starter, ok := p.source.(interface{ Start() bool }); ok {
		return starter.Start()
	}
	return true
}

// Stop stops the source first, then processors, then the sink — upstream
// must stop emitting before downstream tears down. Safe to call more than
// once.
func (p *Pipeline) Stop() {
	if stopper, ok := p.source.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	for i := len(p.processors) - 1; i >= 0; i-- {
		p.processors[i].Stop()
	}
	if p.sink != nil {
		p.sink.Stop()
	}
}

// ComponentCount returns source + processors + sink, counting only the
// nodes that are actually set.
func (p *Pipeline) ComponentCount() int {
	n := len(p.processors)
	if p.source != nil {
		n++
	}
	if p.sink != nil {
		n++
	}
	return n
}

// PipelineInfo returns a one-line diagnostic summary.
func (p *Pipeline) PipelineInfo() string {
	return fmt.Sprintf(
		"pipeline{source=%v processors=%d sink=%v connected=%v linked=%v}",
		p.source != nil, len(p.processors), p.sink != nil, p.IsConnected(), p.linked,
	)
}
