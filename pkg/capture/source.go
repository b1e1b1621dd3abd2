package capture

import "github.com/lmshao/remote-desk/pkg/media"

// Source adapts an Engine into a media.Source: every captured frame is
// fanned out to the pipeline's registered sinks via Deliver.
type Source struct {
	media.BaseSource
	engine Engine
}

// NewSource wraps engine, wiring its frame callback straight into the
// fan-out list.
func NewSource(engine Engine) *Source {
	s := &Source{BaseSource: media.NewBaseSource(), engine: engine}
	engine.SetFrameCallback(s.Deliver)
	return s
}

// Start satisfies the Pipeline's optional `interface{ Start() bool }`
// source lifecycle hook.
func (s *Source) Start() bool {
	return s.engine.Start() == Success
}

func (s *Source) Stop() {
	s.engine.Stop()
}

func (s *Source) Engine() Engine { return s.engine }
