package media

// BaseProcessor composes BaseSource and BaseSink for the common passive
// processor: start/stop are no-ops that simply flip the running flag,
// OnFrame is left to the embedder. Active processors (the encoder) override
// Start/Stop to manage a real worker.
type BaseProcessor struct {
	BaseSource
	BaseSink
}

// NewBaseProcessor returns a BaseProcessor with fresh diagnostic IDs. Note
// a Processor exposes a single ID() via BaseSink; embedders that need the
// BaseSource's separate ID (they shouldn't) can reach BaseSource.ID
// directly.
func NewBaseProcessor() BaseProcessor {
	return BaseProcessor{
		BaseSource: NewBaseSource(),
		BaseSink:   NewBaseSink(),
	}
}

// ID satisfies both Sink and Source through the embedded BaseSink; Go's
// embedding would otherwise report an ambiguous selector since BaseSource
// also defines ID, so it's resolved explicitly here.
func (p *BaseProcessor) ID() uint64 { return p.BaseSink.ID() }
