package media_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmshao/remote-desk/pkg/frame"
	"github.com/lmshao/remote-desk/pkg/media"
)

// recordingSink is a minimal Sink that records every frame it receives,
// used to assert fan-out delivery and quiescence after Stop.
type recordingSink struct {
	media.BaseSink
	mu     sync.Mutex
	frames []*frame.Frame
}

func newRecordingSink() *recordingSink {
	return &recordingSink{BaseSink: media.NewBaseSink()}
}

func (s *recordingSink) OnFrame(f *frame.Frame) {
	if !s.IsRunning() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

type fakeSource struct {
	media.BaseSource
}

func (s *fakeSource) Start() bool { return true }
func (s *fakeSource) Stop()       {}

func TestSinkListRejectsDuplicates(t *testing.T) {
	var list media.SinkList
	s := newRecordingSink()
	s.Start()
	list.Add(s)
	list.Add(s)
	assert.Equal(t, 1, list.Count())
}

func TestDeliverReachesEverySink(t *testing.T) {
	var list media.SinkList

	mk := func() *recordingSink {
		rs := newRecordingSink()
		rs.Start()
		return rs
	}
	s1, s2 := mk(), mk()
	list.Add(s1)
	list.Add(s2)

	f := frame.New(frame.BGRA32, []byte{1, 2, 3}, 0)
	list.Deliver(f)

	require.Equal(t, 1, s1.count())
	require.Equal(t, 1, s2.count())
}

func TestPipelineQuiescenceAfterStop(t *testing.T) {
	src := &fakeSource{BaseSource: media.NewBaseSource()}
	sink := newRecordingSink()

	p := media.NewPipeline()
	p.SetSource(src)
	p.SetSink(sink)
	require.True(t, p.LinkAll())
	require.True(t, p.Start())

	f := frame.New(frame.BGRA32, []byte{1}, 0)
	src.Deliver(f)
	require.Equal(t, 1, sink.count())

	p.Stop()
	src.Deliver(f)
	require.Equal(t, 1, sink.count(), "sink must not receive frames after Stop")
}

func TestLinkAllIdempotent(t *testing.T) {
	src := &fakeSource{BaseSource: media.NewBaseSource()}
	sink := newRecordingSink()

	p := media.NewPipeline()
	p.SetSource(src)
	p.SetSink(sink)
	require.True(t, p.LinkAll())
	require.True(t, p.LinkAll())

	assert.Equal(t, 1, src.SinkCount())
}

func TestStopIsNoopWhenCalledTwice(t *testing.T) {
	src := &fakeSource{BaseSource: media.NewBaseSource()}
	sink := newRecordingSink()
	p := media.NewPipeline()
	p.SetSource(src)
	p.SetSink(sink)
	require.True(t, p.LinkAll())
	require.True(t, p.Start())
	p.Stop()
	p.Stop()
}
