package encoder_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lmshao/remote-desk/pkg/encoder"
	"github.com/lmshao/remote-desk/pkg/frame"
	"github.com/lmshao/remote-desk/pkg/media"
)

// blockingBackend lets a test control exactly when Encode returns, so the
// queue can be driven to the point of overflow deterministically.
type blockingBackend struct {
	release chan struct{}
	mu      sync.Mutex
	bitrate int
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{release: make(chan struct{})}
}

func (b *blockingBackend) Encode(f *frame.Frame, forceKeyframe bool) ([]*frame.Frame, error) {
	<-b.release
	return []*frame.Frame{f}, nil
}
func (b *blockingBackend) SetBitrate(bitrate int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bitrate = bitrate
}
func (b *blockingBackend) Flush() ([]*frame.Frame, error) { return nil, nil }
func (b *blockingBackend) Close() error                   { return nil }

type captureSink struct {
	media.BaseSink
	mu    sync.Mutex
	count int
}

func (s *captureSink) OnFrame(f *frame.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
}

func (s *captureSink) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func TestEncoderDropsOnFullQueue(t *testing.T) {
	backend := newBlockingBackend()
	enc := encoder.New(encoder.Config{QueueSize: 1}, backend)
	enc.Start()
	defer enc.Stop()
	defer close(backend.release)

	f := frame.New(frame.I420, []byte{1}, 0)
	// First frame is picked up by the worker and blocks on Encode; the
	// second fills the 1-slot queue; the third evicts the second (drop-oldest).
	enc.OnFrame(f)
	time.Sleep(20 * time.Millisecond)
	enc.OnFrame(f)
	enc.OnFrame(f)

	require.EqualValues(t, 1, enc.FramesDropped())
}

func TestEncoderStopFlushesQueueWorker(t *testing.T) {
	backend := newBlockingBackend()
	close(backend.release)
	enc := encoder.New(encoder.Config{QueueSize: 4}, backend)

	sink := &captureSink{BaseSink: media.NewBaseSink()}
	sink.Start()
	enc.AddSink(sink)

	enc.Start()
	f := frame.New(frame.I420, []byte{1}, 0)
	enc.OnFrame(f)
	time.Sleep(20 * time.Millisecond)
	enc.Stop()

	require.Equal(t, 1, sink.getCount())
}
