// Package encoder implements the Video Encoder processor contract: a
// bounded-queue worker that hands raw frames to an external collaborator
// (here, ffmpeg) and emits encoded packets. Codec internals are out of
// scope; this package only owns the queue/worker/lifecycle plumbing.
package encoder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lmshao/remote-desk/pkg/frame"
	"github.com/lmshao/remote-desk/pkg/media"
)

const defaultQueueSize = 64

// Config configures an Encoder.
type Config struct {
	Width            int
	Height           int
	FPS              int
	Bitrate          int
	KeyframeInterval int
	InputFormat      frame.Format
	OutputFormat     frame.Format // H264 or H265
	QueueSize        int
}

// Backend is the external collaborator that actually encodes frames. The
// ffmpeg-subprocess implementation lives in pkg/encoder/ffmpeg.go, grounded
// on the teacher's encoder-selection logic; any implementation conforming
// to this interface may be substituted.
type Backend interface {
	// Encode consumes one raw frame and returns zero or more encoded
	// packets (a keyframe is split into its own packet by convention).
	Encode(f *frame.Frame, forceKeyframe bool) ([]*frame.Frame, error)
	SetBitrate(bitrate int)
	Flush() ([]*frame.Frame, error)
	Close() error
}

// Encoder is the one media.Processor in this module that is active rather
// than passive: Start/Stop manage a real worker goroutine draining the
// bounded queue, per spec's documented exception to the passive-processor
// model.
type Encoder struct {
	media.BaseProcessor

	cfg     Config
	backend Backend

	queue *frameQueue

	forceKey atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns an Encoder bound to backend, not yet started.
func New(cfg Config, backend Backend) *Encoder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	return &Encoder{
		BaseProcessor: media.NewBaseProcessor(),
		cfg:           cfg,
		backend:       backend,
		queue:         newFrameQueue(cfg.QueueSize),
	}
}

// OnFrame enqueues f without blocking, evicting the oldest pending frame
// when the queue is full (see frameQueue) and incrementing FramesDropped.
func (e *Encoder) OnFrame(f *frame.Frame) {
	if !e.IsRunning() || f == nil || !f.IsValid() {
		return
	}
	before := e.queue.Dropped()
	e.queue.Enqueue(f)
	if e.queue.Dropped() != before {
		componentStats().FramesDropped.Inc()
	}
}

// FramesDropped reports how many frames were evicted due to a full queue.
func (e *Encoder) FramesDropped() uint64 { return e.queue.Dropped() }

// ForceKeyframe makes the next encoded frame a keyframe.
func (e *Encoder) ForceKeyframe() { e.forceKey.Store(true) }

// SetBitrate live-adjusts the backend's target bitrate.
func (e *Encoder) SetBitrate(bitrate int) {
	e.cfg.Bitrate = bitrate
	e.backend.SetBitrate(bitrate)
}

// Start launches the worker goroutine. Idempotent.
func (e *Encoder) Start() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return true
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.BaseSink.Start()
	e.wg.Add(1)
	go e.run(ctx)
	return true
}

// Stop signals the worker to exit, flushes remaining packets, and joins.
func (e *Encoder) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	e.wg.Wait()
	e.BaseSink.Stop()

	if packets, err := e.backend.Flush(); err == nil {
		for _, p := range packets {
			e.BaseProcessor.Deliver(p)
		}
	}
}

func (e *Encoder) run(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.queue.signal:
			for {
				f, ok := e.queue.Dequeue()
				if !ok {
					break
				}
				forceKey := e.forceKey.Swap(false)
				start := time.Now()
				packets, err := e.backend.Encode(f, forceKey)
				componentStats().ProcessingTime.Observe(time.Since(start).Seconds())
				if err != nil {
					componentStats().FramesDropped.Inc()
					continue
				}
				componentStats().FramesProcessed.Inc()
				for _, p := range packets {
					e.BaseProcessor.Deliver(p)
				}
			}
		}
	}
}
