package scaler_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lmshao/remote-desk/pkg/frame"
	"github.com/lmshao/remote-desk/pkg/media"
	"github.com/lmshao/remote-desk/pkg/scaler"
)

type captureSink struct {
	media.BaseSink
	mu    sync.Mutex
	got   *frame.Frame
}

func (s *captureSink) OnFrame(f *frame.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = f
}

func (s *captureSink) last() *frame.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.got
}

func TestInvalidTargetRejected(t *testing.T) {
	_, err := scaler.New(scaler.Config{TargetWidth: 0, TargetHeight: 100, Algorithm: scaler.Bilinear})
	require.Error(t, err)
}

func TestUnsupportedAlgorithmRejected(t *testing.T) {
	_, err := scaler.New(scaler.Config{TargetWidth: 10, TargetHeight: 10, Algorithm: scaler.Lanczos})
	require.ErrorIs(t, err, scaler.ErrUnsupportedAlgorithm)
}

func TestScaleDownPreservingAspect(t *testing.T) {
	// S2: 1600x900 -> target 1280x720 maintaining aspect ratio.
	sc, err := scaler.New(scaler.Config{
		TargetWidth:         1280,
		TargetHeight:        720,
		Algorithm:           scaler.Bilinear,
		MaintainAspectRatio: true,
	})
	require.NoError(t, err)

	sink := &captureSink{BaseSink: media.NewBaseSink()}
	sink.Start()
	sc.AddSink(sink)

	in := frame.New(frame.BGRA32, make([]byte, 1600*900*4), 0)
	in.Width, in.Height = 1600, 900
	for i := range in.Bytes {
		in.Bytes[i] = 0x11
	}

	sc.OnFrame(in)

	out := sink.last()
	require.NotNil(t, out)
	require.Equal(t, 1280, out.Width)
	require.Equal(t, 720, out.Height)
	require.Equal(t, 1280*720*4, len(out.Bytes))
}

func TestZeroCopyWhenAlreadyTargetSize(t *testing.T) {
	sc, err := scaler.New(scaler.Config{TargetWidth: 100, TargetHeight: 100, Algorithm: scaler.Bilinear})
	require.NoError(t, err)

	sink := &captureSink{BaseSink: media.NewBaseSink()}
	sink.Start()
	sc.AddSink(sink)

	in := frame.New(frame.BGRA32, make([]byte, 100*100*4), 0)
	in.Width, in.Height = 100, 100

	sc.OnFrame(in)
	require.Same(t, in, sink.last())
}

func TestNonVideoFrameDropped(t *testing.T) {
	sc, err := scaler.New(scaler.Config{TargetWidth: 10, TargetHeight: 10, Algorithm: scaler.Bilinear})
	require.NoError(t, err)
	sink := &captureSink{BaseSink: media.NewBaseSink()}
	sink.Start()
	sc.AddSink(sink)

	in := frame.New(frame.AAC, []byte{1, 2, 3}, 0)
	sc.OnFrame(in)
	require.Nil(t, sink.last())
	require.EqualValues(t, 1, sc.Snapshot().FramesDropped)
}
