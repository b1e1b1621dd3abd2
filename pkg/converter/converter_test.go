package converter_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lmshao/remote-desk/pkg/converter"
	"github.com/lmshao/remote-desk/pkg/frame"
	"github.com/lmshao/remote-desk/pkg/media"
)

type captureSink struct {
	media.BaseSink
	mu  sync.Mutex
	got *frame.Frame
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

func newWiredConverter(t *testing.T, cfg converter.Config) (*converter.Converter, *captureSink) {
	t.Helper()
	c, err := converter.New(cfg)
	require.NoError(t, err)
	sink := &captureSink{BaseSink: media.NewBaseSink()}
	sink.Start()
	c.AddSink(sink)
	return c, sink
}

func TestZeroCopyWhenFormatsMatch(t *testing.T) {
	c, sink := newWiredConverter(t, converter.Config{OutputFormat: frame.BGRA32})

	in := frame.New(frame.BGRA32, []byte{1, 2, 3, 4}, 0)
	in.Width, in.Height = 1, 1
	c.OnFrame(in)

	require.Same(t, in, sink.last())
}

func TestBGRAToRGBARoundTrip(t *testing.T) {
	c1, sink1 := newWiredConverter(t, converter.Config{OutputFormat: frame.RGBA32})

	in := frame.New(frame.BGRA32, []byte{10, 20, 30, 255}, 0) // B,G,R,A
	in.Width, in.Height = 1, 1
	c1.OnFrame(in)
	mid := sink1.last()
	require.NotNil(t, mid)
	require.Equal(t, frame.RGBA32, mid.Format)

	c2, sink2 := newWiredConverter(t, converter.Config{OutputFormat: frame.BGRA32})
	c2.OnFrame(mid)
	back := sink2.last()
	require.NotNil(t, back)
	require.Equal(t, in.Bytes, back.Bytes, "BGRA32 -> RGBA32 -> BGRA32 must be byte-for-byte equal")
}

func TestRGBToBGRRoundTrip(t *testing.T) {
	c1, sink1 := newWiredConverter(t, converter.Config{OutputFormat: frame.BGR24})
	in := frame.New(frame.RGB24, []byte{10, 20, 30}, 0)
	in.Width, in.Height = 1, 1
	c1.OnFrame(in)
	mid := sink1.last()

	c2, sink2 := newWiredConverter(t, converter.Config{OutputFormat: frame.RGB24})
	c2.OnFrame(mid)
	back := sink2.last()
	require.Equal(t, in.Bytes, back.Bytes)
}

func TestBGRAToI420Dimensions(t *testing.T) {
	// S3-style scenario: a small solid-color BGRA frame converted to I420.
	c, sink := newWiredConverter(t, converter.Config{OutputFormat: frame.I420})

	w, h := 4, 2
	data := make([]byte, w*h*4)
	for i := 0; i < len(data); i += 4 {
		data[i+0] = 255 // B
		data[i+1] = 0   // G
		data[i+2] = 0   // R
		data[i+3] = 255 // A
	}
	in := frame.New(frame.BGRA32, data, 0)
	in.Width, in.Height = w, h

	c.OnFrame(in)
	out := sink.last()
	require.NotNil(t, out)
	require.Equal(t, frame.I420, out.Format)
	require.Equal(t, w*h+2*(w/2)*(h/2), len(out.Bytes))
	require.Equal(t, 12, len(out.Bytes))

	ySize := w * h
	for _, y := range out.Bytes[:ySize] {
		require.EqualValues(t, 28, y)
	}
	for _, u := range out.Bytes[ySize : ySize+2] {
		require.EqualValues(t, 255, u)
	}
	for _, v := range out.Bytes[ySize+2:] {
		require.EqualValues(t, 107, v)
	}
}

func TestOddDimensionsRejectedForI420(t *testing.T) {
	c, sink := newWiredConverter(t, converter.Config{OutputFormat: frame.I420})
	in := frame.New(frame.BGRA32, make([]byte, 3*3*4), 0)
	in.Width, in.Height = 3, 3
	c.OnFrame(in)
	require.Nil(t, sink.last())
	require.EqualValues(t, 1, c.FramesDropped())
}

func TestSetOutputFormatIdempotent(t *testing.T) {
	c, err := converter.New(converter.Config{OutputFormat: frame.BGRA32})
	require.NoError(t, err)
	c.SetOutputFormat(frame.RGBA32)
	c.SetOutputFormat(frame.RGBA32)
}
