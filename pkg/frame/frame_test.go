package frame_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmshao/remote-desk/pkg/frame"
)

func TestIsValid(t *testing.T) {
	require.False(t, (&frame.Frame{}).IsValid())
	require.False(t, (*frame.Frame)(nil).IsValid())

	f := frame.New(frame.BGRA32, make([]byte, 16), 0)
	require.True(t, f.IsValid())
}

func TestFormatBands(t *testing.T) {
	assert.True(t, frame.BGRA32.IsVideo())
	assert.False(t, frame.BGRA32.IsAudio())
	assert.True(t, frame.AAC.IsAudio())
	assert.False(t, frame.AAC.IsVideo())
	assert.False(t, frame.Unknown.IsVideo())
}

func TestExpectedSizeI420(t *testing.T) {
	f := &frame.Frame{Format: frame.I420, Width: 4, Height: 2}
	assert.Equal(t, 12, f.ExpectedSize())
}

func TestExpectedSizePacked(t *testing.T) {
	f := &frame.Frame{Format: frame.BGRA32, Width: 640, Height: 480}
	assert.Equal(t, 640*480*4, f.ExpectedSize())
}

func TestRetainRelease(t *testing.T) {
	f := frame.New(frame.BGRA32, []byte{1}, 0)
	require.EqualValues(t, 1, f.RefCount())
	f.Retain()
	require.EqualValues(t, 2, f.RefCount())
	f.Release()
	f.Release()
	require.EqualValues(t, 0, f.RefCount())
}

func TestCloneCopiesStride(t *testing.T) {
	f := &frame.Frame{Format: frame.BGRA32, Width: 2, Height: 2, Stride: 16}
	c := f.Clone(make([]byte, 32))
	assert.Equal(t, 16, c.Stride)
	assert.EqualValues(t, 1, c.RefCount())
}
