package sink_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lmshao/remote-desk/pkg/frame"
	"github.com/lmshao/remote-desk/pkg/sink"
)

func TestY4MRecorderWritesHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	rec := sink.NewY4MRecorder(&buf, nil)
	rec.Start()

	f := frame.New(frame.I420, []byte{1, 2, 3}, 0)
	f.Width, f.Height, f.FrameRate = 4, 2, 30

	rec.OnFrame(f)
	rec.OnFrame(f)
	rec.Stop()

	out := buf.String()
	require.Equal(t, 1, strings.Count(out, "YUV4MPEG2"))
	require.Equal(t, 2, strings.Count(out, "FRAME\n"))
	require.EqualValues(t, 2, rec.FramesWritten)
}

func TestRawDumperWritesPayloadUnchanged(t *testing.T) {
	var buf bytes.Buffer
	d := sink.NewRawDumper(&buf, nil)
	d.Start()

	f := frame.New(frame.BGRA32, []byte{9, 8, 7, 6}, 0)
	d.OnFrame(f)
	d.Stop()

	require.Equal(t, []byte{9, 8, 7, 6}, buf.Bytes())
}

func TestSinksIgnoreFramesWhenNotRunning(t *testing.T) {
	var buf bytes.Buffer
	d := sink.NewRawDumper(&buf, nil)
	d.OnFrame(frame.New(frame.BGRA32, []byte{1}, 0))
	require.Equal(t, 0, buf.Len())
}
