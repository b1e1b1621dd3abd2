package frame

import "sync/atomic"

// Frame is an immutable-after-publish typed buffer. A producer must not
// mutate Bytes (or any other field) after handing the frame to Deliver;
// every sink observes the same shared slice.
//
// Reference counting lets one producer fan a single allocation out to many
// sinks without copying. Retain/Release are the only mutating operations a
// sink may call, and only to manage the frame's lifetime.
type Frame struct {
	Bytes  []byte
	Format Format

	// Timestamp is in microseconds; a single Frame instance is internally
	// consistent but callers must not assume a particular epoch.
	Timestamp int64

	// Video fields.
	Width      int
	Height     int
	FrameRate  int
	IsKeyframe bool
	Stride     int // bytes per row; 0 means "no padding, derive from Width"

	// Audio fields.
	Channels        int
	SampleRate      int
	SamplesPerFrame int
	BytesPerSample  int

	refs atomic.Int32
}

// New creates a Frame with an initial reference count of one.
func New(format Format, data []byte, timestampUs int64) *Frame {
	f := &Frame{Bytes: data, Format: format, Timestamp: timestampUs}
	f.refs.Store(1)
	return f
}

// Retain increments the reference count. Call before handing the frame to
// a second goroutine/sink that will release it independently.
func (f *Frame) Retain() *Frame {
	f.refs.Add(1)
	return f
}

// Release decrements the reference count. It is a no-op error to over-
// release; callers that do so have a bug, not a recoverable condition.
func (f *Frame) Release() {
	f.refs.Add(-1)
}

// RefCount returns the current reference count, for diagnostics/tests only.
func (f *Frame) RefCount() int32 {
	return f.refs.Load()
}

// IsValid reports whether the frame carries a non-empty payload.
func (f *Frame) IsValid() bool {
	return f != nil && len(f.Bytes) > 0
}

// ExpectedSize returns the minimum byte size implied by the frame's
// dimensions and format, for video frames. It returns 0 for formats this
// helper doesn't know the layout of (e.g. compressed formats, audio).
func (f *Frame) ExpectedSize() int {
	if !f.Format.IsVideo() {
		return 0
	}
	switch f.Format {
	case I420, NV12:
		return f.Width*f.Height + 2*((f.Width+1)/2)*((f.Height+1)/2)
	}
	stride := f.Stride
	if stride == 0 {
		bpp := BytesPerPixel(f.Format)
		if bpp == 0 {
			return 0
		}
		stride = f.Width * bpp
	}
	return f.Height * stride
}

// Clone allocates a new Frame with a copy of the byte payload and the same
// metadata, with a fresh reference count of one. Processors use this when
// they need to mutate pixel data rather than forward the shared buffer.
func (f *Frame) Clone(newData []byte) *Frame {
	c := &Frame{
		Bytes:           newData,
		Format:          f.Format,
		Timestamp:       f.Timestamp,
		Width:           f.Width,
		Height:          f.Height,
		FrameRate:       f.FrameRate,
		IsKeyframe:      f.IsKeyframe,
		Stride:          f.Stride,
		Channels:        f.Channels,
		SampleRate:      f.SampleRate,
		SamplesPerFrame: f.SamplesPerFrame,
		BytesPerSample:  f.BytesPerSample,
	}
	c.refs.Store(1)
	return c
}
