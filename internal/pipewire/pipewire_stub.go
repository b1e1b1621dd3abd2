//go:build !linux || !cgo

package pipewire

import (
	"errors"
	"io"
)

var ErrUnavailable = errors.New("pipewire: only available on linux")

type VideoStream struct{}

func Available() bool { return false }

func NewVideoStream(fd int, nodeID uint32, width, height, frameRate uint32) (*VideoStream, error) {
	return nil, ErrUnavailable
}

func (s *VideoStream) Start() {}
func (s *VideoStream) Stop()  {}

func (s *VideoStream) Read(p []byte) (int, error) { return 0, io.EOF }

func (s *VideoStream) Close() error { return nil }
