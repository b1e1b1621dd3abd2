// Package capture implements the platform-pluggable screen-capture engine:
// one Engine per backend (Desktop Duplication on Windows, X11 on Linux,
// Wayland via xdg-desktop-portal, with macOS reserved), fronted by a
// Factory that auto-selects the best supported backend for the host.
package capture

import (
	"errors"

	"github.com/lmshao/remote-desk/pkg/frame"
)

// Result mirrors the spec's capture-engine error kinds; Success is the
// zero value so a freshly-constructed Result reads as "ok".
type Result int

const (
	Success Result = iota
	ErrorInitialization
	ErrorInvalidConfig
	ErrorNoDisplay
	ErrorAccessDenied
	ErrorTimeout
	ErrorUnknown
	NotSupported
	AlreadyStarted
	AlreadyInitialized
)

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case ErrorInitialization:
		return "ErrorInitialization"
	case ErrorInvalidConfig:
		return "ErrorInvalidConfig"
	case ErrorNoDisplay:
		return "ErrorNoDisplay"
	case ErrorAccessDenied:
		return "ErrorAccessDenied"
	case ErrorTimeout:
		return "ErrorTimeout"
	case NotSupported:
		return "NotSupported"
	case AlreadyStarted:
		return "AlreadyStarted"
	case AlreadyInitialized:
		return "AlreadyInitialized"
	default:
		return "ErrorUnknown"
	}
}

// Err wraps a Result as an error, for call sites that prefer Go's usual
// error-return idiom over inspecting a Result directly.
func (r Result) Err() error {
	if r == Success {
		return nil
	}
	return errors.New(r.String())
}

// Technology names a capture backend.
type Technology int

const (
	Auto Technology = iota
	DesktopDuplication
	X11
	Wayland
	CoreGraphics
)

func (t Technology) String() string {
	switch t {
	case Auto:
		return "Auto"
	case DesktopDuplication:
		return "DesktopDuplication"
	case X11:
		return "X11"
	case Wayland:
		return "Wayland"
	case CoreGraphics:
		return "CoreGraphics"
	default:
		return "Unknown"
	}
}

// Config is the CaptureConfig of spec §3.
type Config struct {
	FrameRate              int
	Width                  int // 0 => full screen
	Height                 int
	OffsetX                int
	OffsetY                int
	MonitorIndex           int
	CaptureCursor          bool
	UseHardwareAcceleration bool
	PixelFormatHint        string
}

// Validate reports ErrorInvalidConfig per spec's boundary rule
// (frame_rate = 0 is invalid).
func (c Config) Validate() Result {
	if c.FrameRate < 1 {
		return ErrorInvalidConfig
	}
	if c.Width < 0 || c.Height < 0 {
		return ErrorInvalidConfig
	}
	return Success
}

// ScreenInfo describes one enumerated monitor.
type ScreenInfo struct {
	ID           int
	Width        int
	Height       int
	BitsPerPixel int
	X            int
	Y            int
	Name         string
	IsPrimary    bool
}

// FrameCallback is the capture -> pipeline bridge. It is invoked on the
// capture worker's own goroutine and must not block for long.
type FrameCallback func(f *frame.Frame)

// Engine is the CaptureEngine contract every backend implements.
type Engine interface {
	Initialize(cfg Config) Result
	Start() Result
	Stop()
	IsRunning() bool
	AvailableScreens() ([]ScreenInfo, error)
	SetFrameCallback(cb FrameCallback)
	UpdateConfig(cfg Config) Result
	Technology() Technology
}
