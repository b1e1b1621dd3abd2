//go:build linux

package capture

import (
	"fmt"
	"os"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/lmshao/remote-desk/pkg/frame"
)

// x11Engine captures via plain X11 GetImage requests against the root
// window, using the pure-Go X protocol binding instead of a cgo Xlib call.
type x11Engine struct {
	mu   sync.Mutex
	cfg  Config
	cb   FrameCallback

	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo

	initialized bool
	running     bool
	worker      worker
}

func newX11Engine() (Engine, error) {
	return &x11Engine{}, nil
}

func (e *x11Engine) Technology() Technology { return X11 }

func (e *x11Engine) Initialize(cfg Config) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return AlreadyStarted
	}
	if r := cfg.Validate(); r != Success {
		return r
	}
	if os.Getenv("DISPLAY") == "" {
		return ErrorNoDisplay
	}

	conn, err := xgb.NewConn()
	if err != nil {
		debugf("xgb.NewConn: %v", err)
		return ErrorNoDisplay
	}

	setup := xproto.Setup(conn)
	if len(setup.Roots) == 0 {
		conn.Close()
		return ErrorNoDisplay
	}
	screen := &setup.Roots[0]

	e.conn = conn
	e.root = screen.Root
	e.screen = screen
	e.cfg = cfg
	e.initialized = true
	return Success
}

func (e *x11Engine) Start() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return Success
	}
	if !e.initialized {
		return ErrorInitialization
	}
	e.running = true
	e.worker.start(e.cfg.FrameRate, e.captureOneFrame, e.onFatal)
	return Success
}

func (e *x11Engine) Stop() {
	e.mu.Lock()
	running := e.running
	e.running = false
	e.mu.Unlock()
	if running {
		e.worker.stop()
	}
	e.mu.Lock()
	if e.conn != nil {
		e.conn.Close()
		e.conn = nil
	}
	e.initialized = false
	e.mu.Unlock()
}

func (e *x11Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *x11Engine) SetFrameCallback(cb FrameCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cb = cb
}

func (e *x11Engine) UpdateConfig(cfg Config) Result {
	e.mu.Lock()
	wasRunning := e.running
	e.mu.Unlock()

	if wasRunning {
		e.Stop()
	}
	if result := e.Initialize(cfg); result != Success {
		return result
	}
	if wasRunning {
		return e.Start()
	}
	return Success
}

func (e *x11Engine) AvailableScreens() ([]ScreenInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.screen == nil {
		return nil, fmt.Errorf("capture: x11 engine not initialized")
	}
	return []ScreenInfo{{
		ID:           0,
		Width:        int(e.screen.WidthInPixels),
		Height:       int(e.screen.HeightInPixels),
		BitsPerPixel: int(e.screen.RootDepth),
		IsPrimary:    true,
		Name:         "X11 root window",
	}}, nil
}

func (e *x11Engine) onFatal(r Result) {
	debugf("fatal capture error %s, caller should UpdateConfig to rebuild the X connection", r)
}

// captureOneFrame issues a single XGetImage-equivalent GetImage request
// over the wire protocol and emits a frame built from the reply's pixel
// data and depth-derived format.
func (e *x11Engine) captureOneFrame() Result {
	e.mu.Lock()
	conn, root, cfg := e.conn, e.root, e.cfg
	cb := e.cb
	e.mu.Unlock()

	x, y, w, h := captureRect(cfg, e.screen)

	reply, err := xproto.GetImage(conn, xproto.ImageFormatZPixmap, xproto.Drawable(root),
		int16(x), int16(y), uint16(w), uint16(h), 0xffffffff).Reply()
	if err != nil {
		debugf("GetImage: %v", err)
		return ErrorUnknown
	}

	format, bpp := pixelFormatFromDepth(reply.Depth)
	if format == frame.Unknown {
		return ErrorUnknown
	}

	stride := w * bpp
	data := reply.Data
	if len(data) < stride*h {
		return ErrorUnknown
	}

	f := frame.New(format, data, nowMicros())
	f.Width, f.Height = w, h
	f.Stride = stride
	f.FrameRate = cfg.FrameRate

	if cb != nil {
		cb(f)
	}
	return Success
}

func captureRect(cfg Config, screen *xproto.ScreenInfo) (x, y, w, h int) {
	w, h = cfg.Width, cfg.Height
	if w == 0 || h == 0 {
		w, h = int(screen.WidthInPixels), int(screen.HeightInPixels)
	}
	return cfg.OffsetX, cfg.OffsetY, w, h
}

// pixelFormatFromDepth maps a reply depth to the spec's detected format
// and its bytes per pixel, assuming the common 24/32-bit true-color RGB mask layout
// (0x00FF0000/0x0000FF00/0x000000FF -> BGRA32 byte order on little-endian
// X servers, which is the overwhelming majority case).
func pixelFormatFromDepth(depth byte) (frame.Format, int) {
	switch depth {
	case 24, 32:
		return frame.BGRA32, 4
	default:
		return frame.Unknown, 0
	}
}
