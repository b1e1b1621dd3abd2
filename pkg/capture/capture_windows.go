//go:build windows

package capture

import (
	"strings"
	"sync"

	"github.com/lmshao/remote-desk/pkg/frame"
)

// desktopDuplicationEngine captures via DXGI Desktop Duplication: create a
// D3D11 device, get the DXGI output for the configured monitor, call
// DuplicateOutput, and on each tick AcquireNextFrame + copy into a CPU-
// readable staging texture. Cursor overlay is a documented TODO, exactly
// as in the original capturer this backend is modeled on.
type desktopDuplicationEngine struct {
	mu       sync.Mutex
	cfg      Config
	cb       FrameCallback
	device   *d3d11Device
	initialized bool

	worker worker
	running bool
}

func newDesktopDuplicationEngine() (Engine, error) {
	return &desktopDuplicationEngine{}, nil
}

func (e *desktopDuplicationEngine) Technology() Technology { return DesktopDuplication }

func (e *desktopDuplicationEngine) Initialize(cfg Config) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return AlreadyStarted
	}
	if r := cfg.Validate(); r != Success {
		return r
	}

	device, err := createDevice()
	if err != nil {
		debugf("createDevice: %v", err)
		return ErrorInitialization
	}

	if err := bindOutputDuplication(device, cfg.MonitorIndex); err != nil {
		device.release()
		debugf("bindOutputDuplication: %v", err)
		return mapDXGIError(err)
	}

	e.device = device
	e.cfg = cfg
	e.initialized = true
	return Success
}

func (e *desktopDuplicationEngine) Start() Result {
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

func (e *desktopDuplicationEngine) Stop() {
	e.mu.Lock()
	running := e.running
	e.running = false
	e.mu.Unlock()

	if running {
		e.worker.stop()
	}
}

func (e *desktopDuplicationEngine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *desktopDuplicationEngine) SetFrameCallback(cb FrameCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cb = cb
}

func (e *desktopDuplicationEngine) UpdateConfig(cfg Config) Result {
	e.mu.Lock()
	wasRunning := e.running
	e.mu.Unlock()

	if wasRunning {
		e.Stop()
	}
	result := e.Initialize(cfg)
	if result != Success {
		return result
	}
	if wasRunning {
		return e.Start()
	}
	return Success
}

func (e *desktopDuplicationEngine) AvailableScreens() ([]ScreenInfo, error) {
	return enumerateOutputs()
}

func (e *desktopDuplicationEngine) onFatal(r Result) {
	debugf("fatal capture error %s, caller should UpdateConfig to rebuild the duplication handle", r)
}

// captureOneFrame implements the per-tick contract: AcquireNextFrame with
// a 1s timeout, skip stale frames (LastPresentTime == 0), copy the GPU
// texture into a staging texture, Map it, build the frame, Unmap, and
// ReleaseFrame.
func (e *desktopDuplicationEngine) captureOneFrame() Result {
	e.mu.Lock()
	device := e.device
	cfg := e.cfg
	cb := e.cb
	e.mu.Unlock()

	if device == nil || device.duplication == nil {
		return ErrorInitialization
	}

	data, width, height, stride, presented, result := acquireAndCopyFrame(device)
	if result != Success {
		return result
	}
	if !presented {
		return Success // poll with no new frame
	}

	f := frame.New(frame.BGRA32, data, nowMicros())
	f.Width, f.Height = width, height
	f.Stride = stride
	f.FrameRate = cfg.FrameRate

	if cb != nil {
		cb(f)
	}
	return Success
}

func mapDXGIError(err error) Result {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "NOT_CURRENTLY_AVAILABLE"):
		return ErrorAccessDenied
	case strings.Contains(msg, "DEVICE_REMOVED"):
		return ErrorInitialization
	case strings.Contains(msg, "WAIT_TIMEOUT"):
		return ErrorTimeout
	default:
		return ErrorInitialization
	}
}

