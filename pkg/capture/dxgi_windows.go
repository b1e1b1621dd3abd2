//go:build windows

package capture

import (
	"fmt"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// This file wraps the handful of raw COM/DXGI calls the Desktop
// Duplication backend needs. DXGI/D3D11 interfaces are plain COM vtables,
// not IDispatch automation objects, so go-ole is used only for its
// IUnknown/GUID plumbing (QueryInterface, Release, NewGUID) — the actual
// method calls go through syscall against each interface's vtable, the
// same technique go-ole's own lower-level helpers use internally.

var (
	d3d11dll = syscall.NewLazyDLL("d3d11.dll")
	dxgidll  = syscall.NewLazyDLL("dxgi.dll")

	procD3D11CreateDevice = d3d11dll.NewProc("D3D11CreateDevice")
)

var (
	iidIDXGIDevice              = ole.NewGUID("{54ec77fa-1377-44e6-8c32-88fd5f44c84c}")
	iidIDXGIOutput1             = ole.NewGUID("{00cddea8-939b-4b83-a340-a685226666cc}")
	iidIDXGIOutputDuplication   = ole.NewGUID("{191cfac3-a341-470d-b26e-a864f428319c}")
)

// vtableCall invokes the nth vtable slot of a raw COM interface pointer
// with the given arguments, returning the HRESULT.
func vtableCall(unk unsafe.Pointer, index uintptr, args ...uintptr) (uintptr, uintptr, error) {
	table := *(**[256]uintptr)(unk)
	fn := table[index]
	callArgs := append([]uintptr{uintptr(unk)}, args...)
	return syscall.SyscallN(fn, callArgs...)
}

// d3d11Device is the handful of D3D11/DXGI objects kept alive for the
// lifetime of one Desktop Duplication session.
type d3d11Device struct {
	device      *ole.IUnknown
	context     *ole.IUnknown
	dxgiDevice  *ole.IUnknown
	adapter     *ole.IUnknown
	output      *ole.IUnknown
	output1     *ole.IUnknown
	duplication *ole.IUnknown

	// stagingTexture is created lazily, sized to desktopWidth/desktopHeight,
	// and reused across every captureOneFrame tick (CopyResource into it,
	// Map, read, Unmap).
	stagingTexture              *ole.IUnknown
	desktopWidth, desktopHeight int32
}

const (
	d3dDriverTypeHardware = 1
	d3dSDKVersion         = 7

	featureLevel11_1 = 0xb100
	featureLevel11_0 = 0xb000
	featureLevel10_1 = 0xa100
	featureLevel10_0 = 0xa000
)

// createDevice creates a hardware D3D11 device with the feature level
// fallback order the spec names (11_1/11_0/10_1/10_0).
func createDevice() (*d3d11Device, error) {
	levels := []uint32{featureLevel11_1, featureLevel11_0, featureLevel10_1, featureLevel10_0}

	var devicePtr, contextPtr uintptr
	var featureLevelOut uint32

	ret, _, _ := procD3D11CreateDevice.Call(
		0, // default adapter
		uintptr(d3dDriverTypeHardware),
		0, // no software rasterizer module
		0, // flags
		uintptr(unsafe.Pointer(&levels[0])), uintptr(len(levels)),
		uintptr(d3dSDKVersion),
		uintptr(unsafe.Pointer(&devicePtr)),
		uintptr(unsafe.Pointer(&featureLevelOut)),
		uintptr(unsafe.Pointer(&contextPtr)),
	)
	if ret != 0 {
		return nil, fmt.Errorf("D3D11CreateDevice failed: hresult=0x%x", uint32(ret))
	}

	device := (*ole.IUnknown)(unsafe.Pointer(devicePtr))
	context := (*ole.IUnknown)(unsafe.Pointer(contextPtr))

	dxgiDevice, err := device.QueryInterface(iidIDXGIDevice)
	if err != nil {
		return nil, fmt.Errorf("QueryInterface(IDXGIDevice): %w", err)
	}

	return &d3d11Device{device: device, context: context, dxgiDevice: dxgiDevice}, nil
}

func (d *d3d11Device) release() {
	for _, u := range []*ole.IUnknown{d.stagingTexture, d.duplication, d.output1, d.output, d.adapter, d.dxgiDevice, d.context, d.device} {
		if u != nil {
			u.Release()
		}
	}
}
