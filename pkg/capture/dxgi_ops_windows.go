//go:build windows

package capture

import (
	"fmt"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

// Vtable slot indices for the DXGI interfaces this backend touches.
// IUnknown contributes slots 0-2 (QueryInterface/AddRef/Release); each
// interface below inherits those and appends its own methods in
// declaration order, per the COM ABI.
const (
	idxgiObjectGetParent = 6 // IDXGIObject: SetPrivateData(3) SetPrivateDataInterface(4) GetPrivateData(5)... GetParent(6)
	idxgiDeviceGetAdapter = 7

	idxgiAdapterEnumOutputs = 7

	idxgiOutputGetDesc        = 7
	idxgiOutputDuplicateOutput = 22 // IDXGIOutput1 extends IDXGIOutput; DuplicateOutput lands on IDXGIOutput1

	idxgiOutputDuplicationAcquireNextFrame = 8
	idxgiOutputDuplicationReleaseFrame     = 14

	// ID3D11Device: CreateBuffer(3) CreateTexture1D(4) CreateTexture2D(5)
	id3d11DeviceCreateTexture2D = 5

	// ID3D11DeviceContext inherits ID3D11DeviceChild's GetDevice/Get-
	// PrivateData/SetPrivateData/SetPrivateDataInterface (3-6) before its
	// own methods start; Map/Unmap and CopyResource land at the usual
	// d3d11.h vtable offsets.
	id3d11DeviceContextMap          = 14
	id3d11DeviceContextUnmap        = 15
	id3d11DeviceContextCopyResource = 47
)

const (
	dxgiFormatB8G8R8A8UNorm = 87
	d3d11UsageStaging       = 3
	d3d11CPUAccessRead      = 0x20000
	d3d11MapRead            = 1
)

type dxgiOutputDesc struct {
	DeviceName                             [32]uint16
	DesktopX, DesktopY, DesktopW, DesktopH int32
	Rotation                               uint32
	Monitor                                uintptr
}

// d3d11Texture2DDesc mirrors D3D11_TEXTURE2D_DESC, used here only to
// describe the CPU-readable staging texture CopyResource copies into.
type d3d11Texture2DDesc struct {
	Width, Height        uint32
	MipLevels, ArraySize uint32
	Format               uint32
	SampleDescCount      uint32
	SampleDescQuality    uint32
	Usage                uint32
	BindFlags            uint32
	CPUAccessFlags       uint32
	MiscFlags            uint32
}

// d3d11MappedSubresource mirrors D3D11_MAPPED_SUBRESOURCE.
type d3d11MappedSubresource struct {
	pData      uintptr
	RowPitch   uint32
	DepthPitch uint32
}

// bindOutputDuplication resolves the adapter -> output at monitorIndex and
// calls DuplicateOutput, populating device's output/output1/duplication
// fields.
func bindOutputDuplication(d *d3d11Device, monitorIndex int) error {
	var adapterPtr uintptr
	ret, _, _ := vtableCall(unsafe.Pointer(d.dxgiDevice), idxgiDeviceGetAdapter, uintptr(unsafe.Pointer(&adapterPtr)))
	if ret != 0 {
		return fmt.Errorf("IDXGIDevice::GetAdapter failed: hresult=0x%x", uint32(ret))
	}
	d.adapter = (*ole.IUnknown)(unsafe.Pointer(adapterPtr))

	var outputPtr uintptr
	ret, _, _ = vtableCall(unsafe.Pointer(d.adapter), idxgiAdapterEnumOutputs, uintptr(monitorIndex), uintptr(unsafe.Pointer(&outputPtr)))
	if ret != 0 {
		return fmt.Errorf("IDXGIAdapter::EnumOutputs(%d) failed: hresult=0x%x", monitorIndex, uint32(ret))
	}
	d.output = (*ole.IUnknown)(unsafe.Pointer(outputPtr))

	output1, err := d.output.QueryInterface(iidIDXGIOutput1)
	if err != nil {
		return fmt.Errorf("QueryInterface(IDXGIOutput1): %w", err)
	}
	d.output1 = output1

	var desc dxgiOutputDesc
	vtableCall(unsafe.Pointer(d.output), idxgiOutputGetDesc, uintptr(unsafe.Pointer(&desc)))
	d.desktopWidth = desc.DesktopW - desc.DesktopX
	d.desktopHeight = desc.DesktopH - desc.DesktopY

	var dupPtr uintptr
	ret, _, _ = vtableCall(unsafe.Pointer(d.output1), idxgiOutputDuplicateOutput, uintptr(unsafe.Pointer(d.device)), uintptr(unsafe.Pointer(&dupPtr)))
	if ret != 0 {
		return fmt.Errorf("IDXGIOutput1::DuplicateOutput failed: hresult=0x%x", uint32(ret))
	}
	d.duplication = (*ole.IUnknown)(unsafe.Pointer(dupPtr))
	return nil
}

// ensureStagingTexture creates the CPU-readable staging texture on first
// use, sized to the bound output's desktop dimensions. Subsequent ticks
// reuse it: CopyResource targets the same texture every frame.
func ensureStagingTexture(d *d3d11Device) error {
	if d.stagingTexture != nil {
		return nil
	}
	if d.desktopWidth <= 0 || d.desktopHeight <= 0 {
		return fmt.Errorf("dxgi: output dimensions not resolved before staging texture creation")
	}

	desc := d3d11Texture2DDesc{
		Width:             uint32(d.desktopWidth),
		Height:            uint32(d.desktopHeight),
		MipLevels:         1,
		ArraySize:         1,
		Format:            dxgiFormatB8G8R8A8UNorm,
		SampleDescCount:   1,
		SampleDescQuality: 0,
		Usage:             d3d11UsageStaging,
		BindFlags:         0,
		CPUAccessFlags:    d3d11CPUAccessRead,
		MiscFlags:         0,
	}

	var texturePtr uintptr
	ret, _, _ := vtableCall(unsafe.Pointer(d.device), id3d11DeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&desc)), 0, uintptr(unsafe.Pointer(&texturePtr)))
	if ret != 0 {
		return fmt.Errorf("ID3D11Device::CreateTexture2D failed: hresult=0x%x", uint32(ret))
	}
	d.stagingTexture = (*ole.IUnknown)(unsafe.Pointer(texturePtr))
	return nil
}

// acquireAndCopyFrame performs one AcquireNextFrame/copy/ReleaseFrame
// cycle. presented=false means the 1s timeout elapsed with no new frame,
// which is not an error.
func acquireAndCopyFrame(d *d3d11Device) (data []byte, width, height, stride int, presented bool, result Result) {
	const timeoutMs = 1000

	var frameInfo [48]byte // DXGI_OUTDUPL_FRAME_INFO, opaque to us except LastPresentTime at offset 0
	var resourcePtr uintptr

	ret, _, _ := vtableCall(unsafe.Pointer(d.duplication), idxgiOutputDuplicationAcquireNextFrame,
		uintptr(timeoutMs), uintptr(unsafe.Pointer(&frameInfo[0])), uintptr(unsafe.Pointer(&resourcePtr)))

	const dxgiErrorWaitTimeout = 0x887A0027
	if uint32(ret) == dxgiErrorWaitTimeout {
		return nil, 0, 0, 0, false, Success
	}
	if ret != 0 {
		return nil, 0, 0, 0, false, mapDXGIError(fmt.Errorf("hresult=0x%x", uint32(ret)))
	}
	defer vtableCall(unsafe.Pointer(d.duplication), idxgiOutputDuplicationReleaseFrame)

	lastPresentTime := *(*int64)(unsafe.Pointer(&frameInfo[0]))
	if lastPresentTime == 0 {
		return nil, 0, 0, 0, false, Success
	}

	resource := (*ole.IUnknown)(unsafe.Pointer(resourcePtr))
	defer resource.Release()

	if err := ensureStagingTexture(d); err != nil {
		return nil, 0, 0, 0, false, mapDXGIError(err)
	}

	// CopyResource takes raw ID3D11Resource pointers; the acquired DXGI
	// resource and our staging texture both satisfy that layout without a
	// further QueryInterface, since CopyResource is invoked against the
	// device context's vtable, not theirs.
	ret, _, _ = vtableCall(unsafe.Pointer(d.context), id3d11DeviceContextCopyResource,
		uintptr(unsafe.Pointer(d.stagingTexture)), uintptr(unsafe.Pointer(resource)))
	if ret != 0 {
		return nil, 0, 0, 0, false, mapDXGIError(fmt.Errorf("ID3D11DeviceContext::CopyResource failed: hresult=0x%x", uint32(ret)))
	}

	var mapped d3d11MappedSubresource
	ret, _, _ = vtableCall(unsafe.Pointer(d.context), id3d11DeviceContextMap,
		uintptr(unsafe.Pointer(d.stagingTexture)), 0, uintptr(d3d11MapRead), 0, uintptr(unsafe.Pointer(&mapped)))
	if ret != 0 {
		return nil, 0, 0, 0, false, mapDXGIError(fmt.Errorf("ID3D11DeviceContext::Map failed: hresult=0x%x", uint32(ret)))
	}

	h := int(d.desktopHeight)
	stride = int(mapped.RowPitch)
	data = make([]byte, stride*h)
	src := unsafe.Slice((*byte)(unsafe.Pointer(mapped.pData)), stride*h)
	copy(data, src)

	vtableCall(unsafe.Pointer(d.context), id3d11DeviceContextUnmap, uintptr(unsafe.Pointer(d.stagingTexture)), 0)

	return data, int(d.desktopWidth), h, stride, true, Success
}

// enumerateOutputs lists attached monitors via EnumOutputs until it fails.
func enumerateOutputs() ([]ScreenInfo, error) {
	device, err := createDevice()
	if err != nil {
		return nil, err
	}
	defer device.release()

	var adapterPtr uintptr
	ret, _, _ := vtableCall(unsafe.Pointer(device.dxgiDevice), idxgiDeviceGetAdapter, uintptr(unsafe.Pointer(&adapterPtr)))
	if ret != 0 {
		return nil, fmt.Errorf("IDXGIDevice::GetAdapter failed: hresult=0x%x", uint32(ret))
	}
	adapter := (*ole.IUnknown)(unsafe.Pointer(adapterPtr))
	defer adapter.Release()

	var screens []ScreenInfo
	for i := 0; ; i++ {
		var outputPtr uintptr
		ret, _, _ := vtableCall(unsafe.Pointer(adapter), idxgiAdapterEnumOutputs, uintptr(i), uintptr(unsafe.Pointer(&outputPtr)))
		if ret != 0 {
			break
		}
		output := (*ole.IUnknown)(unsafe.Pointer(outputPtr))

		var desc dxgiOutputDesc
		vtableCall(unsafe.Pointer(output), idxgiOutputGetDesc, uintptr(unsafe.Pointer(&desc)))
		output.Release()

		screens = append(screens, ScreenInfo{
			ID:           i,
			Width:        int(desc.DesktopW - desc.DesktopX),
			Height:       int(desc.DesktopH - desc.DesktopY),
			BitsPerPixel: 32,
			X:            int(desc.DesktopX),
			Y:            int(desc.DesktopY),
			Name:         windows.UTF16ToString(desc.DeviceName[:]),
			IsPrimary:    i == 0,
		})
	}
	return screens, nil
}
