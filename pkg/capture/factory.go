package capture

import (
	"fmt"
	"log"
	"os"
	"runtime"
)

// NewEngine resolves tech to a concrete Engine. Auto picks the best
// supported backend for the host: Windows -> DesktopDuplication,
// Linux -> X11 when DISPLAY is set (else a warning is logged and X11 is
// still attempted, on the assumption of XWayland), macOS -> CoreGraphics
// (reserved; returns NotSupported). An explicit unsupported request
// returns an error rather than silently substituting a different backend.
func NewEngine(tech Technology) (Engine, error) {
	if tech == Auto {
		tech = autoSelect()
	}

	switch tech {
	case DesktopDuplication:
		return newDesktopDuplicationEngine()
	case X11:
		return newX11Engine()
	case Wayland:
		return newWaylandEngine()
	case CoreGraphics:
		return newCoreGraphicsEngine()
	default:
		return nil, fmt.Errorf("capture: unsupported technology %s", tech)
	}
}

func autoSelect() Technology {
	switch runtime.GOOS {
	case "windows":
		return DesktopDuplication
	case "darwin":
		return CoreGraphics
	case "linux":
		if os.Getenv("DISPLAY") == "" {
			log.Printf("capture: warning: DISPLAY not set, Wayland-only session assumed; attempting X11 via XWayland anyway")
		}
		return X11
	default:
		return X11
	}
}
