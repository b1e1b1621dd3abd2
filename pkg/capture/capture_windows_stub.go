//go:build !windows

package capture

func newDesktopDuplicationEngine() (Engine, error) {
	return nil, NotSupported.Err()
}
