//go:build !linux

package capture

func newX11Engine() (Engine, error) {
	return nil, NotSupported.Err()
}
