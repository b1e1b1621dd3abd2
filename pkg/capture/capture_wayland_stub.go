//go:build !linux

package capture

func newWaylandEngine() (Engine, error) {
	return nil, NotSupported.Err()
}
