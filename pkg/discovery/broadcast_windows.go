//go:build windows

package discovery

import (
	"net"

	"golang.org/x/sys/windows"
)

// enableBroadcast sets SO_BROADCAST on conn's underlying socket, the
// Windows equivalent of the unix build's setsockopt call.
func enableBroadcast(conn *net.UDPConn) error {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = rawConn.Control(func(fd uintptr) {
		sockErr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
