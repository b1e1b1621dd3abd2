//go:build !linux && !darwin && !windows

package discovery

import "net"

// enableBroadcast is a no-op stub for platforms without a wired syscall
// binding; Start will typically still fail downstream when the kernel
// rejects the broadcast sendto.
func enableBroadcast(conn *net.UDPConn) error {
	return nil
}
