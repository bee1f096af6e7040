// File: transport/nodelay_linux.go
//go:build linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"net"

	"golang.org/x/sys/unix"
)

// setNoDelay disables Nagle's algorithm on the raw socket.
func setNoDelay(tc *net.TCPConn) {
	rc, err := tc.SyscallConn()
	if err != nil {
		return
	}
	_ = rc.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
}
