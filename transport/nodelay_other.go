// File: transport/nodelay_other.go
//go:build !linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "net"

func setNoDelay(tc *net.TCPConn) {
	_ = tc.SetNoDelay(true)
}
