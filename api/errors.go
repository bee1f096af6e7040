// File: api/errors.go
// Package api defines common error values.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "fmt"

// Common errors used across the library.
var (
	ErrTransportClosed = fmt.Errorf("transport is closed")
	ErrBufferReleased  = fmt.Errorf("buffer used after final release")
	ErrListenerClosed  = fmt.Errorf("listener closed")
)
