// File: wsserver/errors.go
// Package wsserver defines failure classification.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsserver

import "errors"

// ErrInvalidUTF8 reports a text frame carrying invalid UTF-8. Treated as
// an unclassified failure: the connection closes without an HTTP response.
var ErrInvalidUTF8 = errors.New("websocket: invalid UTF-8 in text frame")

// HandshakeError is a failed HTTP upgrade. The protocol handler answers it
// with an HTTP 400 carrying Reason as the body.
type HandshakeError struct {
	Reason string
}

func (e *HandshakeError) Error() string { return e.Reason }

// FailureKind partitions failures at the protocol boundary.
type FailureKind int

const (
	// FailureUnclassified is any failure this layer does not translate.
	FailureUnclassified FailureKind = iota

	// FailureHandshake is a failed HTTP upgrade.
	FailureHandshake
)

// ClassifyError maps a failure to its kind. Pure; every non-handshake
// failure is opaque here.
func ClassifyError(err error) FailureKind {
	var he *HandshakeError
	if errors.As(err, &he) {
		return FailureHandshake
	}
	return FailureUnclassified
}
