// File: protocol/close.go
// Package protocol implements close frame payload handling.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import "encoding/binary"

// EncodeClose serializes a complete close frame carrying code and reason.
func EncodeClose(code int, reason string) []byte {
	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload, uint16(code))
	copy(payload[2:], reason)
	return EncodeRaw(OpcodeClose, true, payload)
}

// ParseClose extracts code and reason from a close frame payload.
// A close frame with no payload carries no status (RFC 6455 §7.1.5).
func ParseClose(f *Frame) (code int, reason string, ok bool) {
	if f.Opcode != OpcodeClose {
		return 0, "", false
	}
	p := f.Payload()
	if len(p) < 2 {
		return CloseNoStatusRcvd, "", true
	}
	return int(binary.BigEndian.Uint16(p)), string(p[2:]), true
}
