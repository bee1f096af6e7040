// File: protocol/codec.go
// Package protocol implements frame encoding and streaming decoding.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The decoder consumes raw transport bytes incrementally and emits complete
// frames with pooled payload buffers. Payload size limits, masking policy,
// and reserved-bit handling follow the decoder configuration.

package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/momentics/wspipe/api"
)

// Decode errors. All of them are fatal to the connection.
var (
	ErrFrameTooLarge = fmt.Errorf("frame payload exceeds configured maximum")
	ErrMaskMismatch  = fmt.Errorf("client frame is not masked")
	ErrReservedBits  = fmt.Errorf("reserved bits set without negotiated extension")
	ErrInvalidLength = fmt.Errorf("frame declares an invalid extended length")
)

// DecoderConfig bounds and policies for inbound frames.
type DecoderConfig struct {
	// MaxFramePayload caps a single frame's payload length. Zero disables
	// the cap: the decoder then buffers a declared frame until it is
	// complete, so zero must not be used with untrusted peers.
	MaxFramePayload int

	// RequireMask demands masked frames, the server-side default.
	RequireMask bool

	// AllowMaskMismatch accepts frames violating RequireMask.
	AllowMaskMismatch bool

	// AllowExtensions accepts frames with RSV bits set.
	AllowExtensions bool
}

// Decoder turns a byte stream into frames.
type Decoder struct {
	cfg  DecoderConfig
	pool api.BufferPool
	buf  []byte
}

// NewDecoder constructs a streaming decoder drawing payloads from pool.
func NewDecoder(cfg DecoderConfig, pool api.BufferPool) *Decoder {
	return &Decoder{cfg: cfg, pool: pool}
}

// Decode appends p to the pending stream and returns every complete frame.
// A partial frame at the tail is kept for the next call. Returned frames
// each hold one reference.
func (d *Decoder) Decode(p []byte) ([]*Frame, error) {
	d.buf = append(d.buf, p...)

	var frames []*Frame
	for {
		f, n, err := d.parseOne(d.buf)
		if err != nil {
			for _, fr := range frames {
				fr.Release()
			}
			return nil, err
		}
		if f == nil {
			break
		}
		d.buf = d.buf[n:]
		frames = append(frames, f)
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return frames, nil
}

// Buffered returns the number of bytes held back for an incomplete frame.
func (d *Decoder) Buffered() int { return len(d.buf) }

// parseOne extracts one frame from raw. Returns (nil, 0, nil) when raw does
// not yet hold a complete frame.
func (d *Decoder) parseOne(raw []byte) (*Frame, int, error) {
	if len(raw) < 2 {
		return nil, 0, nil
	}
	fin := raw[0]&FinBit != 0
	if raw[0]&RsvBits != 0 && !d.cfg.AllowExtensions {
		return nil, 0, ErrReservedBits
	}
	opcode := raw[0] & 0x0F
	masked := raw[1]&MaskBit != 0
	length := int64(raw[1] & 0x7F)
	offset := 2

	switch length {
	case 126:
		if len(raw) < offset+2 {
			return nil, 0, nil
		}
		length = int64(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
	case 127:
		if len(raw) < offset+8 {
			return nil, 0, nil
		}
		// RFC 6455 §5.2: the most significant bit of the 64-bit length
		// must be 0. A set bit would go negative through int64 and bypass
		// every bound below.
		l64 := binary.BigEndian.Uint64(raw[offset:])
		if l64 > 1<<63-1 {
			return nil, 0, ErrInvalidLength
		}
		length = int64(l64)
		offset += 8
	}

	if d.cfg.MaxFramePayload > 0 && length > int64(d.cfg.MaxFramePayload) {
		return nil, 0, ErrFrameTooLarge
	}
	if d.cfg.RequireMask && !masked && !d.cfg.AllowMaskMismatch {
		return nil, 0, ErrMaskMismatch
	}

	var maskKey [4]byte
	if masked {
		if len(raw) < offset+4 {
			return nil, 0, nil
		}
		copy(maskKey[:], raw[offset:])
		offset += 4
	}

	if int64(len(raw)-offset) < length {
		return nil, 0, nil
	}

	var payload api.Buffer
	if length > 0 {
		payload = d.pool.Get(int(length))
		copy(payload.Bytes(), raw[offset:offset+int(length)])
		if masked {
			unmaskInPlace(payload.Bytes(), maskKey)
		}
	}

	f := NewFrame(opcode, fin, payload)
	f.Masked = masked
	return f, offset + int(length), nil
}

// EncodeFrame serializes a server-to-client frame (never masked).
func EncodeFrame(f *Frame) []byte {
	return EncodeRaw(f.Opcode, f.Fin, f.Payload())
}

// EncodeRaw serializes a frame from its parts.
func EncodeRaw(opcode byte, fin bool, payload []byte) []byte {
	b0 := opcode & 0x0F
	if fin {
		b0 |= FinBit
	}

	plen := len(payload)
	var hdr []byte
	switch {
	case plen <= 125:
		hdr = []byte{b0, byte(plen)}
	case plen <= 0xFFFF:
		hdr = make([]byte, 4)
		hdr[0] = b0
		hdr[1] = 126
		binary.BigEndian.PutUint16(hdr[2:], uint16(plen))
	default:
		hdr = make([]byte, 10)
		hdr[0] = b0
		hdr[1] = 127
		binary.BigEndian.PutUint64(hdr[2:], uint64(plen))
	}

	out := make([]byte, len(hdr)+plen)
	copy(out, hdr)
	copy(out[len(hdr):], payload)
	return out
}

// unmaskInPlace applies XOR on payload using maskKey.
func unmaskInPlace(buf []byte, key [4]byte) {
	for i := 0; i < len(buf); i++ {
		buf[i] ^= key[i%4]
	}
}
