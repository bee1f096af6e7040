// File: wsserver/utf8_validator.go
// Package wsserver implements text frame payload validation.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Utf8FrameValidator checks text messages incrementally: a rune split
// across fragment boundaries is carried over and validated once its
// remaining bytes arrive.

package wsserver

import (
	"unicode/utf8"

	"github.com/momentics/wspipe/pipeline"
	"github.com/momentics/wspipe/protocol"
)

// Utf8FrameValidator rejects text frames carrying invalid UTF-8.
type Utf8FrameValidator struct {
	insideText bool
	rem        []byte // incomplete trailing rune from the previous fragment
}

// NewUtf8FrameValidator builds a validator with no carried state.
func NewUtf8FrameValidator() *Utf8FrameValidator {
	return &Utf8FrameValidator{}
}

// OnRead validates text payloads and forwards everything else untouched.
func (v *Utf8FrameValidator) OnRead(ctx *pipeline.Context, msg any) {
	f, ok := msg.(*protocol.Frame)
	if !ok {
		ctx.FireRead(msg)
		return
	}

	switch f.Opcode {
	case protocol.OpcodeText:
		if !v.check(f.Payload(), f.Fin) {
			f.Release()
			ctx.FireError(ErrInvalidUTF8)
			return
		}
	case protocol.OpcodeContinuation:
		if v.insideText && !v.check(f.Payload(), f.Fin) {
			f.Release()
			ctx.FireError(ErrInvalidUTF8)
			return
		}
	}
	ctx.FireRead(f)
}

// check validates one fragment, carrying an incomplete trailing rune to
// the next fragment. A final fragment must not end mid-rune.
func (v *Utf8FrameValidator) check(p []byte, fin bool) bool {
	data := p
	if len(v.rem) > 0 {
		data = append(append([]byte(nil), v.rem...), p...)
	}
	ok, tail := validUTF8Prefix(data)
	if !ok {
		return false
	}
	if fin {
		v.insideText = false
		v.rem = nil
		return len(tail) == 0
	}
	v.insideText = true
	v.rem = append([]byte(nil), tail...)
	return true
}

// validUTF8Prefix scans p and reports whether it is valid UTF-8 except
// possibly for an incomplete rune at the end, which is returned as tail.
func validUTF8Prefix(p []byte) (ok bool, tail []byte) {
	for len(p) > 0 {
		if p[0] < utf8.RuneSelf {
			p = p[1:]
			continue
		}
		need := leadRuneLen(p[0])
		if need < 0 {
			return false, nil
		}
		if len(p) < need {
			return true, p
		}
		r, size := utf8.DecodeRune(p[:need])
		if r == utf8.RuneError && size == 1 {
			return false, nil
		}
		p = p[need:]
	}
	return true, nil
}

// leadRuneLen returns the encoded length implied by a multi-byte lead
// byte, or -1 when the byte cannot start a rune.
func leadRuneLen(b byte) int {
	switch {
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return -1
	}
}
