// File: protocol/codec_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/momentics/wspipe/pool"
	"github.com/momentics/wspipe/protocol"
)

func newDecoder(cfg protocol.DecoderConfig) *protocol.Decoder {
	return protocol.NewDecoder(cfg, pool.New())
}

func TestEncodeDecodeFrame(t *testing.T) {
	payload := []byte("hello")
	raw := protocol.EncodeRaw(protocol.OpcodeText, true, payload)

	d := newDecoder(protocol.DecoderConfig{MaxFramePayload: 1024})
	frames, err := d.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	got := frames[0]
	if got.Opcode != protocol.OpcodeText || !got.Fin {
		t.Errorf("header mismatch: opcode=%#x fin=%v", got.Opcode, got.Fin)
	}
	if !bytes.Equal(got.Payload(), payload) {
		t.Error("payload mismatch")
	}
	got.Release()
}

func TestDecodeMaskedFrame(t *testing.T) {
	payload := []byte("masked payload")
	key := [4]byte{0xDE, 0xAD, 0xBE, 0xEF}
	raw := make([]byte, 0, 6+len(payload))
	raw = append(raw, protocol.FinBit|protocol.OpcodeBinary, protocol.MaskBit|byte(len(payload)))
	raw = append(raw, key[:]...)
	for i, b := range payload {
		raw = append(raw, b^key[i%4])
	}

	d := newDecoder(protocol.DecoderConfig{MaxFramePayload: 1024, RequireMask: true})
	frames, err := d.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if !bytes.Equal(frames[0].Payload(), payload) {
		t.Error("unmasked payload mismatch")
	}
	frames[0].Release()
}

func TestDecodePartialThenComplete(t *testing.T) {
	raw := protocol.EncodeRaw(protocol.OpcodeText, true, []byte("split"))

	d := newDecoder(protocol.DecoderConfig{MaxFramePayload: 1024})
	frames, err := d.Decode(raw[:3])
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 0 {
		t.Fatalf("expected no frame yet, got %d", len(frames))
	}
	frames, err = d.Decode(raw[3:])
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if string(frames[0].Payload()) != "split" {
		t.Error("payload mismatch after reassembly")
	}
	frames[0].Release()
}

func TestDecodeCoalescedFrames(t *testing.T) {
	raw := append(
		protocol.EncodeRaw(protocol.OpcodeText, true, []byte("one")),
		protocol.EncodeRaw(protocol.OpcodeText, true, []byte("two"))...)

	d := newDecoder(protocol.DecoderConfig{MaxFramePayload: 1024})
	frames, err := d.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if string(frames[0].Payload()) != "one" || string(frames[1].Payload()) != "two" {
		t.Error("payload order mismatch")
	}
	for _, f := range frames {
		f.Release()
	}
}

func TestDecodeOversizedFrame(t *testing.T) {
	raw := protocol.EncodeRaw(protocol.OpcodeBinary, true, make([]byte, 200))

	d := newDecoder(protocol.DecoderConfig{MaxFramePayload: 100})
	if _, err := d.Decode(raw); err != protocol.ErrFrameTooLarge {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

// extendedLengthFrame builds a frame header declaring a 64-bit payload
// length with no payload bytes behind it.
func extendedLengthFrame(length uint64) []byte {
	raw := make([]byte, 10)
	raw[0] = protocol.FinBit | protocol.OpcodeBinary
	raw[1] = 127
	binary.BigEndian.PutUint64(raw[2:], length)
	return raw
}

func TestDecodeRejectsHighBitLength(t *testing.T) {
	// The sign bit of the extended length must be 0 per RFC 6455 §5.2.
	// Each of these went negative through int64 before the check existed:
	// the first indexed the stream buffer out of range, the second made
	// Decode loop forever on the same bytes, the third produced a bogus
	// empty frame.
	lengths := []uint64{
		1 << 63,
		0xFFFFFFFFFFFFFFF2,
		0xFFFFFFFFFFFFFFFF,
	}
	for _, l := range lengths {
		d := newDecoder(protocol.DecoderConfig{MaxFramePayload: 65536})
		frames, err := d.Decode(extendedLengthFrame(l))
		if err != protocol.ErrInvalidLength {
			t.Errorf("length %#x: expected ErrInvalidLength, got %v", l, err)
		}
		if len(frames) != 0 {
			t.Errorf("length %#x: expected no frames, got %d", l, len(frames))
		}
	}
}

func TestDecodeRejectsHugePositiveLength(t *testing.T) {
	// Positive but over the configured cap: caught by the payload bound
	// without waiting for the bytes.
	d := newDecoder(protocol.DecoderConfig{MaxFramePayload: 65536})
	if _, err := d.Decode(extendedLengthFrame(1 << 40)); err != protocol.ErrFrameTooLarge {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestDecodeMaskMismatch(t *testing.T) {
	raw := protocol.EncodeRaw(protocol.OpcodeText, true, []byte("bare"))

	d := newDecoder(protocol.DecoderConfig{MaxFramePayload: 1024, RequireMask: true})
	if _, err := d.Decode(raw); err != protocol.ErrMaskMismatch {
		t.Fatalf("expected ErrMaskMismatch, got %v", err)
	}

	d = newDecoder(protocol.DecoderConfig{MaxFramePayload: 1024, RequireMask: true, AllowMaskMismatch: true})
	frames, err := d.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame with mismatch allowed, got %d", len(frames))
	}
	frames[0].Release()
}

func TestDecodeReservedBits(t *testing.T) {
	raw := protocol.EncodeRaw(protocol.OpcodeText, true, []byte("x"))
	raw[0] |= 0x40 // RSV1

	d := newDecoder(protocol.DecoderConfig{MaxFramePayload: 1024})
	if _, err := d.Decode(raw); err != protocol.ErrReservedBits {
		t.Fatalf("expected ErrReservedBits, got %v", err)
	}

	d = newDecoder(protocol.DecoderConfig{MaxFramePayload: 1024, AllowExtensions: true})
	frames, err := d.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	frames[0].Release()
}

func TestCloseRoundTrip(t *testing.T) {
	raw := protocol.EncodeClose(protocol.CloseGoingAway, "bye")

	d := newDecoder(protocol.DecoderConfig{MaxFramePayload: 1024})
	frames, err := d.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	code, reason, ok := protocol.ParseClose(frames[0])
	if !ok || code != protocol.CloseGoingAway || reason != "bye" {
		t.Errorf("close parse mismatch: %d %q %v", code, reason, ok)
	}
	frames[0].Release()
}

func TestFrameRetainRelease(t *testing.T) {
	p := pool.New()
	f := protocol.NewFrame(protocol.OpcodeText, true, p.Wrap([]byte("ref")))

	f.Retain()
	if f.Refs() != 2 {
		t.Fatalf("expected 2 refs, got %d", f.Refs())
	}
	f.Release()
	if string(f.Payload()) != "ref" {
		t.Error("payload must survive while a reference is held")
	}
	f.Release()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on release after final release")
		}
	}()
	f.Release()
}
