// File: pool/pool_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsExactSize(t *testing.T) {
	p := New()
	b := p.Get(100)
	assert.Equal(t, 100, b.Len())
	assert.Equal(t, 100, len(b.Bytes()))
	b.Release()
}

func TestReleaseRecycles(t *testing.T) {
	p := New()
	b := p.Get(512)
	b.Bytes()[0] = 0xAB
	b.Release()

	// The recycled region comes back resized to the new request.
	b2 := p.Get(300)
	assert.Equal(t, 300, b2.Len())
	b2.Release()
}

func TestRetainExtendsLifetime(t *testing.T) {
	p := New()
	b := p.Get(16)
	b.Retain()
	b.Release()
	// Still one reference held, contents must remain accessible.
	assert.NotPanics(t, func() { _ = b.Bytes() })
	b.Release()
}

func TestDoubleReleasePanics(t *testing.T) {
	p := New()
	b := p.Get(16)
	b.Release()
	require.Panics(t, func() { b.Release() })
}

func TestUseAfterReleasePanics(t *testing.T) {
	p := New()
	b := p.Get(16)
	b.Release()
	require.Panics(t, func() { _ = b.Bytes() })
	require.Panics(t, func() { b.Retain() })
}

func TestOversizedNotPooled(t *testing.T) {
	p := New()
	b := p.Get(1 << 20)
	require.Equal(t, 1<<20, b.Len())
	b.Release()
}

func TestWrapCopies(t *testing.T) {
	p := New()
	src := []byte("payload")
	b := p.Wrap(src)
	src[0] = 'X'
	assert.Equal(t, []byte("payload"), b.Bytes())
	b.Release()
}
