// File: wsserver/config_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsserver_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/wspipe/protocol"
	"github.com/momentics/wspipe/wsserver"
)

func TestDefaultConfig(t *testing.T) {
	cfg := wsserver.DefaultConfig("/ws")

	assert.Equal(t, "/ws", cfg.Path)
	assert.Equal(t, wsserver.DefaultMaxFramePayload, cfg.MaxFramePayload)
	assert.Equal(t, wsserver.DefaultHandshakeTimeout, cfg.HandshakeTimeout)
	assert.True(t, cfg.DropPongFrames)
	assert.True(t, cfg.HandleCloseFrames)
	assert.True(t, cfg.WithUTF8Validator)
	assert.Nil(t, cfg.SendCloseFrame)
	assert.False(t, cfg.CheckStartsWith)
	assert.False(t, cfg.AllowExtensions)
	assert.False(t, cfg.AllowMaskMismatch)
}

func TestConfigOptions(t *testing.T) {
	cfg := wsserver.NewConfig("/api/ws",
		wsserver.WithSubprotocols("v2.chat", "v1.chat"),
		wsserver.WithCheckStartsWith(),
		wsserver.WithAllowExtensions(),
		wsserver.WithMaxFramePayload(1<<20),
		wsserver.WithAllowMaskMismatch(),
		wsserver.WithForwardPongFrames(),
		wsserver.WithHandshakeTimeout(3*time.Second),
		wsserver.WithSendCloseFrame(protocol.CloseGoingAway, "shutting down"),
		wsserver.WithForceCloseTimeout(time.Second),
		wsserver.WithoutCloseFrameHandling(),
		wsserver.WithoutUTF8Validator(),
	)

	assert.Equal(t, []string{"v2.chat", "v1.chat"}, cfg.Subprotocols)
	assert.True(t, cfg.CheckStartsWith)
	assert.True(t, cfg.AllowExtensions)
	assert.Equal(t, 1<<20, cfg.MaxFramePayload)
	assert.True(t, cfg.AllowMaskMismatch)
	assert.False(t, cfg.DropPongFrames)
	assert.Equal(t, 3*time.Second, cfg.HandshakeTimeout)
	require.NotNil(t, cfg.SendCloseFrame)
	assert.Equal(t, protocol.CloseGoingAway, cfg.SendCloseFrame.Code)
	assert.Equal(t, "shutting down", cfg.SendCloseFrame.Reason)
	assert.Equal(t, time.Second, cfg.ForceCloseTimeout)
	assert.False(t, cfg.HandleCloseFrames)
	assert.False(t, cfg.WithUTF8Validator)
}

func TestParseConfig(t *testing.T) {
	cfg, err := wsserver.ParseConfig([]byte(`
path: /ws
subprotocols: [v1.chat]
check_starts_with: true
max_frame_payload: 4096
drop_pong_frames: false
handshake_timeout_millis: 2500
send_close_frame:
  code: 1001
  reason: going away
force_close_timeout_millis: 500
with_utf8_validator: false
`))
	require.NoError(t, err)

	assert.Equal(t, "/ws", cfg.Path)
	assert.Equal(t, []string{"v1.chat"}, cfg.Subprotocols)
	assert.True(t, cfg.CheckStartsWith)
	assert.Equal(t, 4096, cfg.MaxFramePayload)
	assert.False(t, cfg.DropPongFrames)
	assert.Equal(t, 2500*time.Millisecond, cfg.HandshakeTimeout)
	require.NotNil(t, cfg.SendCloseFrame)
	assert.Equal(t, protocol.CloseGoingAway, cfg.SendCloseFrame.Code)
	assert.Equal(t, "going away", cfg.SendCloseFrame.Reason)
	assert.Equal(t, 500*time.Millisecond, cfg.ForceCloseTimeout)
	assert.False(t, cfg.WithUTF8Validator)
	assert.True(t, cfg.HandleCloseFrames, "absent key keeps its default")
}

func TestParseConfigAbsentKeysKeepDefaults(t *testing.T) {
	cfg, err := wsserver.ParseConfig([]byte("path: /ws\n"))
	require.NoError(t, err)

	assert.Equal(t, wsserver.DefaultConfig("/ws"), cfg)
}

func TestParseConfigRequiresPath(t *testing.T) {
	_, err := wsserver.ParseConfig([]byte("max_frame_payload: 1024\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestParseConfigRejectsBadYAML(t *testing.T) {
	_, err := wsserver.ParseConfig([]byte("path: [unclosed"))
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ws.yaml")
	require.NoError(t, os.WriteFile(file, []byte("path: /rt\nmax_frame_payload: 2048\n"), 0o600))

	cfg, err := wsserver.LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "/rt", cfg.Path)
	assert.Equal(t, 2048, cfg.MaxFramePayload)

	_, err = wsserver.LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
