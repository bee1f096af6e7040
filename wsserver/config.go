// File: wsserver/config.go
// Package wsserver defines the canonical protocol configuration.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One immutable structure with explicit defaults replaces the telescoping
// constructor shapes of older WebSocket stacks: every historical
// constructor is a subset of these fields.

package wsserver

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/momentics/wspipe/protocol"
)

// DefaultHandshakeTimeout bounds the HTTP upgrade exchange.
const DefaultHandshakeTimeout = 10 * time.Second

// DefaultMaxFramePayload caps a single inbound frame.
const DefaultMaxFramePayload = 65536

// CloseStatus describes the close frame sent when the server initiates
// the close sequence.
type CloseStatus struct {
	Code   int    `yaml:"code"`
	Reason string `yaml:"reason"`
}

// Config is the full protocol configuration.
type Config struct {
	// Path is the websocket endpoint. Required.
	Path string

	// Subprotocols lists supported subprotocols in server preference order.
	Subprotocols []string

	// CheckStartsWith matches Path as a prefix instead of exactly.
	CheckStartsWith bool

	// AllowExtensions accepts frames with RSV bits set and enables
	// permessage-deflate acknowledgment during the handshake.
	AllowExtensions bool

	// MaxFramePayload caps a single frame's payload length. Zero disables
	// the cap and lets a peer make the decoder buffer arbitrarily large
	// declared frames; keep a bound when peers are untrusted.
	MaxFramePayload int

	// AllowMaskMismatch accepts unmasked client frames.
	AllowMaskMismatch bool

	// DropPongFrames discards inbound pongs instead of forwarding them.
	DropPongFrames bool

	// HandshakeTimeout bounds the upgrade exchange. Zero disables it.
	HandshakeTimeout time.Duration

	// SendCloseFrame, when set, enables the close handler: the configured
	// status is sent when the local side initiates the close sequence.
	SendCloseFrame *CloseStatus

	// ForceCloseTimeout bounds the close handshake once initiated; on
	// expiry the transport is closed forcibly. Zero waits forever.
	ForceCloseTimeout time.Duration

	// HandleCloseFrames short-circuits inbound close frames in the
	// protocol handler instead of forwarding them.
	HandleCloseFrames bool

	// WithUTF8Validator inserts the text frame validator.
	WithUTF8Validator bool
}

// Option customizes a Config.
type Option func(*Config)

// DefaultConfig returns the documented defaults for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:              path,
		MaxFramePayload:   DefaultMaxFramePayload,
		DropPongFrames:    true,
		HandshakeTimeout:  DefaultHandshakeTimeout,
		HandleCloseFrames: true,
		WithUTF8Validator: true,
	}
}

// NewConfig builds a Config from defaults and options.
func NewConfig(path string, opts ...Option) Config {
	cfg := DefaultConfig(path)
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// WithSubprotocols sets supported subprotocols in preference order.
func WithSubprotocols(protos ...string) Option {
	return func(c *Config) { c.Subprotocols = protos }
}

// WithCheckStartsWith matches the websocket path as a prefix.
func WithCheckStartsWith() Option {
	return func(c *Config) { c.CheckStartsWith = true }
}

// WithAllowExtensions permits negotiated extensions on the wire.
func WithAllowExtensions() Option {
	return func(c *Config) { c.AllowExtensions = true }
}

// WithMaxFramePayload overrides the frame payload cap.
func WithMaxFramePayload(n int) Option {
	return func(c *Config) { c.MaxFramePayload = n }
}

// WithAllowMaskMismatch accepts unmasked client frames.
func WithAllowMaskMismatch() Option {
	return func(c *Config) { c.AllowMaskMismatch = true }
}

// WithForwardPongFrames forwards pongs downstream instead of dropping them.
func WithForwardPongFrames() Option {
	return func(c *Config) { c.DropPongFrames = false }
}

// WithHandshakeTimeout overrides the upgrade deadline.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Config) { c.HandshakeTimeout = d }
}

// WithSendCloseFrame enables the close handler with the given status.
func WithSendCloseFrame(code int, reason string) Option {
	return func(c *Config) { c.SendCloseFrame = &CloseStatus{Code: code, Reason: reason} }
}

// WithForceCloseTimeout bounds the close handshake.
func WithForceCloseTimeout(d time.Duration) Option {
	return func(c *Config) { c.ForceCloseTimeout = d }
}

// WithoutCloseFrameHandling forwards inbound close frames downstream.
func WithoutCloseFrameHandling() Option {
	return func(c *Config) { c.HandleCloseFrames = false }
}

// WithoutUTF8Validator skips text frame validation.
func WithoutUTF8Validator() Option {
	return func(c *Config) { c.WithUTF8Validator = false }
}

// decoderConfig derives the frame decoder settings. Servers require
// masked client frames unless mask mismatch is allowed.
func (c Config) decoderConfig() protocol.DecoderConfig {
	return protocol.DecoderConfig{
		MaxFramePayload:   c.MaxFramePayload,
		RequireMask:       true,
		AllowMaskMismatch: c.AllowMaskMismatch,
		AllowExtensions:   c.AllowExtensions,
	}
}

// yamlConfig mirrors Config for file loading. Pointer fields distinguish
// "absent" from zero so absent keys keep their defaults.
type yamlConfig struct {
	Path                    string       `yaml:"path"`
	Subprotocols            []string     `yaml:"subprotocols"`
	CheckStartsWith         bool         `yaml:"check_starts_with"`
	AllowExtensions         bool         `yaml:"allow_extensions"`
	MaxFramePayload         *int         `yaml:"max_frame_payload"`
	AllowMaskMismatch       bool         `yaml:"allow_mask_mismatch"`
	DropPongFrames          *bool        `yaml:"drop_pong_frames"`
	HandshakeTimeoutMillis  *int64       `yaml:"handshake_timeout_millis"`
	SendCloseFrame          *CloseStatus `yaml:"send_close_frame"`
	ForceCloseTimeoutMillis int64        `yaml:"force_close_timeout_millis"`
	HandleCloseFrames       *bool        `yaml:"handle_close_frames"`
	WithUTF8Validator       *bool        `yaml:"with_utf8_validator"`
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration bytes.
func ParseConfig(data []byte) (Config, error) {
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if yc.Path == "" {
		return Config{}, fmt.Errorf("parse config: path is required")
	}

	cfg := DefaultConfig(yc.Path)
	cfg.Subprotocols = yc.Subprotocols
	cfg.CheckStartsWith = yc.CheckStartsWith
	cfg.AllowExtensions = yc.AllowExtensions
	cfg.AllowMaskMismatch = yc.AllowMaskMismatch
	cfg.SendCloseFrame = yc.SendCloseFrame
	cfg.ForceCloseTimeout = time.Duration(yc.ForceCloseTimeoutMillis) * time.Millisecond
	if yc.MaxFramePayload != nil {
		cfg.MaxFramePayload = *yc.MaxFramePayload
	}
	if yc.DropPongFrames != nil {
		cfg.DropPongFrames = *yc.DropPongFrames
	}
	if yc.HandshakeTimeoutMillis != nil {
		cfg.HandshakeTimeout = time.Duration(*yc.HandshakeTimeoutMillis) * time.Millisecond
	}
	if yc.HandleCloseFrames != nil {
		cfg.HandleCloseFrames = *yc.HandleCloseFrames
	}
	if yc.WithUTF8Validator != nil {
		cfg.WithUTF8Validator = *yc.WithUTF8Validator
	}
	return cfg, nil
}
