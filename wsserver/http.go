// File: wsserver/http.go
// Package wsserver implements raw HTTP response synthesis and upgrade
// header helpers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsserver

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// WebSocket handshake constants per RFC 6455.
const (
	websocketGUID    = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"
	websocketVersion = "13"
)

// httpErrorResponse serializes a minimal HTTP response. The connection is
// already beyond a real HTTP server, so responses are written raw.
func httpErrorResponse(version string, status int, body []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %d %s\r\n", version, status, http.StatusText(status))
	if len(body) > 0 {
		fmt.Fprintf(&b, "Content-Type: text/plain; charset=utf-8\r\n")
	}
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(body))
	fmt.Fprintf(&b, "Connection: close\r\n\r\n")
	b.Write(body)
	return b.Bytes()
}

// computeAcceptKey derives Sec-WebSocket-Accept per RFC 6455 §4.2.2.
func computeAcceptKey(challengeKey string) string {
	h := sha1.New()
	h.Write([]byte(challengeKey + websocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// isUpgradeRequest checks the Connection and Upgrade tokens.
func isUpgradeRequest(r *http.Request) bool {
	return headerContainsToken(r.Header, "Connection", "upgrade") &&
		headerContainsToken(r.Header, "Upgrade", "websocket")
}

// headerContainsToken checks a comma-separated header for a token,
// case-insensitively.
func headerContainsToken(h http.Header, name, token string) bool {
	for _, v := range h.Values(name) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}

// clientSubprotocols extracts the Sec-WebSocket-Protocol offers.
func clientSubprotocols(r *http.Request) []string {
	var protos []string
	for _, v := range r.Header.Values("Sec-WebSocket-Protocol") {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				protos = append(protos, p)
			}
		}
	}
	return protos
}

// selectSubprotocol picks the first server-preferred protocol the client
// offered, or empty.
func selectSubprotocol(serverProtos []string, r *http.Request) string {
	offered := clientSubprotocols(r)
	for _, sp := range serverProtos {
		for _, cp := range offered {
			if sp == cp {
				return sp
			}
		}
	}
	return ""
}

// offersPermessageDeflate checks the client's extension offers.
func offersPermessageDeflate(r *http.Request) bool {
	for _, v := range r.Header.Values("Sec-WebSocket-Extensions") {
		for _, ext := range strings.Split(v, ",") {
			name := strings.TrimSpace(strings.Split(ext, ";")[0])
			if strings.EqualFold(name, "permessage-deflate") {
				return true
			}
		}
	}
	return false
}
