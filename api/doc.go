// Package api
// Author: momentics <momentics@gmail.com>
//
// Interface layer for wspipe. All other packages depend on these contracts
// rather than on each other's concrete types: reference-counted payload
// buffers, byte transports, and asynchronous write completion.
package api
