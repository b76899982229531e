// Package session owns connection-level settings shared by the session client
// and the host that supervises it.
//
// Ownership boundary:
// - connect/handshake/read/write/keepalive timing
// - retry/backoff primitives for reconnect policy
// - transport security validation
package session
