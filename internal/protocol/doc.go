// Package protocol owns the wire contract for the world session.
//
// Ownership boundary:
// - message id table
// - typed payload shapes and their validation
// - envelope encode/decode (one JSON object per newline-terminated line)
//
// Framing of the byte stream lives in protocol/frame; connection state lives in
// the client package.
package protocol
