package client

import "errors"

var (
	ErrNotConnected       = errors.New("client: not connected")
	ErrAlreadyStarted     = errors.New("client: session already started")
	ErrHandshakeTimeout   = errors.New("client: handshake challenge timeout")
	ErrHandshakeNonce     = errors.New("client: handshake challenge missing nonce")
	ErrHandshakeMalformed = errors.New("client: malformed handshake challenge")
	ErrTransportClosed    = errors.New("client: transport closed")
	ErrSessionDead        = errors.New("client: server silent past read timeout")
	ErrEmptyChat          = errors.New("client: empty chat message")
	ErrMissingSecret      = errors.New("client: secret required")
	ErrMissingAddress     = errors.New("client: address required")
)
