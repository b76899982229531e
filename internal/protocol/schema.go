package protocol

import (
	"bytes"
	"encoding/json"
)

type validator interface {
	Validate() error
}

// payloadEntry binds one message id to its statically known payload shape.
type payloadEntry struct {
	decode  func(raw json.RawMessage) (any, error)
	matches func(payload any) bool
	zero    func() any
	// optional entries accept a missing or null data member.
	optional bool
}

func entryFor[T any](optional bool) payloadEntry {
	return payloadEntry{
		decode: func(raw json.RawMessage) (any, error) {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			if err := validate(v); err != nil {
				return nil, err
			}
			return v, nil
		},
		matches: func(payload any) bool {
			_, ok := payload.(T)
			return ok
		},
		zero: func() any {
			var v T
			return v
		},
		optional: optional,
	}
}

var payloadDecoders = map[MessageID]payloadEntry{
	MsgPing:               entryFor[Ping](true),
	MsgPong:               entryFor[Pong](true),
	MsgMove:               entryFor[PlayerMove](false),
	MsgChat:               entryFor[Chat](false),
	MsgWorldUpdate:        entryFor[WorldUpdate](false),
	MsgPlayerJoin:         entryFor[PlayerJoin](false),
	MsgPlayerIDAssigned:   entryFor[PlayerIDAssigned](false),
	MsgPlayerMove:         entryFor[PlayerMove](false),
	MsgPlayerCorrection:   entryFor[PlayerCorrection](false),
	MsgNPCSpawn:           entryFor[NPCState](false),
	MsgNPCUpdate:          entryFor[NPCState](false),
	MsgNPCDespawn:         entryFor[NPCState](false),
	MsgHandshakeChallenge: entryFor[HandshakeChallenge](false),
}

// KnownIDs lists every message id with a registered payload shape.
func KnownIDs() []MessageID {
	out := make([]MessageID, 0, len(payloadDecoders))
	for id := range payloadDecoders {
		out = append(out, id)
	}
	return out
}

func validate(v any) error {
	if val, ok := v.(validator); ok {
		return val.Validate()
	}
	return nil
}

func isNullData(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
