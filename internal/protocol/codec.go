package protocol

import (
	"encoding/json"
	"fmt"
)

// Delimiter terminates every frame on the wire.
const Delimiter byte = '\n'

// Message is one decoded envelope. Payload holds the typed value registered for
// ID, or a json.RawMessage when ID is not known to this build.
type Message struct {
	ID      MessageID
	Payload any
}

type inboundEnvelope struct {
	ID   MessageID       `json:"id"`
	Data json.RawMessage `json:"data"`
}

type outboundEnvelope struct {
	ID   MessageID `json:"id"`
	Data any       `json:"data"`
}

// Encode serializes one envelope followed by the delimiter. JSON string
// escaping guarantees the delimiter never appears inside the envelope.
func Encode(id MessageID, payload any) ([]byte, error) {
	entry, ok := payloadDecoders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, int(id))
	}
	if payload == nil {
		if !entry.optional {
			return nil, fmt.Errorf("%w: %s", ErrMissingData, id)
		}
		payload = entry.zero()
	}
	if !entry.matches(payload) {
		return nil, fmt.Errorf("%w: %s got %T", ErrPayloadMismatch, id, payload)
	}
	if err := validate(payload); err != nil {
		return nil, err
	}
	out, err := json.Marshal(outboundEnvelope{ID: id, Data: payload})
	if err != nil {
		return nil, err
	}
	return append(out, Delimiter), nil
}

// Decode parses one frame (without its delimiter) into a typed Message.
// Unknown ids decode successfully with a raw payload so callers can route them
// to an unrecognized-message fallback.
func Decode(frame []byte) (Message, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Message{}, &DecodeError{Raw: string(frame), Err: err}
	}
	entry, ok := payloadDecoders[env.ID]
	if !ok {
		return Message{ID: env.ID, Payload: env.Data}, nil
	}
	if isNullData(env.Data) {
		if entry.optional {
			return Message{ID: env.ID, Payload: entry.zero()}, nil
		}
		return Message{}, &DecodeError{ID: env.ID, Raw: string(frame), Err: ErrMissingData}
	}
	payload, err := entry.decode(env.Data)
	if err != nil {
		return Message{}, &DecodeError{ID: env.ID, Raw: string(frame), Err: err}
	}
	return Message{ID: env.ID, Payload: payload}, nil
}

// PayloadAs returns the message payload as T.
func PayloadAs[T any](m Message) (T, error) {
	v, ok := m.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s got %T", ErrPayloadMismatch, m.ID, m.Payload)
	}
	return v, nil
}
