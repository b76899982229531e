package protocol

import (
	"fmt"
	"strings"
)

// Ping is sent by the client as a keepalive; Pong is the server echo.
type Ping struct {
	Msg string `json:"msg,omitempty"`
}

type Pong struct {
	Msg string `json:"msg,omitempty"`
}

// HandshakeChallenge carries the server nonce that opens authentication.
type HandshakeChallenge struct {
	Nonce string `json:"nonce"`
}

// PlayerJoin answers a challenge. HMAC is lowercase hex.
type PlayerJoin struct {
	PreferredID string `json:"preferredId"`
	Nickname    string `json:"nickname"`
	TS          int64  `json:"ts"`
	HMAC        string `json:"hmac"`
}

func (p PlayerJoin) Validate() error {
	if strings.TrimSpace(p.PreferredID) == "" {
		return fmt.Errorf("%w: preferredId", ErrMissingField)
	}
	if strings.TrimSpace(p.HMAC) == "" {
		return fmt.Errorf("%w: hmac", ErrMissingField)
	}
	return nil
}

type PlayerIDAssigned struct {
	AssignedID string `json:"assignedId"`
	SpawnIndex int    `json:"spawnIndex"`
}

func (p PlayerIDAssigned) Validate() error {
	if strings.TrimSpace(p.AssignedID) == "" {
		return fmt.Errorf("%w: assignedId", ErrMissingField)
	}
	return nil
}

// PlayerState is one player entry in a world update.
type PlayerState struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

type WorldUpdate struct {
	Players []PlayerState `json:"players"`
}

func (w WorldUpdate) Validate() error {
	for i, p := range w.Players {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("%w: players[%d].id", ErrMissingField, i)
		}
	}
	return nil
}

// PlayerMove is the outbound position report. ID is optional on the wire.
type PlayerMove struct {
	ID string  `json:"id,omitempty"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

// PlayerCorrection is the server-authoritative position of the local player.
type PlayerCorrection struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Chat is used both ways. Outbound messages carry only channel and text.
type Chat struct {
	Channel   string `json:"channel"`
	PlayerID  string `json:"playerId,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Sender returns the display name for a received chat line.
func (c Chat) Sender() string {
	if c.Nickname != "" {
		return c.Nickname
	}
	return c.PlayerID
}

// NPCState is shared by NPC spawn, update and despawn.
type NPCState struct {
	NPCID string  `json:"npcId"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	State string  `json:"state,omitempty"`
	Name  string  `json:"name,omitempty"`
}

func (n NPCState) Validate() error {
	if strings.TrimSpace(n.NPCID) == "" {
		return fmt.Errorf("%w: npcId", ErrMissingField)
	}
	return nil
}
