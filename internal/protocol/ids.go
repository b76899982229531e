package protocol

import "strconv"

// MessageID tags the payload shape carried by an envelope.
type MessageID int

// Message ids are fixed for interop with the server.
const (
	MsgPing               MessageID = 1
	MsgPong               MessageID = 2
	MsgMove               MessageID = 3
	MsgChat               MessageID = 4
	MsgWorldUpdate        MessageID = 5
	MsgPlayerJoin         MessageID = 6
	MsgPlayerIDAssigned   MessageID = 7
	MsgPlayerMove         MessageID = 8
	MsgPlayerCorrection   MessageID = 9
	MsgNPCSpawn           MessageID = 10
	MsgNPCUpdate          MessageID = 11
	MsgNPCDespawn         MessageID = 12
	MsgHandshakeChallenge MessageID = 100
)

var messageNames = map[MessageID]string{
	MsgPing:               "ping",
	MsgPong:               "pong",
	MsgMove:               "move",
	MsgChat:               "chat",
	MsgWorldUpdate:        "world_update",
	MsgPlayerJoin:         "player_join",
	MsgPlayerIDAssigned:   "player_id_assigned",
	MsgPlayerMove:         "player_move",
	MsgPlayerCorrection:   "player_correction",
	MsgNPCSpawn:           "npc_spawn",
	MsgNPCUpdate:          "npc_update",
	MsgNPCDespawn:         "npc_despawn",
	MsgHandshakeChallenge: "handshake_challenge",
}

func (id MessageID) String() string {
	if name, ok := messageNames[id]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(id)) + ")"
}

// Known reports whether id has a registered payload shape.
func (id MessageID) Known() bool {
	_, ok := payloadDecoders[id]
	return ok
}
