package ws

// Envelope is the wire format for every event in both directions.
type Envelope struct {
	// Event is the event name from the protocol table below.
	Event string `json:"event"`
	// Data is the event payload: a room code, a display name, or empty.
	Data string `json:"data,omitempty"`
}

// Inbound events.
const (
	EventCreateRoom  = "createRoom"
	EventJoinRoom    = "joinRoom"
	EventRejoinRoom  = "rejoinRoom"
	EventLeaveRoom   = "leaveRoom"
	EventSetUsername = "setUsername"
)

// Outbound events.
const (
	EventRoomCreated  = "roomCreated"
	EventRoomJoined   = "roomJoined"
	EventRoomFull     = "roomFull"
	EventRoomNotFound = "roomNotFound"
	EventRoomLeft     = "roomLeft"
	EventUsernameSet  = "usernameSet"
	EventSession      = "session"
	EventError        = "error"
)
