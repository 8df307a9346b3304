package ws

// Client intent kinds, one per inbound JSON message.
const (
	IntentCreate    = "create-session"
	IntentStart     = "start-session"
	IntentEnd       = "end-session"
	IntentHeartbeat = "heartbeat"
	IntentCheck     = "session-check"
)

// Acknowledgment kinds sent back to the client. Heartbeats are not acked.
const (
	AckCreated   = "sessionCreated"
	AckStarted   = "sessionStarted"
	AckEnded     = "sessionEnded"
	AckExists    = "sessionExists"
	AckNotExists = "noSessionExists"
)

type clientMessage struct {
	Type  string  `json:"type"`
	Notes *string `json:"notes,omitempty"`
}

type serverMessage struct {
	Type string `json:"type"`
}
