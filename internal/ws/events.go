package ws

import "github.com/citylink/citylink/internal/models"

// Event type tags. Every frame on the live connection is a tagged JSON
// envelope; required fields are validated before any state transition.
const (
	eventJoin    = "join"
	eventMessage = "message"
	eventError   = "error"
)

// inboundEvent is the union of client-to-server payloads.
//
//	{"type":"join","room":"Oslo","displayName":"kari"}
//	{"type":"message","room":"Oslo","content":"hi","authorId":3,"displayName":"kari"}
type inboundEvent struct {
	Type        string `json:"type"`
	Room        string `json:"room"`
	DisplayName string `json:"displayName"`
	Content     string `json:"content"`
	AuthorID    int    `json:"authorId"`
}

// deliverEvent carries one persisted message to a room subscriber.
type deliverEvent struct {
	Type string `json:"type"`
	models.Message
}

// errorEvent is an explicit rejection; operations are never dropped
// silently while the connection is live.
type errorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
