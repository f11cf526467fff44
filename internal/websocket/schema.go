package websocket

import "github.com/stemsi/courseware/internal/model"

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventContent Event = "content"
	EventError   Event = "error"
	EventPing    Event = "ping"
	EventReady   Event = "ready"
)

// Frame is every server → client message. Content is set for EventContent.
type Frame struct {
	Event   Event               `json:"event"`
	BatchID int64               `json:"batch_id,omitempty"`
	Content *model.ContentEvent `json:"content,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPong Action = "pong"
)

// RequestEnvelope is the only client message shape. Clients mostly just
// keep the socket open; anything unknown is ignored.
type RequestEnvelope struct {
	Action Action `json:"action"`
}
