package realtime

import (
	"encoding/json"
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/identity/ids"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/moderation"
)

// ProtocolVersion is carried in every envelope as "v".
const ProtocolVersion = 1

// Envelope types on the moderation feed.
const (
	TypeReady = "feed.ready"
	TypePing  = "ping"
	TypePong  = "pong"
	TypeError = "error"

	TypeEntryStaged    = string(moderation.EventStaged)
	TypeEntryPublished = string(moderation.EventPublished)
	TypeEntryRejected  = string(moderation.EventRejected)
)

// Envelope is the framing for every message in either direction.
type Envelope struct {
	V       int             `json:"v"`
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	TS      time.Time       `json:"ts"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ReadyPayload is sent once after the upgrade.
type ReadyPayload struct {
	SessionID string `json:"session_id"`
	Subject   string `json:"subject"`
}

// EntryPayload carries an entry that changed state and who changed it.
type EntryPayload struct {
	Entry moderation.Entry `json:"entry"`
	Actor string           `json:"actor"`
}

// ErrorPayload reports a rejected client frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newEnvelope(typ string, payload any, ts time.Time) Envelope {
	env := Envelope{V: ProtocolVersion, Type: typ, TS: ts.UTC()}
	if id, err := ids.NewULID(ts); err == nil {
		env.ID = id
	}
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			env.Payload = b
		}
	}
	return env
}
