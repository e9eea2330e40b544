package webhook

import (
	"time"
)

const (
	EventSpeak           = "notify.speak"
	EventIdentityCreated = "identity.created"
	EventIdentityUpdated = "identity.updated"
	EventIdentityDeleted = "identity.deleted"
)

type EventPayload struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
