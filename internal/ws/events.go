package ws

import (
	"time"
)

type EventType string

const (
	EventSessionStatus      EventType = "session.status"
	EventEnrollmentProgress EventType = "enrollment.progress"
	EventRecognition        EventType = "recognition.result"
	EventIdentityCreated    EventType = "identity.created"
	EventIdentityUpdated    EventType = "identity.updated"
	EventIdentityDeleted    EventType = "identity.deleted"
)

// Topic groups events; a client subscribed to AllTopics receives every one.
type Topic string

const (
	AllTopics       Topic = ""
	TopicSession    Topic = "session"
	TopicIdentities Topic = "identities"
)

type Event struct {
	Topic     Topic       `json:"topic"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
