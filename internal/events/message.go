package events

import (
	"time"
)

// Reserved topics and events
const (
	// TopicAll subscribes to every topic
	TopicAll = "*"

	// TopicHeartbeat carries liveness probes; every subscriber receives it regardless of its topics
	TopicHeartbeat = "heartbeat"

	// EventConnected is the first message of every subscription
	EventConnected = "connected"

	// EventHeartbeat is sent on TopicHeartbeat
	EventHeartbeat = "heartbeat"
)

// Message is the envelope delivered to subscribers
type Message struct {
	Event     string `json:"event"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

func newMessage(event string, data any, now time.Time) Message {
	return Message{
		Event:     event,
		Data:      data,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
