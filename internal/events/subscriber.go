package events

import (
	"sync"
	"time"
)

// Subscription is the caller's handle on a registered subscriber.
// C is closed when the subscriber is removed or the hub stops.
type Subscription struct {
	ID     string
	Topics []string
	C      <-chan Message
}

type subscriber struct {
	id          string
	topics      map[string]struct{}
	connectedAt time.Time

	mu           sync.Mutex
	lastLiveness time.Time
	ch           chan Message
	closed       bool
}

func newSubscriber(id string, topics []string, bufferSize int, now time.Time) *subscriber {
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}
	return &subscriber{
		id:           id,
		topics:       set,
		connectedAt:  now,
		lastLiveness: now,
		ch:           make(chan Message, bufferSize),
	}
}

// matches reports whether the subscriber receives messages published on topic
func (s *subscriber) matches(topic string) bool {
	if topic == TopicHeartbeat {
		return true
	}
	if _, ok := s.topics[TopicAll]; ok {
		return true
	}
	_, ok := s.topics[topic]
	return ok
}

// send queues m without blocking. It fails when the subscriber is closed or its buffer is full.
func (s *subscriber) send(m Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- m:
		return true
	default:
		return false
	}
}

func (s *subscriber) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastLiveness) {
		s.lastLiveness = now
	}
}

func (s *subscriber) liveness() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLiveness
}

// close closes the outbound channel once
func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
