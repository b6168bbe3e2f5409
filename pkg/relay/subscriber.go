// Package relay fans a single upstream MJPEG feed out to any number of
// connected viewers. The capture loop reassembles frames and broadcasts
// each one; every viewer connection owns a Subscriber whose write pump
// drains frames onto the wire.
package relay

import (
	"sync"

	"github.com/google/uuid"
)

// sendBuffer is how many frames a subscriber may fall behind before it
// counts as failed and is dropped. Kept small on purpose: viewers get
// the live picture or nothing, never a growing backlog.
const sendBuffer = 8

// Subscriber is one viewer connection eligible to receive broadcast
// frames. The registry holds only a pointer; the connection handler
// owns the underlying transport and is responsible for closing it.
type Subscriber struct {
	id     string
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

// NewSubscriber returns a subscriber ready to be registered.
func NewSubscriber() *Subscriber {
	return &Subscriber{
		id:     uuid.NewString(),
		frames: make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// ID returns the subscriber's identity, used only for logging.
func (s *Subscriber) ID() string {
	return s.id
}

// Send offers one frame without blocking. It reports false when the
// subscriber is closed or its buffer is full; the broadcaster treats
// either as a failed delivery.
func (s *Subscriber) Send(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.frames <- frame:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

// Frames returns the channel the connection's write pump drains.
func (s *Subscriber) Frames() <-chan []byte {
	return s.frames
}

// Done is closed when the subscriber is removed, from any path.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// close marks the subscriber dead. Safe to call repeatedly and
// concurrently with an in-flight Send; the frames channel itself is
// never closed, so a racing Send can never panic.
func (s *Subscriber) close() {
	s.once.Do(func() {
		close(s.done)
	})
}
