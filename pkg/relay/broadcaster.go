package relay

import (
	"fmt"
	"io"

	"github.com/coopcam/coopcam/internal/log"
)

// Boundary is the multipart boundary token declared in the stream
// response's Content-Type and written before every part.
const Boundary = "frame"

// Broadcaster pushes each frame to every registered subscriber. Only
// the capture loop calls Broadcast, one frame at a time, so all
// subscribers observe the same frame order.
type Broadcaster struct {
	registry *Registry
}

// NewBroadcaster returns a broadcaster over the given registry.
func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// Broadcast delivers one frame to every current subscriber. A
// subscriber that refuses the frame (closed, or too far behind) is
// removed after the iteration; the others are unaffected. With no
// subscribers it does nothing.
func (b *Broadcaster) Broadcast(frame []byte) {
	subs := b.registry.Snapshot()
	if len(subs) == 0 {
		return
	}

	var failed []*Subscriber
	for _, s := range subs {
		if !s.Send(frame) {
			failed = append(failed, s)
		}
	}

	for _, s := range failed {
		log.Warn("dropping viewer", "subscriber", s.ID())
		b.registry.Remove(s)
	}
}

// WritePart writes one frame in the multipart/x-mixed-replace framing
// viewers expect: boundary line, image content type, blank line, frame
// bytes, trailing CRLF.
func WritePart(w io.Writer, frame []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\n\r\n", Boundary); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
