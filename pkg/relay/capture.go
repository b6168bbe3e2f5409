package relay

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/coopcam/coopcam/internal/log"
	"github.com/coopcam/coopcam/pkg/mjpeg"
)

// readChunkSize is the read buffer for the upstream body. Reads land on
// arbitrary byte boundaries; the extractor owns reassembly.
const readChunkSize = 4096

// StreamSource opens the upstream camera's long-lived byte stream.
// Cancelling the context must abort both the dial and subsequent body
// reads.
type StreamSource interface {
	Stream(ctx context.Context) (io.ReadCloser, error)
}

// Capture owns the upstream connection for the life of the process: it
// connects, feeds chunks through the extractor, broadcasts every
// completed frame, and on any failure waits a fixed backoff before
// reconnecting. It is the sole writer to the extractor and the sole
// caller of Broadcast.
type Capture struct {
	source      StreamSource
	broadcaster *Broadcaster
	extractor   *mjpeg.Extractor
	backoff     time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCapture returns a capture loop reading from source and fanning out
// through broadcaster. backoff <= 0 defaults to one second;
// maxFrameBytes <= 0 selects the extractor default.
func NewCapture(source StreamSource, broadcaster *Broadcaster, backoff time.Duration, maxFrameBytes int) *Capture {
	if backoff <= 0 {
		backoff = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Capture{
		source:      source,
		broadcaster: broadcaster,
		extractor:   mjpeg.New(maxFrameBytes),
		backoff:     backoff,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Start launches the capture loop. It returns immediately.
func (c *Capture) Start() {
	go c.run()
}

// Stop signals shutdown and blocks until the loop has fully terminated.
// Safe to call more than once.
func (c *Capture) Stop() {
	c.cancel()
	<-c.done
}

func (c *Capture) run() {
	defer close(c.done)
	for {
		body, err := c.source.Stream(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			log.Warn("upstream connect failed, retrying", "error", err, "backoff", c.backoff)
			if !c.wait() {
				return
			}
			continue
		}

		log.Info("upstream connected")
		err = c.stream(body)
		body.Close()
		c.extractor.Reset()

		if c.ctx.Err() != nil {
			return
		}
		log.Warn("upstream stream ended, retrying", "error", err, "backoff", c.backoff)
		if !c.wait() {
			return
		}
	}
}

// stream reads chunks until the connection ends or the extractor gives
// up on finding a frame boundary.
func (c *Capture) stream(body io.Reader) error {
	buf := make([]byte, readChunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			frames, ferr := c.extractor.Ingest(buf[:n])
			for _, frame := range frames {
				c.broadcaster.Broadcast(frame)
			}
			if ferr != nil {
				return ferr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// wait sleeps for the backoff interval. It reports false when shutdown
// was signaled instead.
func (c *Capture) wait() bool {
	select {
	case <-time.After(c.backoff):
		return true
	case <-c.ctx.Done():
		return false
	}
}
