// Package mjpeg reassembles JPEG frames from an unstructured byte
// stream. The upstream camera sends concatenated JPEG images over a
// long-lived HTTP body; reads land on arbitrary boundaries, so a frame
// may arrive split across many chunks or several frames may arrive in
// one.
package mjpeg

import (
	"bytes"
	"errors"
)

// JPEG start-of-image and end-of-image markers.
var (
	soi = []byte{0xFF, 0xD8}
	eoi = []byte{0xFF, 0xD9}
)

// DefaultMaxBuffer caps the accumulation buffer at 8 MiB, comfortably
// above any single phone-camera JPEG.
const DefaultMaxBuffer = 8 << 20

// ErrFrameTooLarge is returned when the accumulation buffer exceeds the
// configured cap without completing a frame. An upstream that stops
// emitting end markers would otherwise grow the buffer forever; callers
// should treat this like any other stream error and reconnect.
var ErrFrameTooLarge = errors.New("mjpeg: no frame boundary within buffer limit")

// Extractor accumulates raw chunks and emits complete JPEG frames.
// It is not safe for concurrent use; the capture loop is its only
// caller.
type Extractor struct {
	buf []byte
	max int
}

// New returns an Extractor whose accumulation buffer may grow to
// maxBuffer bytes. maxBuffer <= 0 selects DefaultMaxBuffer.
func New(maxBuffer int) *Extractor {
	if maxBuffer <= 0 {
		maxBuffer = DefaultMaxBuffer
	}
	return &Extractor{max: maxBuffer}
}

// Ingest appends chunk to the accumulation buffer and returns every
// complete frame it now contains, in arrival order. Each frame is an
// independent copy including both markers. Bytes before a frame's start
// marker are discarded with the frame; a trailing partial frame stays
// buffered for the next call.
func (e *Extractor) Ingest(chunk []byte) ([][]byte, error) {
	e.buf = append(e.buf, chunk...)

	var frames [][]byte
	for {
		start := bytes.Index(e.buf, soi)
		if start < 0 {
			break
		}
		end := bytes.Index(e.buf[start:], eoi)
		if end < 0 {
			break
		}
		end += start + len(eoi)

		frame := make([]byte, end-start)
		copy(frame, e.buf[start:end])
		frames = append(frames, frame)

		e.buf = e.buf[end:]
	}

	if len(frames) == 0 && len(e.buf) > e.max {
		return nil, ErrFrameTooLarge
	}
	return frames, nil
}

// Buffered reports how many bytes are waiting for a frame boundary.
func (e *Extractor) Buffered() int {
	return len(e.buf)
}

// Reset discards all buffered bytes. The capture loop resets on every
// reconnect so a torn frame from a dead connection never fuses with
// bytes from the next one.
func (e *Extractor) Reset() {
	e.buf = nil
}
