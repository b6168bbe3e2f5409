package web

import (
	"bufio"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/coopcam/coopcam/internal/log"
	"github.com/coopcam/coopcam/pkg/relay"
)

// writeWait is how long a websocket frame write may take before the
// viewer counts as gone.
const writeWait = 10 * time.Second

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Coop Cam</title>
    <style>
        body { margin: 0; padding: 0; background: #000; }
        img { width: 100%; height: 100vh; object-fit: contain; }
    </style>
</head>
<body>
    <img src="/video" />
</body>
</html>`

// handleVideo streams multipart/x-mixed-replace parts to one viewer.
// The handler registers a subscriber and the stream writer drains it
// until the viewer disconnects, the broadcaster drops it, or the
// process shuts down. Unregistration is idempotent across all exits.
func (s *Server) handleVideo(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "multipart/x-mixed-replace; boundary="+relay.Boundary)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	sub := relay.NewSubscriber()
	s.registry.Add(sub)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer s.registry.Remove(sub)

		// Push the response headers out before the first frame so the
		// viewer knows the stream is live.
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case frame := <-sub.Frames():
				if err := relay.WritePart(w, frame); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-sub.Done():
				return
			case <-s.quit:
				return
			}
		}
	})
	return nil
}

// handleVideoWS feeds raw JPEG frames over a websocket, one binary
// message per frame. Same subscriber mechanics as /video, without the
// multipart framing.
func (s *Server) handleVideoWS(c *websocket.Conn) {
	sub := relay.NewSubscriber()
	s.registry.Add(sub)
	defer s.registry.Remove(sub)

	// We expect nothing from the viewer; the read loop only detects
	// disconnection.
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				s.registry.Remove(sub)
				return
			}
		}
	}()

	for {
		select {
		case frame := <-sub.Frames():
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		case <-sub.Done():
			return
		case <-s.quit:
			return
		}
	}
}

// handleFlashlight forwards the toggle command to the camera and
// relays its status and body verbatim. Bare OPTIONS gets an empty 200;
// preflights with CORS request headers are answered by the middleware.
func (s *Server) handleFlashlight(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodOptions {
		return c.SendStatus(fiber.StatusOK)
	}

	status, body, err := s.camera.ToggleTorch(c.Context())
	if err != nil {
		log.Error("flashlight proxy failed", "error", err)
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlain)
		return c.Status(fiber.StatusInternalServerError).SendString("Error: " + err.Error())
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlain)
	return c.Status(status).Send(body)
}

// handleIndex serves the inline viewer page.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(indexHTML)
}
