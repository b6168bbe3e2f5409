// Package web serves the relay's HTTP surface: the multipart MJPEG
// stream, a websocket frame feed, the flashlight control passthrough
// and the viewer page.
package web

import (
	"context"
	"os"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/coopcam/coopcam/pkg/relay"
)

// TorchToggler forwards the flashlight toggle command to the camera and
// returns its status and raw body. *camera.Client implements it.
type TorchToggler interface {
	ToggleTorch(ctx context.Context) (int, []byte, error)
}

// Server is the viewer-facing HTTP server.
type Server struct {
	app      *fiber.App
	addr     string
	registry *relay.Registry
	camera   TorchToggler

	// quit is closed on shutdown so every streaming handler
	// unregisters and returns instead of blocking forever.
	quit     chan struct{}
	quitOnce sync.Once
}

// NewServer wires the routes and returns a server listening on addr
// once Listen is called.
func NewServer(addr string, registry *relay.Registry, camera TorchToggler) *Server {
	s := &Server{
		addr:     addr,
		registry: registry,
		camera:   camera,
		quit:     make(chan struct{}),
	}

	app := fiber.New(fiber.Config{
		AppName:               "coopcam",
		DisableStartupMessage: true,
	})

	// Permissive CORS, same as the camera's own remote UI expects.
	app.Use(cors.New())

	app.Get("/video", s.handleVideo)
	app.All("/api/flashlight", s.handleFlashlight)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/video", websocket.New(s.handleVideoWS))

	// Serve a built SPA when present, otherwise the inline viewer page.
	if info, err := os.Stat("dist"); err == nil && info.IsDir() {
		app.Static("/", "dist")
		app.Get("/*", func(c *fiber.Ctx) error {
			return c.SendFile("dist/index.html")
		})
	} else {
		app.Get("/", s.handleIndex)
	}

	s.app = app
	return s
}

// Listen serves until Shutdown is called. It blocks.
func (s *Server) Listen() error {
	return s.app.Listen(s.addr)
}

// Shutdown releases every streaming handler and gracefully stops the
// server.
func (s *Server) Shutdown() error {
	s.quitOnce.Do(func() {
		close(s.quit)
	})
	return s.app.Shutdown()
}
