package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/coopcam/coopcam/internal/config"
	"github.com/coopcam/coopcam/internal/log"
	"github.com/coopcam/coopcam/pkg/camera"
	"github.com/coopcam/coopcam/pkg/relay"
	"github.com/coopcam/coopcam/pkg/web"
)

func main() {
	defaults := config.Default()

	cameraURL := flag.String("camera", defaults.CameraURL, "Base URL of the upstream camera")
	addr := flag.String("addr", defaults.ListenAddr, "Listen address for viewers")
	backoff := flag.Duration("backoff", defaults.Backoff, "Wait between upstream reconnect attempts")
	maxFrameBytes := flag.Int("max-frame-bytes", defaults.MaxFrameBytes, "Frame buffer cap before forcing a reconnect")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log.Init(*logLevel)

	cam := camera.NewClient(*cameraURL)
	registry := relay.NewRegistry()
	broadcaster := relay.NewBroadcaster(registry)
	capture := relay.NewCapture(cam, broadcaster, *backoff, *maxFrameBytes)
	server := web.NewServer(*addr, registry, cam)

	capture.Start()
	log.Info("coopcam started", "camera", *cameraURL, "addr", *addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		capture.Stop()
		if err := server.Shutdown(); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}()

	if err := server.Listen(); err != nil {
		log.Error("server stopped", "error", err)
		capture.Stop()
		os.Exit(1)
	}

	log.Info("goodbye")
}
