// Package config provides configuration helpers for coopcam.
package config

import (
	"os"
	"time"
)

// Defaults for the relay. The camera address matches a DroidCam phone on
// the local network; override it with COOPCAM_CAMERA_URL or the -camera
// flag.
const (
	DefaultCameraURL     = "http://192.168.1.147:4747"
	DefaultListenAddr    = ":8443"
	DefaultBackoff       = time.Second
	DefaultMaxFrameBytes = 8 << 20
)

// Config holds the runtime settings consumed by cmd/coopcam.
type Config struct {
	// CameraURL is the base URL of the upstream camera, e.g.
	// "http://192.168.1.147:4747". The stream is read from
	// CameraURL + "/video".
	CameraURL string

	// ListenAddr is the address the relay serves viewers on.
	ListenAddr string

	// Backoff is the fixed wait between upstream reconnect attempts.
	Backoff time.Duration

	// MaxFrameBytes caps the extractor's accumulation buffer; an
	// upstream that exceeds it without completing a frame forces a
	// reconnect.
	MaxFrameBytes int
}

// Default returns a Config populated from the environment, falling back
// to the package defaults. Flags in main override these.
func Default() Config {
	return Config{
		CameraURL:     Env("COOPCAM_CAMERA_URL", DefaultCameraURL),
		ListenAddr:    Env("COOPCAM_ADDR", DefaultListenAddr),
		Backoff:       EnvDuration("COOPCAM_BACKOFF", DefaultBackoff),
		MaxFrameBytes: DefaultMaxFrameBytes,
	}
}

// Env returns the value of the named environment variable.
// Falls back to the provided default if not set.
func Env(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// EnvDuration returns the named environment variable parsed as a
// duration, or the fallback when unset or unparsable.
func EnvDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
