package web

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coopcam/coopcam/pkg/relay"
)

type fakeTorch struct {
	status int
	body   []byte
	err    error
}

func (f *fakeTorch) ToggleTorch(ctx context.Context) (int, []byte, error) {
	return f.status, f.body, f.err
}

func newTestServer(torch TorchToggler) (*Server, *relay.Registry) {
	r := relay.NewRegistry()
	return NewServer("127.0.0.1:0", r, torch), r
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(&fakeTorch{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `<img src="/video"`) {
		t.Error("index page does not embed the stream")
	}
}

func TestFlashlightPassthrough(t *testing.T) {
	s, _ := newTestServer(&fakeTorch{status: http.StatusAccepted, body: []byte("torch on")})

	req := httptest.NewRequest(http.MethodPut, "/api/flashlight", nil)
	req.Header.Set("Origin", "http://example.test")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want camera status relayed", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "torch on" {
		t.Errorf("body = %q, want camera body verbatim", body)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing permissive CORS header")
	}
}

func TestFlashlightUpstreamError(t *testing.T) {
	s, _ := newTestServer(&fakeTorch{err: errors.New("camera offline")})

	req := httptest.NewRequest(http.MethodPost, "/api/flashlight", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(body), "Error:") {
		t.Errorf("body = %q, want error text", body)
	}
}

func TestFlashlightOptions(t *testing.T) {
	s, _ := newTestServer(&fakeTorch{})

	req := httptest.NewRequest(http.MethodOptions, "/api/flashlight", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestVideoStreamDeliversParts(t *testing.T) {
	s, registry := newTestServer(&fakeTorch{})
	broadcaster := relay.NewBroadcaster(registry)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go s.app.Listener(ln)
	defer s.Shutdown()

	resp, err := http.Get("http://" + ln.Addr().String() + "/video")
	if err != nil {
		t.Fatalf("connect to stream: %v", err)
	}
	defer resp.Body.Close()

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/x-mixed-replace" {
		t.Fatalf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	if params["boundary"] != relay.Boundary {
		t.Fatalf("boundary = %q, want %q", params["boundary"], relay.Boundary)
	}
	if resp.Header.Get("Cache-Control") != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", resp.Header.Get("Cache-Control"))
	}

	// Wait for the handler to register its subscriber.
	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	frames := [][]byte{
		{0xFF, 0xD8, 0x11, 0xFF, 0xD9},
		{0xFF, 0xD8, 0x22, 0x22, 0xFF, 0xD9},
		{0xFF, 0xD8, 0x33, 0xFF, 0xD9},
	}
	for _, f := range frames {
		broadcaster.Broadcast(f)
	}

	// Read two full parts; the third frame supplies the boundary that
	// terminates the second.
	mr := multipart.NewReader(resp.Body, relay.Boundary)
	for i := 0; i < 2; i++ {
		part, err := mr.NextPart()
		if err != nil {
			t.Fatalf("part %d: %v", i, err)
		}
		if ct := part.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("part %d Content-Type = %q, want image/jpeg", i, ct)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			t.Fatalf("read part %d: %v", i, err)
		}
		if !bytes.Equal(data, frames[i]) {
			t.Errorf("part %d bytes differ from broadcast frame", i)
		}
	}
}

func TestShutdownReleasesViewers(t *testing.T) {
	s, registry := newTestServer(&fakeTorch{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go s.app.Listener(ln)

	resp, err := http.Get("http://" + ln.Addr().String() + "/video")
	if err != nil {
		t.Fatalf("connect to stream: %v", err)
	}
	defer resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	deadline = time.Now().Add(2 * time.Second)
	for registry.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer still registered after shutdown")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
