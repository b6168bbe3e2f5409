package camera

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStreamReadsBody(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0x00, 0x01, 0xFF, 0xD9}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/video" {
			t.Errorf("stream path = %q, want /video", r.URL.Path)
		}
		w.Write(payload)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	body, err := c.Stream(context.Background())
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	defer body.Close()

	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("stream bytes altered in transit")
	}
}

func TestStreamNon200IsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	if _, err := c.Stream(context.Background()); err == nil {
		t.Fatal("Stream() succeeded on 503 response")
	}
}

func TestToggleTorchPassthrough(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/v1/camera/torch_toggle" {
			t.Errorf("path = %q, want /v1/camera/torch_toggle", r.URL.Path)
		}
		if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			t.Error("missing X-Requested-With header")
		}
		if r.Header.Get("Referer") == "" {
			t.Error("missing Referer header")
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("torch toggled"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	status, body, err := c.ToggleTorch(context.Background())
	if err != nil {
		t.Fatalf("ToggleTorch() error = %v", err)
	}
	if status != http.StatusAccepted {
		t.Errorf("status = %d, want %d", status, http.StatusAccepted)
	}
	if string(body) != "torch toggled" {
		t.Errorf("body = %q, want camera response verbatim", body)
	}
}

func TestToggleTorchConnectError(t *testing.T) {
	// Nothing listens here.
	c := NewClient("http://127.0.0.1:1")
	if _, _, err := c.ToggleTorch(context.Background()); err == nil {
		t.Fatal("ToggleTorch() succeeded with no camera")
	}
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://cam.local:4747/")
	if c.BaseURL != "http://cam.local:4747" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
}
