// Package camera talks to the upstream DroidCam device: the long-lived
// MJPEG stream it captures from, and the single control command the
// relay forwards on behalf of viewers.
package camera

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coopcam/coopcam/internal/httpc"
)

// Client is an HTTP client for one DroidCam device.
type Client struct {
	// BaseURL is the device root, e.g. "http://192.168.1.147:4747".
	BaseURL string

	// stream has no overall deadline; the /video body stays open for
	// hours. control keeps the shared defaults.
	stream  *http.Client
	control *http.Client
}

// NewClient returns a client for the camera at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		stream:  httpc.NewStreamClient(),
		control: httpc.Client,
	}
}

// Stream opens the camera's MJPEG endpoint and returns the response
// body: an unbounded sequence of concatenated JPEG images. Cancelling
// ctx aborts the dial and any blocked body read. The caller closes the
// body.
func (c *Client) Stream(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/video", nil)
	if err != nil {
		return nil, fmt.Errorf("create stream request: %w", err)
	}

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to camera stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("camera stream returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// ToggleTorch forwards the flashlight toggle command and returns the
// camera's status code and raw response body verbatim. DroidCam rejects
// the command without the browser-ish headers its own remote UI sends.
func (c *Client) ToggleTorch(ctx context.Context) (int, []byte, error) {
	url := c.BaseURL + "/v1/camera/torch_toggle"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create torch request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Origin", c.BaseURL)
	req.Header.Set("Referer", c.BaseURL+"/remote")

	resp, err := c.control.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("torch toggle failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read torch response: %w", err)
	}
	return resp.StatusCode, body, nil
}
