package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Remote is a data source that streams the body of a GET request.
type Remote struct {
	client *Client
	url    string
}

// NewRemote returns a Remote bound to url.
func NewRemote(client *Client, url string) *Remote { return &Remote{client: client, url: url} }

// Open issues the GET and returns the response body. Any status other than
// 200 is an error.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.client.Get(ctx, r.url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r.url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", r.url, resp.Status)
	}
	return resp.Body, nil
}
