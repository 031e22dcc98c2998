// Package datasource opens the byte streams placeetl reads CSV from: local
// files, stdin ("-") and http(s) URLs. Compressed inputs (.gz, .zst) are
// decoded transparently.
package datasource

import (
	"context"
	"io"
	"strings"

	"placeetl/internal/datasource/file"
	"placeetl/internal/datasource/httpds"
)

// Source opens one input stream.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// For returns the Source for location. URLs are fetched with client, which
// may be nil for the default client.
func For(location string, client *httpds.Client) Source {
	l := strings.ToLower(location)
	if strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://") {
		if client == nil {
			client = httpds.NewClient(httpds.Config{MaxRetries: 3})
		}
		return httpds.NewRemote(client, location)
	}
	return file.NewLocal(location)
}

// Open opens location and wraps it in a decompressor when needed. The caller
// closes the result; closing it closes the underlying stream too.
func Open(ctx context.Context, location string, client *httpds.Client) (io.ReadCloser, error) {
	rc, err := For(location, client).Open(ctx)
	if err != nil {
		return nil, err
	}
	return Decompress(rc, location)
}
