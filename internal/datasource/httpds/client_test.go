package httpds

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noWait(context.Context, time.Duration) error { return nil }

func fastClient(retries int, transport http.RoundTripper) *Client {
	c := NewClient(Config{MaxRetries: retries, Transport: transport})
	c.wait = noWait
	return c
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func respond(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{})
	assert.Zero(t, c.maxRetries)
	assert.Equal(t, 200*time.Millisecond, c.initialBackoff)
	assert.Equal(t, 5*time.Second, c.maxBackoff)
	assert.Zero(t, c.http.Timeout, "bodies stream without an overall deadline")

	transport, ok := c.http.Transport.(*http.Transport)
	require.True(t, ok, "got %T", c.http.Transport)
	assert.Equal(t, 30*time.Second, transport.ResponseHeaderTimeout)
}

func TestGet_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "placeetl", r.UserAgent())
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 3})
	c.wait = noWait
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestGet_Outcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		retries  int
		reply    func(n int32) (*http.Response, error)
		wantHits int32
		wantCode int
		wantErr  string
	}{
		{
			name:     "429 until retries run out",
			retries:  2,
			reply:    func(int32) (*http.Response, error) { return respond(http.StatusTooManyRequests, ""), nil },
			wantHits: 3,
			wantErr:  "retryable status 429",
		},
		{
			name:     "404 is final",
			retries:  3,
			reply:    func(int32) (*http.Response, error) { return respond(http.StatusNotFound, ""), nil },
			wantHits: 1,
			wantCode: http.StatusNotFound,
		},
		{
			name:    "transport error retried",
			retries: 1,
			reply: func(n int32) (*http.Response, error) {
				if n == 1 {
					return nil, errors.New("connection reset")
				}
				return respond(http.StatusOK, "ts\n"), nil
			},
			wantHits: 2,
			wantCode: http.StatusOK,
		},
		{
			name:     "no retries",
			retries:  0,
			reply:    func(int32) (*http.Response, error) { return nil, errors.New("connection refused") },
			wantHits: 1,
			wantErr:  "connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hits int32
			c := fastClient(tt.retries, roundTripFunc(func(*http.Request) (*http.Response, error) {
				return tt.reply(atomic.AddInt32(&hits, 1))
			}))
			resp, err := c.Get(context.Background(), "https://example.test/a.csv")
			assert.Equal(t, tt.wantHits, atomic.LoadInt32(&hits))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}
}

func TestGet_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := fastClient(0, nil).Get(context.Background(), "")
	assert.Error(t, err)
}

func TestGet_CanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var hits int32
	c := NewClient(Config{MaxRetries: 5, InitialBackoff: time.Hour, Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&hits, 1)
		cancel()
		return respond(http.StatusServiceUnavailable, ""), nil
	})})

	_, err := c.Get(ctx, "https://example.test/a.csv")
	require.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{5, time.Second},
		{64, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, backoff(100*time.Millisecond, tt.retry, time.Second), "retry %d", tt.retry)
	}
	assert.Equal(t, time.Second, backoff(2*time.Second, 0, time.Second))
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	for code, want := range map[int]bool{200: false, 404: false, 429: true, 500: true, 503: true, 599: true} {
		assert.Equal(t, want, retryable(code), "status %d", code)
	}
}

func TestRemoteOpen(t *testing.T) {
	t.Parallel()

	c := fastClient(0, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/missing.csv"):
			return respond(http.StatusNotFound, ""), nil
		case strings.HasSuffix(r.URL.Path, "/down.csv"):
			return nil, errors.New("connection refused")
		}
		return respond(http.StatusOK, "ts,color\n"), nil
	}))

	rc, err := NewRemote(c, "https://example.test/canvas.csv").Open(context.Background())
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "ts,color\n", string(body))

	_, err = NewRemote(c, "https://example.test/missing.csv").Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")

	_, err = NewRemote(c, "https://example.test/down.csv").Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
