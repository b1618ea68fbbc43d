// SPDX-License-Identifier: MIT

package urlgen

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mediagate/mediagate/internal/token"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func decodeFromURL(t *testing.T, rawURL, password string) *token.Payload {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	tok := u.Query().Get(TokenParam)
	require.NotEmpty(t, tok, "generated URL must carry a token parameter")
	p, err := token.Decode(tok, password)
	require.NoError(t, err)
	return p
}

func TestSingle(t *testing.T) {
	got, err := Single(Request{
		ProxyURL:       "https://proxy.example.com",
		Endpoint:       "proxy/stream",
		DestinationURL: "https://origin.example.com/video.mp4",
		QueryParams:    map[string]string{"quality": "1080p"},
		RequestHeaders: map[string]string{"referer": "https://player.example.com/"},
		APIPassword:    "pw",
		Filename:       "video.mp4",
	})
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "/proxy/stream", u.Path)
	assert.Equal(t, "1080p", u.Query().Get("quality"))
	assert.Equal(t, "pw", u.Query().Get(PasswordParam))

	p := decodeFromURL(t, got, "pw")
	assert.Equal(t, "https://origin.example.com/video.mp4", p.DestinationURL)
	assert.Equal(t, "video.mp4", p.Filename)
	// Header keys are canonicalized at merge time.
	assert.Equal(t, "https://player.example.com/", p.RequestHeaders["Referer"])
}

func TestSingleBasePathJoin(t *testing.T) {
	tests := []struct {
		name     string
		proxyURL string
		endpoint string
		wantPath string
	}{
		{"bare host", "http://localhost:8888", "proxy/stream", "/proxy/stream"},
		{"trailing slash", "http://localhost:8888/", "proxy/stream", "/proxy/stream"},
		{"leading slash endpoint", "http://localhost:8888", "/proxy/stream", "/proxy/stream"},
		{"base path", "http://localhost:8888/gate/", "/proxy/hls", "/gate/proxy/hls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Single(Request{
				ProxyURL:       tt.proxyURL,
				Endpoint:       tt.endpoint,
				DestinationURL: "https://origin.example.com/v.mp4",
			})
			require.NoError(t, err)
			u, err := url.Parse(got)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, u.Path)
		})
	}
}

func TestPasswordInjectionRules(t *testing.T) {
	t.Run("injected when absent", func(t *testing.T) {
		got, err := Single(Request{
			ProxyURL:       "https://proxy.example.com",
			Endpoint:       "proxy/stream",
			DestinationURL: "https://origin.example.com/v.mp4",
			APIPassword:    "shared",
		})
		require.NoError(t, err)
		p := decodeFromURL(t, got, "shared")
		assert.Equal(t, "shared", p.QueryParams[PasswordParam])
	})

	t.Run("item value wins", func(t *testing.T) {
		got, err := Single(Request{
			ProxyURL:       "https://proxy.example.com",
			Endpoint:       "proxy/stream",
			DestinationURL: "https://origin.example.com/v.mp4",
			QueryParams:    map[string]string{PasswordParam: "item-level"},
			APIPassword:    "shared",
		})
		require.NoError(t, err)
		p := decodeFromURL(t, got, "shared")
		assert.Equal(t, "item-level", p.QueryParams[PasswordParam])
	})

	t.Run("not injected without shared password", func(t *testing.T) {
		got, err := Single(Request{
			ProxyURL:       "https://proxy.example.com",
			Endpoint:       "proxy/stream",
			DestinationURL: "https://origin.example.com/v.mp4",
		})
		require.NoError(t, err)
		p := decodeFromURL(t, got, "")
		_, ok := p.QueryParams[PasswordParam]
		assert.False(t, ok)
	})
}

func TestSingleExpirationMustBeFuture(t *testing.T) {
	_, err := Single(Request{
		ProxyURL:       "https://proxy.example.com",
		Endpoint:       "proxy/stream",
		DestinationURL: "https://origin.example.com/v.mp4",
		Expiration:     time.Now().Add(-time.Minute),
	})
	assert.Error(t, err)
}

func batchRequest(n int) BatchRequest {
	req := BatchRequest{
		ProxyURL:    "https://proxy.example.com",
		APIPassword: "pw",
	}
	for i := 0; i < n; i++ {
		req.Items = append(req.Items, Item{
			Endpoint:       "proxy/stream",
			DestinationURL: fmt.Sprintf("https://origin.example.com/video-%d.mp4", i),
		})
	}
	return req
}

func TestBatchOrdering(t *testing.T) {
	urls, err := Batch(context.Background(), batchRequest(3))
	require.NoError(t, err)
	require.Len(t, urls, 3)

	for i, raw := range urls {
		p := decodeFromURL(t, raw, "pw")
		assert.Equal(t, fmt.Sprintf("https://origin.example.com/video-%d.mp4", i), p.DestinationURL)
	}
}

func TestBatchAtomicity(t *testing.T) {
	req := batchRequest(3)
	req.Items[1].DestinationURL = "not-a-url"

	urls, err := Batch(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, urls, "a failed batch must not return partial results")
	assert.Contains(t, err.Error(), "items[1]")
}

func TestBatchSharedDefaults(t *testing.T) {
	req := batchRequest(2)
	req.Expiration = time.Now().Add(time.Hour)
	req.IP = "10.0.0.0/8"

	urls, err := Batch(context.Background(), req)
	require.NoError(t, err)

	for _, raw := range urls {
		p := decodeFromURL(t, raw, "pw")
		assert.Equal(t, "10.0.0.0/8", p.IP)
		assert.Equal(t, req.Expiration.Unix(), p.Expiration)
		assert.Equal(t, "pw", p.APIPassword)
	}
}

func TestBatchEmpty(t *testing.T) {
	_, err := Batch(context.Background(), BatchRequest{ProxyURL: "https://proxy.example.com"})
	assert.Error(t, err)
}

func TestBatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Batch(ctx, batchRequest(64))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchConcurrentFanOut(t *testing.T) {
	urls, err := Batch(context.Background(), batchRequest(128))
	require.NoError(t, err)
	require.Len(t, urls, 128)

	seen := make(map[string]struct{}, len(urls))
	for i, raw := range urls {
		p := decodeFromURL(t, raw, "pw")
		assert.Equal(t, fmt.Sprintf("https://origin.example.com/video-%d.mp4", i), p.DestinationURL)
		seen[raw] = struct{}{}
	}
	assert.Len(t, seen, 128, "every generated URL must be distinct")
}
