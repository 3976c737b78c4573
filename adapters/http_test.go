package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func createCfg(url string) []byte {
	return fmt.Appendf(nil, `{"type":"http","url":%q}`, url)
}

func TestHTTPProvider_NewSource(t *testing.T) {
	provider := NewHTTPProvider(&MockHTTPClient{})

	t.Run("URL validation", func(t *testing.T) {
		tests := []struct {
			url     string
			wantErr bool
			desc    string
		}{
			// Valid cases
			{"http://test.com", false, "basic HTTP URL"},
			{"https://test.com", false, "basic HTTPS URL"},
			{"  http://test.com   ", false, "URL with whitespace"},
			{"http://test.com/path?arg=1&arg2=2", false, "URL with path and query"},
			{"http://test.com:8080", false, "URL with port"},
			{"http://localhost:8080/test", false, "localhost with port"},
			{"http://123.123.123.123/test", false, "IP address"},
			{"http://mylocalnet/test", false, "single label hostname"},

			// Invalid cases
			{"", true, "empty string"},
			{" ", true, "whitespace only"},
			{"_", true, "invalid character"},
			{"ftp://test.com", true, "different scheme rejected"},
			{"test.com", true, "missing scheme"},
			{"http://", true, "missing host"},
			{"http://user@test.com/path", true, "URL with user info"},
		}

		for _, tt := range tests {
			t.Run(tt.desc, func(t *testing.T) {
				src, err := provider.NewSource(createCfg(tt.url))

				if tt.wantErr {
					assert.Error(t, err)
					assert.Nil(t, src)
				} else {
					require.NoError(t, err)
					require.NotNil(t, src)
					require.IsType(t, &HTTPSource{}, src)
					assert.Equal(t, strings.TrimSpace(tt.url), src.(*HTTPSource).URL())
				}
			})
		}
	})

	t.Run("method", func(t *testing.T) {
		src, err := provider.NewSource([]byte(`{"type":"http","url":"http://test.com","method":"post"}`))
		require.NoError(t, err)
		assert.Equal(t, HTTPMethodPost, src.(*HTTPSource).method())

		_, err = provider.NewSource([]byte(`{"type":"http","url":"http://test.com","method":"DELETE"}`))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := provider.NewSource([]byte(`{"url":`))
		assert.Error(t, err)
	})
}

func TestHTTPSource_Fetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = io.WriteString(w, "hello")
		case "/headers":
			_, _ = io.WriteString(w, r.Method+" "+r.Header.Get("X-Token"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	provider := NewHTTPProvider(srv.Client())

	t.Run("successful request", func(t *testing.T) {
		src, err := provider.NewSource(createCfg(srv.URL + "/ok"))
		require.NoError(t, err)

		data, err := src.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("with custom headers", func(t *testing.T) {
		raw := fmt.Appendf(nil, `{"type":"http","url":%q,"method":"POST","headers":{"X-Token":"abc"}}`, srv.URL+"/headers")
		src, err := provider.NewSource(raw)
		require.NoError(t, err)

		data, err := src.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "POST abc", string(data))
	})

	t.Run("non 2xx status", func(t *testing.T) {
		src, err := provider.NewSource(createCfg(srv.URL + "/missing"))
		require.NoError(t, err)

		data, err := src.Fetch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
		assert.Nil(t, data)
	})

	t.Run("canceled context", func(t *testing.T) {
		src, err := provider.NewSource(createCfg(srv.URL + "/ok"))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = src.Fetch(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHTTPSource_FetchNetworkError(t *testing.T) {
	t.Parallel()

	client := &MockHTTPClient{}
	expErr := errors.New("connection refused")
	client.On("Do", mock.AnythingOfType("*http.Request")).Return(nil, expErr)

	src, err := NewHTTPProvider(client).NewSource(createCfg("http://test.com/file"))
	require.NoError(t, err)

	_, err = src.Fetch(context.Background())
	assert.ErrorIs(t, err, expErr)
	client.AssertNumberOfCalls(t, "Do", 1)
}
