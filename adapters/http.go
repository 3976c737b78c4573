package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/brettbedarf/vfs"
	"github.com/brettbedarf/vfs/internal/util"
)

type HTTPMethod = string

const (
	HTTPMethodGet  HTTPMethod = "GET"
	HTTPMethodPost HTTPMethod = "POST"
)

// HTTPSourceConfig contains http-specific source request fields
type HTTPSourceConfig struct {
	URL     string            `json:"url"`
	Method  *HTTPMethod       `json:"method,omitempty"` // Default is GET
	Headers map[string]string `json:"headers,omitempty"`
}

// Doer is the part of *http.Client the provider needs
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPProvider implements [vfs.SourceProvider] for http(s) URLs.
// All sources it creates share its client.
type HTTPProvider struct {
	client Doer
}

var _ vfs.SourceProvider = (*HTTPProvider)(nil)

func NewHTTPProvider(client Doer) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{client: client}
}

func (p *HTTPProvider) NewSource(raw []byte) (vfs.Source, error) {
	var cfg HTTPSourceConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	u, err := validateURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	cfg.URL = u
	if cfg.Method != nil {
		switch m := strings.ToUpper(*cfg.Method); m {
		case HTTPMethodGet, HTTPMethodPost:
			cfg.Method = &m
		default:
			return nil, fmt.Errorf("unsupported method %q", *cfg.Method)
		}
	}
	return &HTTPSource{client: p.client, config: cfg}, nil
}

func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}
	if u.User != nil {
		return "", fmt.Errorf("invalid url %q: user info is not allowed, use headers", raw)
	}
	return u.String(), nil
}

// HTTPSource implements [vfs.Source] for a single URL
type HTTPSource struct {
	client Doer
	config HTTPSourceConfig
}

func (h *HTTPSource) URL() string {
	return h.config.URL
}

func (h *HTTPSource) method() HTTPMethod {
	return util.ValueOrDefault(h.config.Method, HTTPMethodGet)
}

func (h *HTTPSource) newRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, h.method(), h.config.URL, nil)
	if err != nil {
		return nil, err
	}

	// Add custom headers
	for k, v := range h.config.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Fetch retrieves the whole response body. Any non-2xx status is an error.
func (h *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	logger := util.GetLogger("HTTPSource.Fetch")

	req, err := h.newRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %s", req.Method, h.config.URL, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, h.config.URL, err)
	}
	logger.Debug().Str("url", h.config.URL).Int("bytes", len(data)).Msg("Fetched")
	return data, nil
}
