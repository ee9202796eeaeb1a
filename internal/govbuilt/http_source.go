package govbuilt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appErr "github.com/govbuilder/engine/pkg/errors"
	"github.com/govbuilder/engine/pkg/logger"
)

const (
	queryPath       = "/api/queries/GetAllContentItemsByContentType"
	maxResponseSize = 32 << 20
)

// HTTPSource fetches content items from the Orchard Core queries API.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

var _ Source = (*HTTPSource)(nil)

type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) { s.client.Timeout = d }
}

// WithRateLimit throttles outbound requests to rps per second; rps <= 0 disables it.
func WithRateLimit(rps float64) HTTPOption {
	return func(s *HTTPSource) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewHTTPSource validates baseURL and returns a source for it. A blank URL is
// a CodeConfiguration error.
func NewHTTPSource(baseURL string, opts ...HTTPOption) (*HTTPSource, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	s := &HTTPSource{
		baseURL: normalized,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NormalizeBaseURL trims whitespace and trailing slashes and requires an absolute http(s) URL.
func NormalizeBaseURL(raw string) (string, error) {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	if s == "" {
		return "", appErr.New(appErr.CodeConfiguration, "remote base URL is not configured")
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", appErr.Newf(appErr.CodeInvalid, "remote base URL %q must be an absolute http(s) URL", raw)
	}
	return s, nil
}

// EndpointURL builds the query URL for contentType.
func EndpointURL(baseURL string, contentType ContentType) string {
	params, _ := json.Marshal(map[string]string{"contentType": string(contentType)})
	return strings.TrimRight(baseURL, "/") + queryPath + "?parameters=" + url.QueryEscape(string(params))
}

// BaseURL returns the normalized base URL.
func (s *HTTPSource) BaseURL() string { return s.baseURL }

func (s *HTTPSource) Fetch(ctx context.Context, contentType ContentType) ([]ContentItem, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, appErr.Wrap(err, appErr.CodeUnavailable, "fetch cancelled")
		}
	}

	endpoint := EndpointURL(s.baseURL, contentType)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "build request failed")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "API request failed").WithMeta("content_type", string(contentType))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "read response failed").WithMeta("content_type", string(contentType))
	}
	logger.L().Debug("content items fetched",
		zap.String("content_type", string(contentType)),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, appErr.New(appErr.CodeUnavailable, fmt.Sprintf("API request failed: %s", resp.Status)).
			WithMeta("content_type", string(contentType)).
			WithMeta("status", resp.StatusCode)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, appErr.New(appErr.CodeUnavailable, "no response from server").WithMeta("content_type", string(contentType))
	}
	return ParseItems(contentType, body)
}
