package gist

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foomo/gistkv/pkg/metrics"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	DefaultBaseURL   = "https://api.github.com"
	DefaultUserAgent = "gistkv"
)

// Client talks to the gist REST API
type (
	Client struct {
		l          *zap.Logger
		token      string
		baseURL    string
		userAgent  string
		httpClient *http.Client
		limiter    *rate.Limiter
	}
	ClientOption func(*Client)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewClient(l *zap.Logger, token string, opts ...ClientOption) *Client {
	inst := &Client{
		l:          l.Named("gist"),
		token:      token,
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithBaseURL(v string) ClientOption {
	return func(o *Client) {
		o.baseURL = strings.TrimRight(v, "/")
	}
}

func WithUserAgent(v string) ClientOption {
	return func(o *Client) {
		o.userAgent = v
	}
}

func WithHTTPClient(v *http.Client) ClientOption {
	return func(o *Client) {
		o.httpClient = v
	}
}

// WithRateLimit throttles outgoing requests. A zero limit disables throttling.
func WithRateLimit(limit rate.Limit, burst int) ClientOption {
	return func(o *Client) {
		if limit <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(limit, burst)
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Create creates a new gist holding the given files.
func (c *Client) Create(ctx context.Context, description string, public bool, files map[string]string) (*Gist, error) {
	payload := &createRequest{
		Description: description,
		Public:      public,
		Files:       fileContents(files),
	}
	body, err := c.do(ctx, "create", http.MethodPost, c.baseURL+"/gists", payload)
	if err != nil {
		return nil, err
	}
	return decodeGist(body)
}

// Get fetches the gist metadata including inline (possibly truncated) file content.
func (c *Client) Get(ctx context.Context, id string) (*Gist, error) {
	body, err := c.do(ctx, "get", http.MethodGet, c.gistURL(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeGist(body)
}

// Update overwrites the content of the given files. Files not named are left untouched.
func (c *Client) Update(ctx context.Context, id string, files map[string]string) (*Gist, error) {
	payload := &updateRequest{
		Files: fileContents(files),
	}
	body, err := c.do(ctx, "update", http.MethodPatch, c.gistURL(id), payload)
	if err != nil {
		return nil, err
	}
	return decodeGist(body)
}

// Delete removes the gist.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, c.gistURL(id), nil)
	return err
}

// Raw fetches the complete text of a file from its raw url. The token is only
// sent if the url points to the api host.
func (c *Client) Raw(ctx context.Context, rawURL string) ([]byte, error) {
	return c.do(ctx, "raw", http.MethodGet, rawURL, nil)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Client) gistURL(id string) string {
	return c.baseURL + "/gists/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, operation, method, target string, payload interface{}) (responseBytes []byte, err error) {
	start := time.Now()
	defer func() {
		result := "success"
		if err != nil {
			result = "error"
		}
		metrics.GistRequestCounter.WithLabelValues(operation, result).Inc()
		metrics.GistRequestDuration.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limit wait")
		}
	}

	var reqBody io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request")
		}
		reqBody = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if c.trusts(req.URL) {
		req.Header.Set("Authorization", "token "+c.token)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.l.Debug("request", zap.String("operation", operation), zap.String("method", method), zap.String("url", target))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, target)
	}
	defer resp.Body.Close()

	responseBytes, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respErr := &ResponseError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Scopes:     parseScopes(resp.Header.Get("X-OAuth-Scopes")),
			Body:       responseBytes,
		}
		var msg errorMessage
		if json.Unmarshal(responseBytes, &msg) == nil {
			respErr.Message = msg.Message
		}
		c.l.Debug("request failed",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("message", respErr.Message),
		)
		return nil, respErr
	}
	return responseBytes, nil
}

// trusts reports whether target is served by the api host
func (c *Client) trusts(target *url.URL) bool {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(base.Scheme, target.Scheme) && strings.EqualFold(base.Host, target.Host)
}

func decodeGist(data []byte) (*Gist, error) {
	g := &Gist{}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, errors.Wrap(err, "failed to decode gist")
	}
	return g, nil
}

func fileContents(files map[string]string) map[string]*FileContent {
	ret := make(map[string]*FileContent, len(files))
	for name, content := range files {
		ret[name] = &FileContent{Content: content}
	}
	return ret
}
