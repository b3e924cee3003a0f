package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
	"github.com/noah-isme/sma-result-desk/pkg/middleware/requestid"
)

// TokenSource supplies bearer tokens for the remote service. Refresh is
// called at most once per original request; Invalidate is called when the
// refresh itself fails so the signed-in session can be discarded.
type TokenSource interface {
	AccessToken() string
	Refresh(ctx context.Context) (string, error)
	Invalidate(ctx context.Context)
}

// Observer receives one observation per remote round trip.
type Observer interface {
	ObserveRemoteCall(method, endpoint string, status int, duration time.Duration)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	AuthScheme string
	HTTPClient *http.Client
	Logger     *zap.Logger
	Observer   Observer
}

// Client is the authenticated transport shared by every remote repository.
type Client struct {
	baseURL    string
	authScheme string
	http       *http.Client
	tokens     TokenSource
	logger     *zap.Logger
	observer   Observer
}

// APIError is a non-2xx answer from the result service.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.StatusCode)
}

// New builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("httpclient: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("httpclient: invalid base url %q: %w", cfg.BaseURL, err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	scheme := cfg.AuthScheme
	if scheme == "" {
		scheme = "JWT"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authScheme: scheme,
		http:       httpClient,
		logger:     logger,
		observer:   cfg.Observer,
	}, nil
}

// SetTokenSource attaches the session that owns the bearer tokens.
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// Do performs an authenticated request, decoding a JSON answer into out when
// out is non-nil. A 401 triggers exactly one refresh-and-retry.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}

	token := ""
	if c.tokens != nil {
		token = c.tokens.AccessToken()
	}
	status, raw, err := c.roundTrip(ctx, method, path, payload, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && c.tokens != nil {
		refreshed, refreshErr := c.tokens.Refresh(ctx)
		if refreshErr != nil {
			c.logger.Warn("token refresh failed, clearing session", zap.Error(refreshErr))
			c.tokens.Invalidate(ctx)
			return appErrors.Wrap(refreshErr, appErrors.ErrSessionExpired.Code, appErrors.ErrSessionExpired.Status, appErrors.ErrSessionExpired.Message)
		}
		status, raw, err = c.roundTrip(ctx, method, path, payload, refreshed)
		if err != nil {
			return err
		}
	}

	return c.finish(method, path, status, raw, out)
}

// DoAnonymous performs a request without credentials and without the refresh
// policy. It is used for the token endpoints themselves.
func (c *Client) DoAnonymous(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	status, raw, err := c.roundTrip(ctx, method, path, payload, "")
	if err != nil {
		return err
	}
	return c.finish(method, path, status, raw, out)
}

// GetAll follows `next` links from path until exhausted, invoking each for
// every item of every page. The fetch only counts as complete once the last
// page has been consumed.
func (c *Client) GetAll(ctx context.Context, path string, each func(json.RawMessage) error) error {
	seen := make(map[string]struct{})
	next := path
	for next != "" {
		if _, loop := seen[next]; loop {
			return fmt.Errorf("pagination loop detected at %s", next)
		}
		seen[next] = struct{}{}

		var raw json.RawMessage
		if err := c.Do(ctx, http.MethodGet, next, nil, &raw); err != nil {
			return err
		}
		page, err := DecodePage(raw)
		if err != nil {
			return fmt.Errorf("decode page %s: %w", next, err)
		}
		for _, item := range page.Items {
			if err := each(item); err != nil {
				return err
			}
		}
		next = c.relative(page.Next)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, token string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", c.authScheme+" "+token)
	}
	req.Header.Set(requestid.HeaderKey, requestid.FromContext(ctx))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, path, 0, time.Since(start))
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.observe(method, path, resp.StatusCode, time.Since(start))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	c.logger.Debug("remote call", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Duration("latency", time.Since(start)))
	return resp.StatusCode, raw, nil
}

func (c *Client) finish(method, path string, status int, raw []byte, out interface{}) error {
	if status < 200 || status > 299 {
		return &APIError{Method: method, Path: path, StatusCode: status, Detail: ExtractDetail(raw), Body: raw}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) observe(method, path string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRemoteCall(method, EndpointLabel(path), status, d)
	}
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// relative strips the service origin from absolute pagination links so they
// resolve against the configured base url.
func (c *Client) relative(next string) string {
	if next == "" {
		return ""
	}
	if strings.HasPrefix(next, c.baseURL) {
		return strings.TrimPrefix(next, c.baseURL)
	}
	return next
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return payload, nil
}

// Page is one page of a list endpoint.
type Page struct {
	Items []json.RawMessage
	Next  string
}

// DecodePage accepts the list shapes the service returns: a bare array, a
// paginated {results, next} envelope, or an {assessments: [...]} wrapper.
func DecodePage(raw json.RawMessage) (Page, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Page{}, nil
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page{}, err
		}
		return Page{Items: items}, nil
	}
	var envelope struct {
		Results     []json.RawMessage `json:"results"`
		Assessments []json.RawMessage `json:"assessments"`
		Next        *string           `json:"next"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return Page{}, err
	}
	page := Page{Items: envelope.Results}
	if page.Items == nil {
		page.Items = envelope.Assessments
	}
	if envelope.Next != nil {
		page.Next = *envelope.Next
	}
	return page, nil
}

// ExtractDetail pulls a human readable message out of an error body: the
// `detail` field when present, otherwise the first message of each field.
func ExtractDetail(raw []byte) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}
	var withDetail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &withDetail); err == nil && withDetail.Detail != "" {
		return withDetail.Detail
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var msgs []string
		if err := json.Unmarshal(fields[k], &msgs); err == nil && len(msgs) > 0 {
			if k == "non_field_errors" {
				parts = append(parts, msgs[0])
			} else {
				parts = append(parts, k+": "+msgs[0])
			}
			continue
		}
		var msg string
		if err := json.Unmarshal(fields[k], &msg); err == nil && msg != "" {
			parts = append(parts, k+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

// EndpointLabel collapses numeric path segments so metric labels stay bounded.
func EndpointLabel(path string) string {
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg != "" && isDigits(seg) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
