// Package gitlab reads delivery events from the GitLab REST v4 API.
package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/huangsam/devflow/internal/contract"
)

const (
	defaultPerPage  = 100
	defaultAttempts = 4
	defaultDelay    = 500 * time.Millisecond
	maxPages        = 200
)

// StatusError is a non-2xx API response.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gitlab: %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Is makes a 404 match contract.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == contract.ErrNotFound && e.Code == http.StatusNotFound
}

// Temporary reports whether the request may succeed when repeated.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// Client talks to one GitLab instance.
type Client struct {
	base     *url.URL
	http     *http.Client
	token    string // sent as PRIVATE-TOKEN; empty with OAuth
	perPage  int
	attempts uint
	delay    time.Duration
	log      logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.delay = delay
	}
}

// WithPerPage sets the page size of list requests.
func WithPerPage(n int) Option {
	return func(c *Client) { c.perPage = n }
}

// WithLogger sets the logger for retried requests.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for baseURL. auth is contract.PrivateTokenAuth or contract.OAuthAuth.
func New(baseURL, token, auth string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/api/v4/")
	if err != nil {
		return nil, contract.NewValidationError("gitlab-url", "%v", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, contract.NewValidationError("gitlab-url", "scheme must be http or https, got %q", base.Scheme)
	}
	c := &Client{
		base:     base,
		http:     &http.Client{Timeout: 30 * time.Second},
		perPage:  defaultPerPage,
		attempts: defaultAttempts,
		delay:    defaultDelay,
		log:      contract.Log,
	}
	switch auth {
	case contract.OAuthAuth:
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		c.http = oauth2.NewClient(context.Background(), ts)
		c.http.Timeout = 30 * time.Second
	case "", contract.PrivateTokenAuth:
		c.token = token
	default:
		return nil, contract.NewValidationError("gitlab-auth", "unknown mode %q", auth)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimLeft(path, "/")})
	u.RawQuery = query.Encode()
	return u.String()
}

// do performs one GET with retries and decodes the body into out.
func (c *Client) do(ctx context.Context, endpoint string, out any) (http.Header, error) {
	var header http.Header
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/json")
			if c.token != "" {
				req.Header.Set("PRIVATE-TOKEN", c.token)
			}
			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				return &StatusError{Code: resp.StatusCode, URL: endpoint, Body: string(body)}
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("gitlab: decode %s: %w", endpoint, err)
			}
			header = resp.Header
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.log.WithFields(logrus.Fields{"attempt": n + 1, "url": endpoint}).WithError(err).Debug("retrying request")
		}),
	)
	return header, err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var syntax *json.SyntaxError
	return !errors.As(err, &syntax)
}

// get fetches a single object.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.do(ctx, c.endpoint(path, query), out)
	return err
}

// list fetches every page of a collection, following X-Next-Page.
func list[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("per_page", strconv.Itoa(c.perPage))
	var all []T
	page := "1"
	for range maxPages {
		query.Set("page", page)
		var batch []T
		header, err := c.do(ctx, c.endpoint(path, query), &batch)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		page = header.Get("X-Next-Page")
		if page == "" || len(batch) == 0 {
			return all, nil
		}
	}
	c.log.WithField("path", path).Warn("page limit reached, results truncated")
	return all, nil
}
