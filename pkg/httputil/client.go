package httputil

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/observability"
)

// maxBody caps the size of a fetched document.
const maxBody = 16 << 20

// Client fetches documents over HTTP.
type Client struct {
	http     *http.Client
	attempts int
	delay    time.Duration
}

// NewClient returns a client making up to attempts tries per request,
// waiting delay before the first retry. A nil hc uses a client with a 30s
// timeout.
func NewClient(hc *http.Client, attempts int, delay time.Duration) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{http: hc, attempts: max(attempts, 1), delay: delay}
}

// Get fetches url and returns the response body. Failures carry an
// errors.ErrCodeNotFound, ErrCodeNetwork or ErrCodeTimeout code.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := Retry(ctx, c.attempts, c.delay, func() error {
		b, err := c.get(ctx, url)
		body = b
		return err
	})
	if err != nil {
		var re *RetryableError
		if stderrors.As(err, &re) {
			return nil, re.Err
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad url %q", url)
	}
	host, path := req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "GET %s", url)
		}
		return nil, Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", url))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodeNotFound, "GET %s: %s", url, resp.Status)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, Retryable(errors.New(errors.ErrCodeNetwork, "GET %s: %s", url, resp.Status))
	case resp.StatusCode >= 300:
		return nil, errors.New(errors.ErrCodeNetwork, "GET %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", url))
	}
	if len(body) > maxBody {
		return nil, errors.New(errors.ErrCodeInvalidInput, "GET %s: body exceeds %d bytes", url, maxBody)
	}
	return body, nil
}
