package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Client wraps resty with the retry behavior every Polymarket endpoint
// needs: bounded retries with backoff and Retry-After handling on 429.
// Proxy settings come from the environment (HTTP_PROXY / HTTPS_PROXY),
// which resty reads automatically.
type Client struct {
	client *resty.Client
}

// NewClient builds a client bound to one upstream host.
func NewClient(host string, timeout time.Duration) *Client {
	host = strings.TrimRight(host, "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(host).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp.StatusCode() == http.StatusTooManyRequests {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return seconds, nil
					}
				}
				return 5 * time.Second, nil
			}
			return 0, nil
		})

	return &Client{client: client}
}

// RequestOptions carries optional per-request headers and query parameters.
// Params values may be []string for repeated query keys.
type RequestOptions struct {
	Headers map[string]string
	Params  map[string]any
}

func (c *Client) newRequest(ctx context.Context) *resty.Request {
	r := c.client.R()
	if ctx != nil {
		r.SetContext(ctx)
	}
	r.SetHeader("Accept", "application/json")
	r.SetHeader("User-Agent", "polyfolio/1.0")
	return r
}

// Get issues a GET and decodes a 2xx JSON body into out.
func (c *Client) Get(ctx context.Context, endpoint string, opt *RequestOptions, out any) error {
	rc := c.newRequest(ctx)
	if opt != nil {
		for k, v := range opt.Headers {
			rc.SetHeader(k, v)
		}
		if opt.Params != nil {
			rc.SetQueryParamsFromValues(toValues(opt.Params))
		}
	}
	if out != nil {
		rc.SetResult(out)
	}

	resp, err := rc.Get(endpoint)
	if err != nil {
		return errors.Wrapf(err, "GET %s", endpoint)
	}
	if !resp.IsSuccess() {
		return errors.Errorf("GET %s: http %d: %s", endpoint, resp.StatusCode(), snippet(resp.Body()))
	}
	return nil
}

func toValues(m map[string]any) map[string][]string {
	v := make(map[string][]string, len(m))
	for k, val := range m {
		switch t := val.(type) {
		case []string:
			v[k] = t
		default:
			v[k] = []string{fmt.Sprint(val)}
		}
	}
	return v
}

// snippet trims an error body for logs; upstream error pages can be huge.
func snippet(b []byte) string {
	var body any
	if json.Unmarshal(b, &body) == nil && body != nil {
		b, _ = json.Marshal(body)
	}
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
