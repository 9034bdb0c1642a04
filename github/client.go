package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sumitmalik51/gitsecureops/config"
	"github.com/sumitmalik51/gitsecureops/logger"
	"golang.org/x/time/rate"
)

const (
	acceptJSON      = "application/vnd.github+json"
	acceptTextMatch = "application/vnd.github.text-match+json"
	apiVersion      = "2022-11-28"

	// Responses larger than this abort the in-flight request.
	maxResponseBytes = 10 << 20

	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
)

// Client issues authenticated requests against the GitHub REST API and
// classifies failures into the package's error taxonomy. It performs no
// retries itself; retry policy lives in the paginated fetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     logger.Logger
}

func NewClient(logger logger.Logger, cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.GetRequestTimeout()},
		baseURL:    cfg.GetGitHubBaseURL(),
		// Courtesy throttle so fan-out bursts stay polite. Correctness
		// does not depend on it.
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		logger:  logger,
	}
}

func (c *Client) get(ctx context.Context, token, path string, params url.Values, accept string, out any) error {
	return c.do(ctx, http.MethodGet, token, path, params, accept, out)
}

func (c *Client) do(ctx context.Context, method, token, path string, params url.Values, accept string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Endpoint: path, Reason: err.Error()}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return &NetworkError{Endpoint: path, Reason: err.Error()}
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if accept == "" {
		accept = acceptJSON
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		reason := err.Error()
		if isTimeout(err) {
			reason = "timeout"
		}
		c.logger.Warn("github request failed", "path", path, "err", err.Error())
		return &NetworkError{Endpoint: path, Reason: reason}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp, path); err != nil {
		c.logger.Warn("github request rejected", "path", path, "status", resp.StatusCode)
		return err
	}

	if out == nil {
		return nil
	}

	body, err := readCapped(resp.Body)
	if err != nil {
		return &NetworkError{Endpoint: path, Reason: err.Error()}
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Warn("github response not parseable", "path", path, "err", err.Error())
		return &ParseError{Endpoint: path, Reason: err.Error()}
	}

	return nil
}

// delete issues a DELETE and expects 204.
func (c *Client) delete(ctx context.Context, token, path string) error {
	return c.do(ctx, http.MethodDelete, token, path, nil, "", nil)
}

func classifyStatus(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &UnauthorizedError{Endpoint: path}
	case http.StatusNotFound:
		return &NotFoundError{Endpoint: path}
	case http.StatusForbidden, http.StatusTooManyRequests:
		if resp.Header.Get(headerRateRemaining) == "0" {
			return &RateLimitedError{Endpoint: path, ResetAt: parseResetTime(resp.Header.Get(headerRateReset))}
		}
		if resp.StatusCode == http.StatusForbidden {
			return &ForbiddenError{Endpoint: path}
		}
	}

	return &NetworkError{Endpoint: path, StatusCode: resp.StatusCode}
}

func parseResetTime(header string) time.Time {
	epoch, err := strconv.ParseInt(header, 10, 64)
	if err != nil || epoch == 0 {
		// No usable reset hint, assume a short window.
		return time.Now().Add(time.Minute)
	}
	return time.Unix(epoch, 0)
}

func readCapped(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("response too large")
	}
	return data, nil
}

func isTimeout(err error) bool {
	type timeout interface {
		Timeout() bool
	}
	for e := err; e != nil; {
		if t, ok := e.(timeout); ok && t.Timeout() {
			return true
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return false
}
