package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"velocity/internal/logger"

	"github.com/davecgh/go-spew/spew"
	"github.com/getsentry/sentry-go"
)

const DefaultUploadTimeout = 5 * time.Second

type Options struct {
	BaseURL       string
	UploadTimeout time.Duration
	HTTPClient    *http.Client
	Logger        logger.Logger
}

// Client talks to the activity backend. It holds no per-request state and
// is safe for concurrent use.
type Client struct {
	baseURL       string
	uploadTimeout time.Duration
	http          *http.Client
	log           logger.Logger
}

func NewClient(opts Options) *Client {
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = DefaultUploadTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		uploadTimeout: opts.UploadTimeout,
		http:          opts.HTTPClient,
		log:           opts.Logger.With("component", "api"),
	}
}

// UploadActivity posts a finished activity. The call is bounded by the
// client's upload timeout on top of whatever deadline ctx carries.
func (c *Client) UploadActivity(ctx context.Context, payload ActivityUpload) (any, error) {
	url := c.baseURL + "/activities/upload"
	log := c.log.Action("upload")
	log.Info("uploading activity", "url", url, "points", len(payload.Points))
	log.Debug("upload payload", "payload", spew.Sdump(payload))

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling activity: %w", err)
	}

	span := sentry.StartSpan(ctx, "http.client", sentry.WithDescription("POST /activities/upload"))
	defer span.Finish()

	reqCtx, cancel := context.WithTimeout(span.Context(), c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		err = c.transportError("upload", url, ctx, reqCtx, err)
		log.Error("upload failed", err, "url", url)
		return nil, err
	}
	defer resp.Body.Close()
	span.Status = sentry.HTTPtoSpanStatus(resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = c.transportError("upload", url, ctx, reqCtx, err)
		log.Error("upload failed", err, "url", url)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &HTTPError{Op: "upload", StatusCode: resp.StatusCode, Body: string(data)}
		log.Error("upload rejected", err, "status", resp.StatusCode)
		return nil, err
	}

	var result any
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("decoding upload response: %w", err)
		}
	}
	log.Info("upload succeeded", "status", resp.StatusCode)
	return result, nil
}

// FetchMyActivities lists the activities owned by userID. Only ctx bounds
// this call; the client adds no timeout of its own.
func (c *Client) FetchMyActivities(ctx context.Context, userID int64) ([]ActivityResponse, error) {
	return c.fetchList(ctx, "/activities/me/"+strconv.FormatInt(userID, 10))
}

// FetchFeed returns the latest activities across all users.
func (c *Client) FetchFeed(ctx context.Context) ([]ActivityResponse, error) {
	return c.fetchList(ctx, "/activities/feed")
}

func (c *Client) fetchList(ctx context.Context, path string) ([]ActivityResponse, error) {
	url := c.baseURL + path
	log := c.log.Action("fetch")

	span := sentry.StartSpan(ctx, "http.client", sentry.WithDescription("GET "+path))
	defer span.Finish()

	req, err := http.NewRequestWithContext(span.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		err = &NetworkError{Op: "fetch", URL: url, Err: err}
		log.Error("fetch failed", err, "url", url)
		return nil, err
	}
	defer resp.Body.Close()
	span.Status = sentry.HTTPtoSpanStatus(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &HTTPError{Op: "fetch", StatusCode: resp.StatusCode}
		log.Error("fetch rejected", err, "url", url)
		return nil, err
	}

	activities := []ActivityResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decoding activities: %w", err)
	}
	return activities, nil
}

// CheckHealth queries the backend root. Failures are logged and reported as
// a nil result.
func (c *Client) CheckHealth(ctx context.Context) map[string]any {
	url := c.baseURL + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Warn("health check failed", "error", err.Error())
		return nil
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("health check failed", "error", err.Error())
		return nil
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Warn("health check failed", "error", err.Error(), "status", resp.StatusCode)
		return nil
	}
	return body
}

// transportError separates our own upload deadline from every other
// transport failure, including cancellation by the caller.
func (c *Client) transportError(op, url string, parent, reqCtx context.Context, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return ErrUploadTimeout
	}
	return &NetworkError{Op: op, URL: url, Err: err}
}
