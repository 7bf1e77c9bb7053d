// Package client talks to the job queue HTTP API.
//
// One APIClient is built by the application container and shared by every
// consumer. It keeps no per-request state, so it is safe for concurrent use.
// Calls are never retried or cached.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/graphboard/graphboard/custom_errors"
	"github.com/graphboard/graphboard/types"
)

// RequestIDHeader carries a per-request id so client and server logs can be matched.
const RequestIDHeader = "X-Request-Id"

type APIClient struct {
	base       *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
}

// NewAPIClient returns a client for the API mounted at baseURL, e.g.
// "http://localhost:8080/api". The request timeout defaults to DefaultTimeout.
func NewAPIClient(baseURL string, opts ...Option) (*APIClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")

	c := &APIClient{
		base:       base,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
		userAgent:  "graphboard",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root every path is resolved against.
func (c *APIClient) BaseURL() string {
	return c.base.String()
}

// ListJobs fetches one page of jobs. The returned Count is the number of rows
// matching the filters over all pages.
func (c *APIClient) ListJobs(ctx context.Context, params types.QueryParameters) (*types.JobList, error) {
	var list types.JobList
	if err := c.do(ctx, http.MethodGet, "/jobs", EncodeQuery(params), nil, &list); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if list.Jobs == nil {
		list.Jobs = []types.WireJob{}
	}
	return &list, nil
}

// CreateJob enqueues a job and returns it as stored by the server.
func (c *APIClient) CreateJob(ctx context.Context, draft types.JobDraft) (*types.WireJob, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	var job types.WireJob
	if err := c.do(ctx, http.MethodPost, "/jobs", nil, draft, &job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return &job, nil
}

// CompleteJobs marks the given jobs as done, removing them from the queue.
func (c *APIClient) CompleteJobs(ctx context.Context, jobIDs []int64) ([]types.WireJob, error) {
	body := struct {
		JobIDs []int64 `json:"jobIds"`
	}{JobIDs: jobIDs}
	var result struct {
		CompletedJobs []types.WireJob `json:"completedJobs"`
	}
	if err := c.do(ctx, http.MethodPost, "/jobs/complete", nil, body, &result); err != nil {
		return nil, fmt.Errorf("complete jobs: %w", err)
	}
	return result.CompletedJobs, nil
}

// PermanentlyFailJobs fails the given jobs with message so they are not retried.
func (c *APIClient) PermanentlyFailJobs(ctx context.Context, jobIDs []int64, message string) ([]types.WireJob, error) {
	body := struct {
		JobIDs        []int64 `json:"jobIds"`
		ErrorMessages string  `json:"errorMessages"`
	}{JobIDs: jobIDs, ErrorMessages: message}
	var result struct {
		PermanentlyFailedJobs []types.WireJob `json:"permanentlyFailedJobs"`
	}
	if err := c.do(ctx, http.MethodPost, "/jobs/permanently-fail", nil, body, &result); err != nil {
		return nil, fmt.Errorf("permanently fail jobs: %w", err)
	}
	return result.PermanentlyFailedJobs, nil
}

// RescheduleJobs changes run time, priority or attempt counters of jobs.
func (c *APIClient) RescheduleJobs(ctx context.Context, req types.RescheduleRequest) ([]types.WireJob, error) {
	if len(req.JobIDs) == 0 {
		return nil, errors.New("reschedule jobs: no job ids")
	}
	var result struct {
		RescheduledJobs []types.WireJob `json:"rescheduledJobs"`
	}
	if err := c.do(ctx, http.MethodPost, "/jobs/reschedule", nil, req, &result); err != nil {
		return nil, fmt.Errorf("reschedule jobs: %w", err)
	}
	return result.RescheduledJobs, nil
}

// RemoveJob deletes the pending job holding jobKey.
func (c *APIClient) RemoveJob(ctx context.Context, jobKey string) (*types.WireJob, error) {
	if jobKey == "" {
		return nil, errors.New("remove job: job key is required")
	}
	body := struct {
		JobKey string `json:"jobKey"`
	}{JobKey: jobKey}
	var job types.WireJob
	if err := c.do(ctx, http.MethodPost, "/jobs/remove", nil, body, &job); err != nil {
		return nil, fmt.Errorf("remove job: %w", err)
	}
	return &job, nil
}

// Ping checks the server is up. The ping route lives next to the API root,
// not under it.
func (c *APIClient) Ping(ctx context.Context) error {
	root := *c.base
	root.Path = strings.TrimSuffix(root.Path, DefaultBasePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root.JoinPath("/ping").String(), nil)
	if err != nil {
		return err
	}
	return c.send(req, "/ping", nil)
}

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.base.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	return c.send(req, path, out)
}

func (c *APIClient) send(req *http.Request, path string, out any) error {
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn("api request timed out",
				slog.String("method", req.Method),
				slog.String("path", path),
				slog.String("request_id", requestID),
			)
			return &custom_errors.TimeoutError{Method: req.Method, Path: path, Err: err}
		}
		return err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		if isTimeout(err) {
			return &custom_errors.TimeoutError{Method: req.Method, Path: path, Err: err}
		}
		return fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debug("api request",
		slog.String("method", req.Method),
		slog.String("path", path),
		slog.Int("status", res.StatusCode),
		slog.String("request_id", requestID),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &custom_errors.StatusError{
			Method:     req.Method,
			Path:       path,
			StatusCode: res.StatusCode,
			Body:       resBody,
		}
	}

	if out == nil || len(resBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(resBody, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
