// Package canvasclient talks to the Canvas LMS: one GraphQL query for the
// assignment metadata, authenticated attachment downloads, and rubric
// assessment posts.
package canvasclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"autograder/internal/grader/model"
	appErr "autograder/pkg/errors"
	"autograder/pkg/utils/logger"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultDownloadTries = 3
)

// Config holds Canvas connection settings.
type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
	// DownloadTries bounds transport-level retries of attachment GETs.
	// HTTP status failures are never retried.
	DownloadTries uint
}

// Client wraps the Canvas REST and GraphQL endpoints.
type Client struct {
	endpoint string
	rest     *resty.Client
	// files has no overall timeout so long attachment bodies can stream;
	// only the wait for response headers is bounded.
	files         *resty.Client
	downloadTries uint
}

// New creates a client authenticated with cfg.Token.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, appErr.ConfigError("canvas endpoint", "required")
	}
	if cfg.Token == "" {
		return nil, appErr.New(appErr.MissingCredentials)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DownloadTries == 0 {
		cfg.DownloadTries = DefaultDownloadTries
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	rest := resty.New().
		SetBaseURL(endpoint).
		SetAuthToken(cfg.Token).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	files := resty.New().
		SetBaseURL(endpoint).
		SetAuthToken(cfg.Token).
		SetTransport(&http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			TLSHandshakeTimeout:   cfg.Timeout,
			ResponseHeaderTimeout: cfg.Timeout,
		})
	return &Client{
		endpoint:      endpoint,
		rest:          rest,
		files:         files,
		downloadTries: cfg.DownloadTries,
	}, nil
}

// Endpoint returns the Canvas base URL without trailing slash.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchAssignment runs the assignment query once; no pagination or retry.
func (c *Client) FetchAssignment(ctx context.Context, assignmentID string) (*model.Assignment, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(graphQLRequest{
			Query:     assignmentQuery,
			Variables: map[string]interface{}{"assignmentId": assignmentID},
		}).
		Post("/api/graphql")
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.CanvasRequestFailed, "assignment query failed")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, appErr.Newf(appErr.CanvasRequestFailed, "assignment query returned HTTP %d", resp.StatusCode()).
			WithDetail("body", truncate(resp.String(), 512))
	}

	var out assignmentResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, appErr.Wrapf(err, appErr.CanvasRequestFailed, "decode assignment query failed")
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, appErr.Newf(appErr.CanvasQueryRejected, "assignment query rejected: %s", strings.Join(msgs, "; "))
	}
	if out.Data.Assignment == nil {
		return nil, appErr.Newf(appErr.AssignmentNotFound, "assignment %s not found", assignmentID)
	}
	return out.Data.Assignment.toModel(), nil
}

// DownloadAttachment opens the attachment body. The response must be HTTP
// 200 with a non-empty body. The caller closes the returned reader.
func (c *Client) DownloadAttachment(ctx context.Context, attachmentURL string) (io.ReadCloser, error) {
	body, err := backoff.Retry(ctx, func() (io.ReadCloser, error) {
		return c.download(ctx, attachmentURL)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.downloadTries),
	)
	if err != nil {
		var e *appErr.Error
		if errors.As(err, &e) {
			return nil, err
		}
		return nil, appErr.Wrapf(err, appErr.AttachmentDownloadFailed, "download attachment failed")
	}
	return body, nil
}

func (c *Client) download(ctx context.Context, attachmentURL string) (io.ReadCloser, error) {
	resp, err := c.files.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(attachmentURL)
	if err != nil {
		logger.Debug(ctx, "attachment download attempt failed", zap.Error(err))
		return nil, err
	}
	raw := resp.RawBody()
	if resp.StatusCode() != http.StatusOK {
		if raw != nil {
			_ = raw.Close()
		}
		return nil, backoff.Permanent(appErr.Newf(appErr.AttachmentDownloadFailed,
			"attachment download returned HTTP %d", resp.StatusCode()))
	}
	if raw == nil {
		return nil, backoff.Permanent(appErr.Newf(appErr.AttachmentDownloadFailed, "attachment response has no body"))
	}
	br := bufio.NewReader(raw)
	if _, err := br.Peek(1); err != nil {
		_ = raw.Close()
		if errors.Is(err, io.EOF) {
			return nil, backoff.Permanent(appErr.Newf(appErr.AttachmentDownloadFailed, "attachment response body is empty"))
		}
		return nil, err
	}
	return readCloser{Reader: br, Closer: raw}, nil
}

// PostResult is Canvas's answer to one assessment post.
type PostResult struct {
	StatusCode int
	Body       []byte
	// Errors is the raw "errors" field when present.
	Errors json.RawMessage
}

// Failed reports whether Canvas rejected the assessment.
func (r PostResult) Failed() bool {
	return len(r.Errors) > 0 || r.StatusCode < 200 || r.StatusCode >= 300
}

// PostAssessment posts one record to the rubric association of a course.
func (c *Client) PostAssessment(ctx context.Context, courseID, associationID string, record model.AssessmentRecord) (PostResult, error) {
	path := fmt.Sprintf("/api/v1/courses/%s/rubric_associations/%s/rubric_assessments",
		url.PathEscape(courseID), url.PathEscape(associationID))
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"rubric_assessment": record}).
		Post(path)
	if err != nil {
		return PostResult{}, appErr.Wrapf(err, appErr.CanvasRequestFailed, "post assessment failed").
			WithDetail("user_id", record.UserID)
	}
	result := PostResult{StatusCode: resp.StatusCode(), Body: resp.Body()}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(result.Body, &fields); err == nil {
		if errs, ok := fields["errors"]; ok && string(errs) != "null" {
			result.Errors = errs
		}
	}
	return result, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
