// Package piston adapts the execution backend's run endpoint to the grader.
package piston

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/ports/secondary"
	"gitlab.com/assessment-grader.net/internal/domain"
	"gitlab.com/assessment-grader.net/internal/static/errs"
)

const executePath = "/api/piston/execute"

var _ secondary.CodeExecutor = (*Client)(nil)

type executeFile struct {
	Content string `json:"content"`
}

type executeRequest struct {
	Language string        `json:"language"`
	Version  string        `json:"version"`
	Files    []executeFile `json:"files"`
	Stdin    string        `json:"stdin"`
}

// newExecuteRequest pins the version to the latest installed runtime
func newExecuteRequest(r domain.ExecutionRequest) executeRequest {
	return executeRequest{
		Language: string(r.Language),
		Version:  "*",
		Files:    []executeFile{{Content: r.SourceCode}},
		Stdin:    r.Stdin,
	}
}

type runResult struct {
	Stdout *string  `json:"stdout"`
	Stderr *string  `json:"stderr"`
	Code   *int     `json:"code"`
	Time   *float64 `json:"time"`
	Memory *float64 `json:"memory"`
}

type executeResponse struct {
	Run runResult `json:"run"`
}

// Client calls the execution backend. The http client is expected to attach
// the bearer token, see oauth2.NewClient.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  primary.Logger
}

// NewClient creates an execution client; timeout bounds every single call
func NewClient(baseURL string, client *http.Client, timeout time.Duration, logger primary.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// Execute runs code once against stdin
func (c *Client) Execute(ctx context.Context, code string, language string, stdin string) (*domain.ExecutionResult, error) {
	lang, ok := domain.ParseLanguage(language)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnsupportedLanguage, language)
	}

	body, err := json.Marshal(newExecuteRequest(domain.ExecutionRequest{
		SourceCode: code,
		Language:   lang,
		Stdin:      stdin,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal execute request: %w", err)
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+executePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build execute request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// only our own deadline counts as a timeout, a cancelled caller is a transport failure
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			c.logger.Warn("Execution deadline exceeded", "language", lang, "timeout", c.timeout)
			return nil, errs.ErrExecutionTimeout
		}
		c.logger.Error("Failed to call execution backend", "error", err)
		return nil, &errs.ExecutionTransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("Execution backend rejected request", "statusCode", resp.StatusCode, "body", string(msg))
		return nil, &errs.ExecutionTransportError{StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(msg)))}
	}

	var decoded executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, errs.ErrExecutionTimeout
		}
		return nil, &errs.ExecutionTransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode execute response: %w", err)}
	}

	return normalize(decoded.Run), nil
}

func normalize(run runResult) *domain.ExecutionResult {
	status := domain.StatusIDRuntimeError
	// a missing exit code means the process was killed by a signal
	if run.Code != nil && *run.Code == 0 {
		status = domain.StatusIDAccepted
	}
	return &domain.ExecutionResult{
		Stdout:      run.Stdout,
		Stderr:      run.Stderr,
		StatusID:    status,
		ElapsedTime: run.Time,
		MemoryUsed:  run.Memory,
	}
}
