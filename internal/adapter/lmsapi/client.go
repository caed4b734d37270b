// Package lmsapi talks to the LMS backend REST API for assessments.
package lmsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/ports/secondary"
	"gitlab.com/assessment-grader.net/internal/domain"
	"gitlab.com/assessment-grader.net/internal/static/errs"
)

var _ secondary.AssessmentGateway = (*Client)(nil)

// Client implements the AssessmentGateway over HTTP. The http client is
// expected to attach the bearer token.
type Client struct {
	baseURL string
	client  *http.Client
	logger  primary.Logger
}

// NewClient creates a new LMS backend client
func NewClient(baseURL string, client *http.Client, logger primary.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

func (c *Client) assessmentURL(assessmentID string, suffix string) string {
	return fmt.Sprintf("%s/api/assessments/%s%s", c.baseURL, url.PathEscape(assessmentID), suffix)
}

// FetchAssessment loads an assessment with its schedule and questions
func (c *Client) FetchAssessment(ctx context.Context, assessmentID string) (*domain.Assessment, error) {
	resource := "assessment " + assessmentID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.assessmentURL(assessmentID, ""), nil)
	if err != nil {
		return nil, &errs.FetchError{Resource: resource, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &errs.FetchError{Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &errs.FetchError{Resource: resource, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(msg)))}
	}

	assessment, err := decodeAssessment(resp.Body)
	if err != nil {
		return nil, &errs.FetchError{Resource: resource, Err: err}
	}
	if assessment.ID == "" {
		assessment.ID = assessmentID
	}

	c.logger.Debug("Fetched assessment", "assessmentId", assessmentID, "status", assessment.Status, "questions", len(assessment.Questions))
	return assessment, nil
}

// decodeAssessment accepts both a bare assessment and one wrapped in
// {"assessment": ...} or {"data": ...}.
func decodeAssessment(r io.Reader) (*domain.Assessment, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read assessment body: %w", err)
	}

	var envelope struct {
		Assessment *json.RawMessage `json:"assessment"`
		Data       *json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		switch {
		case envelope.Assessment != nil:
			raw = *envelope.Assessment
		case envelope.Data != nil:
			raw = *envelope.Data
		}
	}

	var assessment domain.Assessment
	if err := json.Unmarshal(raw, &assessment); err != nil {
		return nil, fmt.Errorf("failed to decode assessment: %w", err)
	}
	return &assessment, nil
}

// ExpireAttempts force-completes every in-progress attempt of the assessment
func (c *Client) ExpireAttempts(ctx context.Context, assessmentID string) (*domain.ExpireResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.assessmentURL(assessmentID, "/expire-timer"), nil)
	if err != nil {
		return nil, &errs.ExpirationTransportError{AssessmentID: assessmentID, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &errs.ExpirationTransportError{AssessmentID: assessmentID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &errs.ExpirationTransportError{AssessmentID: assessmentID, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(msg)))}
	}

	var result domain.ExpireResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && !errors.Is(err, io.EOF) {
		return nil, &errs.ExpirationTransportError{AssessmentID: assessmentID, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode expire response: %w", err)}
	}

	c.logger.Info("Expire-timer accepted", "assessmentId", assessmentID, "updatedCount", result.UpdatedCount)
	return &result, nil
}
