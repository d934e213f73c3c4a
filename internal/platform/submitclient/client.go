// Package submitclient posts completed questionnaires to the submission
// endpoint. A request is sent once; failures are reported, never retried.
package submitclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/postop/postop/internal/triage"
)

const submitPath = "/responses"

// Request is the wire body of the submission endpoint.
type Request struct {
	PatientID int64    `json:"patientId"`
	Answers   []string `json:"answers"`
}

// Result is the endpoint's reply on success.
type Result struct {
	Status     string `json:"status"`
	ResponseID int64  `json:"response_id"`
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("submission rejected with status %d", e.Code)
	}
	return fmt.Sprintf("submission rejected with status %d: %s", e.Code, e.Message)
}

type apiError struct {
	Message string `json:"message"`
}

type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: client, logger: logger}
}

// Submit sends the positional answers for one patient.
func (c *Client) Submit(ctx context.Context, patientID int64, answers []string) (*Result, error) {
	if len(answers) != triage.QuestionCount {
		return nil, fmt.Errorf("%w: expected %d answers, got %d",
			triage.ErrInvalidClinicalInput, triage.QuestionCount, len(answers))
	}

	var result Result
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(Request{PatientID: patientID, Answers: answers}).
		SetResult(&result).
		SetError(&apiErr).
		Post(submitPath)
	if err != nil {
		c.logger.Error().Err(err).Int64("patient_id", patientID).Msg("submission request failed")
		return nil, fmt.Errorf("post submission: %w", err)
	}
	if resp.IsError() {
		c.logger.Error().Int("status_code", resp.StatusCode()).Int64("patient_id", patientID).
			Str("message", apiErr.Message).Msg("submission rejected")
		return nil, &StatusError{Code: resp.StatusCode(), Message: apiErr.Message}
	}

	c.logger.Info().Int64("patient_id", patientID).Int64("response_id", result.ResponseID).Msg("submission accepted")
	return &result, nil
}
