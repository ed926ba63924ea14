package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"discord_workflow/internal/logger"
)

const (
	runPath = "/v1/workflows/run"

	// DefaultTimeout bounds a blocking workflow run
	DefaultTimeout = 120 * time.Second

	responseModeBlocking = "blocking"
	statusFailed         = "failed"

	maxErrorBody = 512
)

// ErrorKind classifies a failed workflow run
type ErrorKind string

const (
	KindTimeout         ErrorKind = "timeout"
	KindRequestFailed   ErrorKind = "request_failed"
	KindInvalidResponse ErrorKind = "invalid_response"
)

// Error is returned by Run for every failure. Callers branch on Kind.
type Error struct {
	Kind  ErrorKind
	Cause string
}

func (e *Error) Error() string {
	if e.Cause == "" {
		return fmt.Sprintf("workflow %s", e.Kind)
	}
	return fmt.Sprintf("workflow %s: %s", e.Kind, e.Cause)
}

// Request is one workflow invocation
type Request struct {
	Inputs map[string]string
	User   string
	APIKey string
}

// Result is a successful blocking run
type Result struct {
	RunID   string
	Status  string
	Text    string
	Outputs map[string]any
}

// Runner executes workflows
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// Client calls the workflow run endpoint in blocking mode
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the API rooted at endpoint. A zero timeout uses DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type runRequest struct {
	Inputs       map[string]string `json:"inputs"`
	ResponseMode string            `json:"response_mode"`
	User         string            `json:"user"`
}

type runResponse struct {
	WorkflowRunID string `json:"workflow_run_id"`
	TaskID        string `json:"task_id"`
	Data          *struct {
		ID      string         `json:"id"`
		Status  string         `json:"status"`
		Outputs map[string]any `json:"outputs"`
		Error   *string        `json:"error"`
	} `json:"data"`
}

// Run posts the inputs and waits for the workflow to finish.
func (c *Client) Run(ctx context.Context, req Request) (Result, error) {
	logger.GetLogger().Info("running workflow", zap.Any("inputs", req.Inputs), zap.String("user", req.User))

	inputs := req.Inputs
	if inputs == nil {
		inputs = map[string]string{}
	}
	payload, err := json.Marshal(runRequest{
		Inputs:       inputs,
		ResponseMode: responseModeBlocking,
		User:         req.User,
	})
	if err != nil {
		return Result{}, &Error{Kind: KindRequestFailed, Cause: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+runPath, bytes.NewReader(payload))
	if err != nil {
		return Result{}, &Error{Kind: KindRequestFailed, Cause: err.Error()}
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			logger.GetLogger().Error("workflow request timed out", zap.Error(err))
			return Result{}, &Error{Kind: KindTimeout, Cause: err.Error()}
		}
		logger.GetLogger().Error("workflow request failed", zap.Error(err))
		return Result{}, &Error{Kind: KindRequestFailed, Cause: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return Result{}, &Error{Kind: KindTimeout, Cause: err.Error()}
		}
		return Result{}, &Error{Kind: KindRequestFailed, Cause: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cause := fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, excerpt(body))
		logger.GetLogger().Error("workflow request failed", zap.Int("status", resp.StatusCode), zap.String("body", excerpt(body)))
		return Result{}, &Error{Kind: KindRequestFailed, Cause: cause}
	}

	return parseRunResponse(body)
}

func parseRunResponse(body []byte) (Result, error) {
	var parsed runResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, &Error{Kind: KindInvalidResponse, Cause: fmt.Sprintf("decode response: %v", err)}
	}
	if parsed.Data == nil {
		return Result{}, &Error{Kind: KindInvalidResponse, Cause: "response has no data"}
	}
	if parsed.Data.Status == statusFailed {
		cause := "workflow run failed"
		if parsed.Data.Error != nil && *parsed.Data.Error != "" {
			cause = *parsed.Data.Error
		}
		return Result{}, &Error{Kind: KindRequestFailed, Cause: cause}
	}

	text, ok := parsed.Data.Outputs["text"].(string)
	if !ok {
		return Result{}, &Error{Kind: KindInvalidResponse, Cause: "response has no data.outputs.text"}
	}

	return Result{
		RunID:   parsed.WorkflowRunID,
		Status:  parsed.Data.Status,
		Text:    text,
		Outputs: parsed.Data.Outputs,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
