package llm

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/birdsql/birdsql/internal/errors"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultMaxTokens = 256
	defaultTimeout   = 60 * time.Second

	// The system message for chat-style refinement calls.
	systemPrompt = "You are a Text-to-SQL expert. Output only valid SQL code."
)

// DefaultStop are the stop sequences that end a completion at the first
// statement terminator or comment marker.
var DefaultStop = []string{";", "#", "--"}

// Config represents completion client configuration. Credentials are passed
// in explicitly; the client never reads or mutates process environment.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Stop        []string
	Timeout     time.Duration
}

// Client wraps single calls to a text-completion or chat-completion endpoint
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new completion client with the given configuration
func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.NewMissingAPIKeyError()
	}

	if config.Model == "" {
		return nil, errors.New(errors.ErrTypeConfig, "model is required")
	}

	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}

	if config.Stop == nil {
		config.Stop = DefaultStop
	}

	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Model returns the configured model identifier
func (c *Client) Model() string {
	return c.config.Model
}

type completionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// Complete performs one prompt-style completion call and returns the raw text
// of the first choice. The trailing SELECT primer in the prompt makes the
// model continue a SQL statement, so the text usually starts mid-statement.
func (c *Client) Complete(ctx context.Context, promptText string) (string, error) {
	reqBody := completionRequest{
		Model:       c.config.Model,
		Prompt:      promptText,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		Stop:        c.config.Stop,
	}

	respBody, err := c.makeRequest(ctx, "/completions", reqBody)
	if err != nil {
		return "", err
	}

	var response completionResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeCompletion, "failed to parse completion response")
	}

	if response.Error != nil {
		return "", classifyAPIError(response.Error)
	}

	if len(response.Choices) == 0 {
		return "", errors.New(errors.ErrTypeCompletion, "no choices in completion response")
	}

	return response.Choices[0].Text, nil
}

// Chat performs one chat-style completion call with the Text-to-SQL system
// message and returns the trimmed assistant reply.
func (c *Client) Chat(ctx context.Context, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.config.Temperature,
	}

	respBody, err := c.makeRequest(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var response chatResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeCompletion, "failed to parse chat response")
	}

	if response.Error != nil {
		return "", classifyAPIError(response.Error)
	}

	if len(response.Choices) == 0 {
		return "", errors.New(errors.ErrTypeCompletion, "no choices in chat response")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// makeRequest makes one HTTP request to the completion endpoint
func (c *Client) makeRequest(ctx context.Context, endpoint string, reqBody interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, errors.Wrap(err, errors.ErrTypeTimeout, "request timed out")
		}

		return nil, errors.Wrap(err, errors.ErrTypeCompletion, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeCompletion, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode, body)
	}

	return body, nil
}

func isTimeout(err error) bool {
	var netErr net.Error

	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// classifyHTTPError maps an error status to the retry taxonomy: 429 is a
// rate limit unless the body identifies quota exhaustion, which will not
// recover within this run; everything else is a transient completion error.
func classifyHTTPError(status int, body []byte) error {
	var errResp struct {
		Error *apiError `json:"error"`
	}

	_ = json.Unmarshal(body, &errResp)

	message := string(body)
	if errResp.Error != nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	if status == http.StatusTooManyRequests {
		if errResp.Error != nil && isQuotaExhaustion(errResp.Error) {
			return errors.Newf(errors.ErrTypeQuota, "quota exhausted: %s", message)
		}

		return errors.Newf(errors.ErrTypeRateLimit, "rate limited: %s", message)
	}

	if status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout {
		return errors.Newf(errors.ErrTypeTimeout, "endpoint timeout (status %d): %s", status, message)
	}

	return errors.Newf(errors.ErrTypeCompletion, "API request failed with status %d: %s", status, message)
}

func classifyAPIError(apiErr *apiError) error {
	if isQuotaExhaustion(apiErr) {
		return errors.Newf(errors.ErrTypeQuota, "quota exhausted: %s", apiErr.Message)
	}

	if apiErr.Type == "rate_limit_error" || apiErr.Code == "rate_limit_exceeded" {
		return errors.Newf(errors.ErrTypeRateLimit, "rate limited: %s", apiErr.Message)
	}

	return errors.Newf(errors.ErrTypeCompletion, "API error: %s", apiErr.Message)
}

func isQuotaExhaustion(apiErr *apiError) bool {
	return apiErr.Code == "insufficient_quota" || apiErr.Type == "insufficient_quota"
}

// String implements fmt.Stringer for debug logging without leaking the key
func (c Config) String() string {
	return fmt.Sprintf("llm.Config{model=%s base_url=%s max_tokens=%d}", c.Model, c.BaseURL, c.MaxTokens)
}
