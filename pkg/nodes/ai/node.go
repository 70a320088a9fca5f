// Package ai provides the model completion executor. It speaks the OpenAI
// chat-completions wire format, so any compatible endpoint works. The API key
// comes from worker configuration, never from node data.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

const (
	DefaultVariable = "ai"

	defaultModel   = "gpt-4o-mini"
	defaultBaseURL = "https://api.openai.com/v1"
	requestTimeout = 120 * time.Second
)

// APIConfig carries the worker-level model endpoint settings.
type APIConfig struct {
	BaseURL string
	APIKey  string
}

type Executor struct {
	nodeID string
	config APIConfig
	client *http.Client
}

func NewExecutor(nodeID string, config APIConfig) *Executor {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	return &Executor{
		nodeID: nodeID,
		config: config,
		client: &http.Client{Timeout: requestTimeout},
	}
}

func (e *Executor) Type() string {
	return models.NodeTypeAI
}

func (e *Executor) Execute(ctx context.Context, input protocol.ExecutionInput) (map[string]any, error) {
	input.Publish(e.nodeID, models.NodeStatusLoading, "")

	prompt, ok := input.Data["prompt"].(string)
	if !ok || prompt == "" {
		err := protocol.MissingFieldError("prompt")
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	model := defaultModel
	if m, ok := input.Data["model"].(string); ok && m != "" {
		model = m
	}

	system, _ := input.Data["system"].(string)

	result, err := input.Steps.Run(ctx, "complete-"+e.nodeID, func(stepCtx context.Context) (any, error) {
		return e.complete(stepCtx, model, system, prompt)
	})
	if err != nil {
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	input.Publish(e.nodeID, models.NodeStatusSuccess, "")

	return map[string]any{
		input.Variable(DefaultVariable): result,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e *Executor) complete(ctx context.Context, model, system, prompt string) (map[string]any, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}

	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	if err != nil {
		return nil, protocol.NewNonRetriableError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, protocol.NewNonRetriableError(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading model response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding model response: %w", err)
	}

	// Auth and request errors will not heal on retry; rate limits and
	// server errors might.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		message := resp.Status
		if parsed.Error != nil {
			message = parsed.Error.Message
		}

		return nil, protocol.NonRetriableErrorf("model API %d: %s", resp.StatusCode, message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model API returned %d", resp.StatusCode)
	}

	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("model API returned no choices")
	}

	return map[string]any{
		"response": parsed.Choices[0].Message.Content,
		"model":    model,
		"tokens":   parsed.Usage.TotalTokens,
	}, nil
}
