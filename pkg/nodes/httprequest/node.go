// Package httprequest provides the HTTP call executor.
package httprequest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

const (
	// DefaultVariable is the context entry downstream templates address,
	// e.g. {{ httpResponse.data }}.
	DefaultVariable = "httpResponse"

	defaultTimeout = 30 * time.Second
)

type Executor struct {
	nodeID string
	client *http.Client
}

func NewExecutor(nodeID string) *Executor {
	return &Executor{
		nodeID: nodeID,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

func (e *Executor) Type() string {
	return models.NodeTypeHTTPRequest
}

func (e *Executor) Execute(ctx context.Context, input protocol.ExecutionInput) (map[string]any, error) {
	input.Publish(e.nodeID, models.NodeStatusLoading, "")

	url, _ := input.Data["url"].(string)
	if url == "" {
		err := protocol.MissingFieldError("url")
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	method, _ := input.Data["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	method = strings.ToUpper(method)

	body, _ := input.Data["body"].(string)
	headers, _ := input.Data["headers"].(map[string]any)

	result, err := input.Steps.Run(ctx, "request-"+e.nodeID, func(ctx context.Context) (any, error) {
		return e.perform(ctx, method, url, body, headers)
	})
	if err != nil {
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	input.Publish(e.nodeID, models.NodeStatusSuccess, "")

	return map[string]any{input.Variable(DefaultVariable): result}, nil
}

// perform executes one HTTP exchange. Transport failures and 5xx responses
// are transient; 4xx responses mean the request itself is wrong and must not
// be retried.
func (e *Executor) perform(ctx context.Context, method, url, body string, headers map[string]any) (map[string]any, error) {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, protocol.NewNonRetriableError(fmt.Errorf("failed to build request: %w", err))
	}

	for key, value := range headers {
		if s, ok := value.(string); ok {
			req.Header.Set(key, s)
		}
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, protocol.NonRetriableErrorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	respHeaders := make(map[string]any, len(resp.Header))
	for name, values := range resp.Header {
		respHeaders[name] = strings.Join(values, ", ")
	}

	result := map[string]any{
		"status":  resp.StatusCode,
		"headers": respHeaders,
		"body":    string(respBody),
	}

	var data any
	if err := json.Unmarshal(respBody, &data); err == nil {
		result["data"] = data
	}

	return result, nil
}
