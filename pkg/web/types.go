// Package web provides the REST API: workflow management, webhook ingress,
// the single-node test endpoint, and execution record lookups.
package web

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
)

// CreateWorkflowRequest is the request body for creating a workflow. The full
// graph is accepted up front; the repository validates its shape.
type CreateWorkflowRequest struct {
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Owner       string         `json:"owner"       validate:"required"`
	Nodes       []*models.Node `json:"nodes"       validate:"required,min=1"`
	Edges       []*models.Edge `json:"edges"`
}

// UpdateWorkflowRequest replaces a workflow's definition. Fields are optional
// to support partial updates; the graph is replaced wholesale when present.
type UpdateWorkflowRequest struct {
	Name        *string        `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string        `json:"description,omitempty"`
	Nodes       []*models.Node `json:"nodes,omitempty"`
	Edges       []*models.Edge `json:"edges,omitempty"`
}

// RunWorkflowRequest starts a run through a manual trigger node.
type RunWorkflowRequest struct {
	TriggerNodeID string         `json:"trigger_node_id,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

// TestNodeRequest runs one node type against a mock context without a
// workflow. Context defaults to the type's sample context when omitted.
type TestNodeRequest struct {
	Type    string         `json:"type"    validate:"required"`
	Data    map[string]any `json:"data"`
	Context map[string]any `json:"context"`
}

// NodeTypeResponse describes one registered node type to the editor.
type NodeTypeResponse struct {
	Type         string                 `json:"type"`
	Category     models.CategoryType    `json:"category"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	OutputFields []models.VariableField `json:"output_fields"`
}

// payloadSchemaField is the optional webhook node setting holding a JSON
// schema the inbound payload must satisfy.
const payloadSchemaField = "payload_schema"

// validatePayload checks a webhook payload against the node's optional JSON
// schema. A node without a schema accepts everything.
func validatePayload(node *models.Node, payload map[string]any) error {
	schema, ok := node.Data[payloadSchemaField].(map[string]any)
	if !ok {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(payload),
	)
	if err != nil {
		return fmt.Errorf("invalid payload schema on node %s: %w", node.ID, err)
	}

	if result.Valid() {
		return nil
	}

	detail := "payload rejected by schema"
	if errs := result.Errors(); len(errs) > 0 {
		detail = errs[0].String()
	}

	return fmt.Errorf("%s", detail)
}
