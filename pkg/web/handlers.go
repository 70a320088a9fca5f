package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/events"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/harness"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/subworkflow"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/persistence"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/registry"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/workflow"
)

type APIHandlers struct {
	repository *workflow.Repository
	registry   *registry.Registry
	harness    *harness.Harness
	records    persistence.ExecutionRepository
	starter    subworkflow.Starter
	health     func(ctx fiber.Ctx) error
	validator  *validator.Validate
	logger     *slog.Logger
}

// NewAPIHandlers wires the REST surface. Starter dispatches webhook-triggered
// runs onto the event bus; p backs execution record lookups and the health
// check.
func NewAPIHandlers(
	repository *workflow.Repository,
	reg *registry.Registry,
	p persistence.Persistence,
	starter subworkflow.Starter,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		repository: repository,
		registry:   reg,
		harness:    harness.New(reg),
		records:    p,
		starter:    starter,
		health: func(c fiber.Ctx) error {
			return p.HealthCheck(c.Context())
		},
		validator: validator.New(),
		logger:    logger.With("module", "web"),
	}
}

// Register mounts every route on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	app.Get("/workflows", h.GetWorkflows)
	app.Post("/workflows", h.CreateWorkflow)
	app.Get("/workflows/:id", h.GetWorkflow)
	app.Put("/workflows/:id", h.UpdateWorkflow)
	app.Delete("/workflows/:id", h.DeleteWorkflow)
	app.Post("/workflows/:id/publish", h.PublishWorkflow)
	app.Post("/workflows/:id/run", h.RunWorkflow)

	app.Post("/webhook/:nodeId", h.Webhook)
	app.Post("/nodes/test", h.TestNode)
	app.Get("/node-types", h.GetNodeTypes)
	app.Get("/executions/:id", h.GetExecution)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.repository.FetchAll(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.repository.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.repository.Create(c.Context(), &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Owner:       req.Owner,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
	})
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidWorkflow) {
			return badRequest(c, err.Error())
		}

		return handleRepositoryError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.repository.FetchByID(c.Context(), id)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Nodes != nil {
		existing.Nodes = req.Nodes
	}

	if req.Edges != nil {
		existing.Edges = req.Edges
	}

	updated, err := h.repository.Update(c.Context(), id, existing)
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidWorkflow) {
			return badRequest(c, err.Error())
		}

		return handleRepositoryError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.repository.Delete(c.Context(), c.Params("id")); err != nil {
		return handleRepositoryError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PublishWorkflow(c fiber.Ctx) error {
	published, err := h.repository.Publish(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidWorkflow) {
			return badRequest(c, err.Error())
		}

		return handleRepositoryError(c, err)
	}

	return c.JSON(published)
}

// RunWorkflow starts a run through a manual trigger node. The optional body
// supplies the trigger payload and, when the workflow has several manual
// triggers, which one to enter through.
func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	wf, err := h.repository.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	if wf.Status != models.WorkflowStatusPublished {
		return badRequest(c, "Only published workflows can be run")
	}

	var req RunWorkflowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	triggerNodeID := req.TriggerNodeID
	if triggerNodeID == "" {
		for _, node := range wf.TriggerNodes() {
			if node.Type == models.NodeTypeTriggerManual {
				triggerNodeID = node.ID

				break
			}
		}
	}

	if triggerNodeID == "" {
		return badRequest(c, "Workflow has no manual trigger node")
	}

	node := wf.NodeByID(triggerNodeID)
	if node == nil || node.Type != models.NodeTypeTriggerManual {
		return badRequest(c, "Node "+triggerNodeID+" is not a manual trigger")
	}

	request := events.ExecutionRequested{
		BaseEvent:     events.NewBaseEvent(events.ExecutionRequestedEvent, wf.ID),
		TriggerNodeID: triggerNodeID,
		TriggerData:   req.Data,
	}

	if err := h.starter.RequestExecution(c.Context(), request); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":      "accepted",
		"workflow_id": wf.ID,
		"request_id":  request.ID,
	})
}

// Webhook accepts an inbound event for a webhook trigger node and requests a
// run of its workflow. The payload is best-effort JSON: an unparsable body
// becomes an empty object rather than a rejection, because the sender
// retrying an opaque webhook rarely helps anyone.
func (h *APIHandlers) Webhook(c fiber.Ctx) error {
	nodeID := c.Params("nodeId")

	owner, node, err := h.findWebhookNode(c, nodeID)
	if err != nil {
		return internalError(c, err)
	}

	if node == nil {
		return notFound(c, "No published workflow has webhook node "+nodeID)
	}

	payload := map[string]any{}
	if err := json.Unmarshal(c.Body(), &payload); err != nil && len(c.Body()) > 0 {
		h.logger.WarnContext(c.Context(), "Webhook payload is not a JSON object, using empty payload",
			"node_id", nodeID, "error", err)

		payload = map[string]any{}
	}

	if err := validatePayload(node, payload); err != nil {
		return unprocessable(c, err.Error())
	}

	headers := make(map[string]any)
	for key, values := range c.GetReqHeaders() {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	request := events.ExecutionRequested{
		BaseEvent:     events.NewBaseEvent(events.ExecutionRequestedEvent, owner.ID),
		TriggerNodeID: nodeID,
		TriggerData: map[string]any{
			"body":    payload,
			"headers": headers,
			"method":  http.MethodPost,
			"path":    c.Path(),
		},
	}

	if err := h.starter.RequestExecution(c.Context(), request); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":      "accepted",
		"workflow_id": owner.ID,
		"request_id":  request.ID,
	})
}

// findWebhookNode scans published workflows for the webhook trigger node.
func (h *APIHandlers) findWebhookNode(c fiber.Ctx, nodeID string) (*models.Workflow, *models.Node, error) {
	published, err := h.repository.FetchPublished(c.Context())
	if err != nil {
		return nil, nil, err
	}

	for _, wf := range published {
		node := wf.NodeByID(nodeID)
		if node != nil && node.Type == models.NodeTypeTriggerWebhook {
			return wf, node, nil
		}
	}

	return nil, nil, nil
}

// TestNode executes one node type synchronously against a mock context and
// returns its output and status events. Side effects run for real.
func (h *APIHandlers) TestNode(c fiber.Ctx) error {
	var req TestNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	mockContext := req.Context
	if mockContext == nil {
		var err error

		mockContext, err = h.harness.MockContext(req.Type)
		if err != nil {
			return notFound(c, err.Error())
		}
	}

	result, err := h.harness.TestNode(c.Context(), req.Type, req.Data, mockContext)

	response := fiber.Map{
		"output": result.Output,
		"events": result.Events,
	}
	if err != nil {
		response["error"] = err.Error()
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	types := make([]NodeTypeResponse, 0)

	for _, nodeType := range h.registry.NodeTypes() {
		factory, ok := h.registry.Factory(nodeType)
		if !ok {
			continue
		}

		types = append(types, NodeTypeResponse{
			Type:         nodeType,
			Category:     models.Category(nodeType),
			Name:         factory.Name(),
			Description:  factory.Description(),
			OutputFields: factory.OutputFields(),
		})
	}

	return c.JSON(fiber.Map{"node_types": types})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	records, err := h.records.ExecutionRecords(c.Context(), c.Params("id"))
	if err != nil {
		if persistence.IsNotFound(err) {
			return notFound(c, "Execution not found")
		}

		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"execution_id": c.Params("id"),
		"records":      records,
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := fiber.StatusOK

	if err := h.health(c); err != nil {
		status = "unhealthy"
		httpStatus = fiber.StatusInternalServerError

		h.logger.ErrorContext(c.Context(), "Health check failed", "error", err)
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}
