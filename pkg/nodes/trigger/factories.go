package trigger

import (
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

type factory struct {
	id           string
	name         string
	description  string
	variable     string
	contextEntry string
	fields       []models.VariableField
}

func (f *factory) ID() string          { return f.id }
func (f *factory) Name() string        { return f.name }
func (f *factory) Description() string { return f.description }

func (f *factory) Create(nodeID string) (protocol.Executor, error) {
	return &Executor{
		nodeID:       nodeID,
		nodeType:     f.id,
		variable:     f.variable,
		contextEntry: f.contextEntry,
	}, nil
}

func (f *factory) OutputFields() []models.VariableField {
	return f.fields
}

// NewWebhookFactory serves nodes triggered by inbound HTTP events.
func NewWebhookFactory() protocol.ExecutorFactory {
	return &factory{
		id:           models.NodeTypeTriggerWebhook,
		name:         "Webhook Trigger",
		description:  "Starts the workflow when an HTTP request hits the node's webhook URL",
		variable:     models.TriggerVariable,
		contextEntry: models.TriggerVariable,
		fields: []models.VariableField{
			{Key: "body", Label: "Request body", Type: "object"},
			{Key: "headers", Label: "Request headers", Type: "object"},
			{Key: "timestamp", Label: "Received at", Type: "string"},
		},
	}
}

// NewScheduleFactory serves cron-scheduled entry nodes.
func NewScheduleFactory() protocol.ExecutorFactory {
	return &factory{
		id:           models.NodeTypeTriggerSchedule,
		name:         "Schedule Trigger",
		description:  "Starts the workflow on a cron schedule",
		variable:     models.TriggerVariable,
		contextEntry: models.TriggerVariable,
		fields: []models.VariableField{
			{Key: "firedAt", Label: "Fired at", Type: "string"},
			{Key: "timestamp", Label: "Timestamp", Type: "string"},
		},
	}
}

// NewManualFactory serves runs started directly by a user.
func NewManualFactory() protocol.ExecutorFactory {
	return &factory{
		id:           models.NodeTypeTriggerManual,
		name:         "Manual Trigger",
		description:  "Starts the workflow from a manual invocation payload",
		variable:     models.TriggerVariable,
		contextEntry: models.TriggerVariable,
		fields: []models.VariableField{
			{Key: "timestamp", Label: "Started at", Type: "string"},
		},
	}
}

// NewErrorFactory serves the out-of-band failure-handling entry nodes. The
// runner seeds their context from the failing node.
func NewErrorFactory() protocol.ExecutorFactory {
	return &factory{
		id:           models.NodeTypeTriggerError,
		name:         "Error Trigger",
		description:  "Starts a failure-handling branch when any node in the run fails",
		variable:     "error",
		contextEntry: "error",
		fields: []models.VariableField{
			{Key: "nodeId", Label: "Failed node", Type: "string"},
			{Key: "message", Label: "Error message", Type: "string"},
			{Key: "timestamp", Label: "Failed at", Type: "string"},
		},
	}
}
