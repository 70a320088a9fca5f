package email

import (
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

type Factory struct {
	config SMTPConfig
}

func NewFactory(config SMTPConfig) *Factory {
	return &Factory{config: config}
}

func (f *Factory) ID() string {
	return models.NodeTypeEmail
}

func (f *Factory) Name() string {
	return "Send Email"
}

func (f *Factory) Description() string {
	return "Sends an email through the configured SMTP server"
}

func (f *Factory) Create(nodeID string) (protocol.Executor, error) {
	return NewExecutor(nodeID, f.config), nil
}

func (f *Factory) OutputFields() []models.VariableField {
	return []models.VariableField{
		{Key: "to", Label: "Recipients", Type: "array"},
		{Key: "subject", Label: "Subject", Type: "string"},
		{Key: "sent", Label: "Sent flag", Type: "boolean"},
	}
}
