// Package email provides the SMTP send executor. Server credentials come
// from worker configuration, never from node data.
package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

const DefaultVariable = "email"

// SMTPConfig carries the worker-level mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// sendFunc is swapped in tests to avoid a real SMTP dialog.
type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

type Executor struct {
	nodeID string
	config SMTPConfig
	send   sendFunc
}

func NewExecutor(nodeID string, config SMTPConfig) *Executor {
	return &Executor{nodeID: nodeID, config: config, send: smtp.SendMail}
}

func (e *Executor) Type() string {
	return models.NodeTypeEmail
}

func (e *Executor) Execute(ctx context.Context, input protocol.ExecutionInput) (map[string]any, error) {
	input.Publish(e.nodeID, models.NodeStatusLoading, "")

	to, subject, body, err := e.message(input.Data)
	if err != nil {
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	_, err = input.Steps.Run(ctx, "send-"+e.nodeID, func(_ context.Context) (any, error) {
		if sendErr := e.deliver(to, subject, body); sendErr != nil {
			return nil, sendErr
		}

		return map[string]any{"to": to, "subject": subject}, nil
	})
	if err != nil {
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	input.Publish(e.nodeID, models.NodeStatusSuccess, "")

	return map[string]any{
		input.Variable(DefaultVariable): map[string]any{
			"to":      to,
			"subject": subject,
			"sent":    true,
		},
	}, nil
}

func (e *Executor) message(data map[string]any) ([]string, string, string, error) {
	to, err := recipients(data["to"])
	if err != nil {
		return nil, "", "", err
	}

	subject, _ := data["subject"].(string)
	body, _ := data["body"].(string)

	return to, subject, body, nil
}

func recipients(raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, protocol.MissingFieldError("to")
		}

		parts := strings.Split(v, ",")
		to := make([]string, 0, len(parts))

		for _, part := range parts {
			if addr := strings.TrimSpace(part); addr != "" {
				to = append(to, addr)
			}
		}

		return to, nil
	case []any:
		to := make([]string, 0, len(v))

		for _, item := range v {
			if addr, ok := item.(string); ok && strings.TrimSpace(addr) != "" {
				to = append(to, strings.TrimSpace(addr))
			}
		}

		if len(to) == 0 {
			return nil, protocol.MissingFieldError("to")
		}

		return to, nil
	case nil:
		return nil, protocol.MissingFieldError("to")
	default:
		return nil, protocol.NonRetriableErrorf("invalid recipient type %T", raw)
	}
}

func (e *Executor) deliver(to []string, subject, body string) error {
	var auth smtp.Auth
	if e.config.Username != "" {
		auth = smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)
	}

	var msg strings.Builder

	msg.WriteString("From: " + e.config.From + "\r\n")
	msg.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := e.send(e.config.addr(), auth, e.config.From, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
