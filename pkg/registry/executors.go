package registry

import (
	"log/slog"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/ai"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/condition"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/email"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/httprequest"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/lognode"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/loop"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/merge"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/setfields"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/subworkflow"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/switchnode"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/trigger"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/wait"
)

// Config carries the worker-level settings the built-in executors need.
type Config struct {
	SMTP    email.SMTPConfig
	AI      ai.APIConfig
	Starter subworkflow.Starter
}

// RegisterDefaultExecutors registers the full built-in node set. Starter may
// be nil when subworkflow nodes are not needed (tests, the node test API).
func RegisterDefaultExecutors(r *Registry, logger *slog.Logger, cfg Config) {
	r.Register(trigger.NewWebhookFactory())
	r.Register(trigger.NewScheduleFactory())
	r.Register(trigger.NewManualFactory())
	r.Register(trigger.NewErrorFactory())

	r.Register(httprequest.NewFactory())
	r.Register(email.NewFactory(cfg.SMTP))
	r.Register(ai.NewFactory(cfg.AI))
	r.Register(setfields.NewFactory())
	r.Register(condition.NewFactory())
	r.Register(switchnode.NewFactory())
	r.Register(loop.NewFactory())
	r.Register(merge.NewFactory())
	r.Register(wait.NewFactory())
	r.Register(subworkflow.NewFactory(cfg.Starter))
	r.Register(lognode.NewFactory(logger))
}
