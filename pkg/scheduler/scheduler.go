// Package scheduler fires execution requests for schedule trigger nodes of
// published workflows. One process-wide cron table is kept in sync with the
// stored workflows; each due entry publishes an ExecutionRequested event, so
// scheduled runs flow through the same bus path as webhooks.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/events"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/subworkflow"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/workflow"
)

// CronField is the schedule trigger node setting holding the cron expression.
const CronField = "cron"

const defaultRefreshInterval = time.Minute

// Scheduler keeps the cron table aligned with published workflows.
type Scheduler struct {
	repository *workflow.Repository
	starter    subworkflow.Starter
	logger     *slog.Logger
	cron       *cron.Cron
	refresh    time.Duration

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// Option tweaks scheduler behavior.
type Option func(*Scheduler)

// WithRefreshInterval overrides how often the schedule table is re-synced
// against the stored workflows.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.refresh = d }
}

func New(repository *workflow.Repository, starter subworkflow.Starter, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		repository: repository,
		starter:    starter,
		logger:     logger.With("module", "scheduler"),
		cron:       cron.New(),
		refresh:    defaultRefreshInterval,
		entries:    make(map[string]cron.EntryID),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start syncs the schedule table, starts the cron loop, and keeps re-syncing
// until the context is cancelled. Blocks until then.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Sync(ctx); err != nil {
		return fmt.Errorf("initial schedule sync failed: %w", err)
	}

	s.cron.Start()
	defer s.cron.Stop()

	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Schedule sync failed", "error", err)
			}
		}
	}
}

// Sync aligns the cron table with the schedule trigger nodes of published
// workflows: new entries are added, stale ones removed. A changed cron
// expression shows up as a remove plus an add because the expression is part
// of the entry key.
func (s *Scheduler) Sync(ctx context.Context) error {
	published, err := s.repository.FetchPublished(ctx)
	if err != nil {
		return err
	}

	wanted := make(map[string]scheduleEntry)

	for _, wf := range published {
		for _, node := range wf.Nodes {
			if node.Type != models.NodeTypeTriggerSchedule || node.Disabled {
				continue
			}

			expression, _ := node.Data[CronField].(string)
			if expression == "" {
				s.logger.WarnContext(ctx, "Schedule trigger has no cron expression, skipping",
					"workflow_id", wf.ID, "node_id", node.ID)

				continue
			}

			entry := scheduleEntry{workflowID: wf.ID, nodeID: node.ID, expression: expression}
			wanted[entry.key()] = entry
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entryID := range s.entries {
		if _, keep := wanted[key]; keep {
			continue
		}

		s.cron.Remove(entryID)
		delete(s.entries, key)
		s.logger.InfoContext(ctx, "Removed schedule", "key", key)
	}

	for key, entry := range wanted {
		if _, exists := s.entries[key]; exists {
			continue
		}

		entryID, err := s.cron.AddFunc(entry.expression, func() {
			s.fire(entry.workflowID, entry.nodeID)
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "Invalid cron expression, skipping schedule",
				"workflow_id", entry.workflowID, "node_id", entry.nodeID,
				"cron", entry.expression, "error", err)

			continue
		}

		s.entries[key] = entryID
		s.logger.InfoContext(ctx, "Registered schedule",
			"workflow_id", entry.workflowID, "node_id", entry.nodeID, "cron", entry.expression)
	}

	return nil
}

// Entries reports how many schedules are currently registered.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// fire publishes the execution request for one due schedule.
func (s *Scheduler) fire(workflowID, nodeID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	request := events.ExecutionRequested{
		BaseEvent:     events.NewBaseEvent(events.ExecutionRequestedEvent, workflowID),
		TriggerNodeID: nodeID,
		TriggerData: map[string]any{
			"firedAt": time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := s.starter.RequestExecution(ctx, request); err != nil {
		s.logger.ErrorContext(ctx, "Failed to request scheduled execution",
			"workflow_id", workflowID, "node_id", nodeID, "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Requested scheduled execution",
		"workflow_id", workflowID, "node_id", nodeID)
}

type scheduleEntry struct {
	workflowID string
	nodeID     string
	expression string
}

func (e scheduleEntry) key() string {
	return e.workflowID + "/" + e.nodeID + "@" + e.expression
}
