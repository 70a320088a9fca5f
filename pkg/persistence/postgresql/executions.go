package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/persistence"
)

// SaveExecutionRecord upserts one per-node status row, keyed by execution,
// node, and start time so loop iterations of the same node stay distinct.
func (p *Persistence) SaveExecutionRecord(ctx context.Context, record *models.ExecutionRecord) error {
	output, err := json.Marshal(record.Output)
	if err != nil {
		return fmt.Errorf("failed to encode record output: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO execution_records
			(execution_id, workflow_id, node_id, node_type, status, output, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (execution_id, node_id, started_at) DO UPDATE SET
			status = EXCLUDED.status,
			output = EXCLUDED.output,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at`,
		record.ExecutionID, record.WorkflowID, record.NodeID, record.NodeType,
		record.Status, output, record.Error, record.StartedAt, record.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to save execution record: %w", err)
	}

	return nil
}

// ExecutionRecords returns the status rows of one execution ordered by start
// time.
func (p *Persistence) ExecutionRecords(ctx context.Context, executionID string) ([]*models.ExecutionRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT execution_id, workflow_id, node_id, node_type, status, output, error, started_at, finished_at
		FROM execution_records
		WHERE execution_id = $1
		ORDER BY started_at, node_id`, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution records: %w", err)
	}
	defer rows.Close()

	var records []*models.ExecutionRecord

	for rows.Next() {
		var (
			record models.ExecutionRecord
			output []byte
		)

		err := rows.Scan(&record.ExecutionID, &record.WorkflowID, &record.NodeID,
			&record.NodeType, &record.Status, &output, &record.Error,
			&record.StartedAt, &record.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution record: %w", err)
		}

		if len(output) > 0 {
			if err := json.Unmarshal(output, &record.Output); err != nil {
				return nil, fmt.Errorf("corrupt output column for execution %s: %w", executionID, err)
			}
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate execution records: %w", err)
	}

	if len(records) == 0 {
		return nil, persistence.ErrExecutionNotFound
	}

	return records, nil
}
