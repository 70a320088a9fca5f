package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Get reads a committed step result.
func (p *Persistence) Get(ctx context.Context, executionID, stepName string) (json.RawMessage, bool, error) {
	var result json.RawMessage

	err := p.db.QueryRowContext(ctx,
		"SELECT result FROM step_results WHERE execution_id = $1 AND step_name = $2",
		executionID, stepName).Scan(&result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to read step result: %w", err)
	}

	return result, true, nil
}

// Put commits a step result. Commits are idempotent: re-putting the same step
// overwrites with the newer payload.
func (p *Persistence) Put(ctx context.Context, executionID, stepName string, result json.RawMessage) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO step_results (execution_id, step_name, result)
		VALUES ($1, $2, $3)
		ON CONFLICT (execution_id, step_name) DO UPDATE SET result = EXCLUDED.result`,
		executionID, stepName, result)
	if err != nil {
		return fmt.Errorf("failed to commit step result: %w", err)
	}

	return nil
}
