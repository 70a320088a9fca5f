package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'published', 'archived')),
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				owner VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_owner ON workflows(owner);
		`,
		2: `
			CREATE TABLE execution_records (
				execution_id VARCHAR(255) NOT NULL,
				workflow_id VARCHAR(255) NOT NULL,
				node_id VARCHAR(255) NOT NULL,
				node_type VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				output JSONB,
				error TEXT,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE,
				PRIMARY KEY (execution_id, node_id, started_at)
			);

			CREATE INDEX idx_execution_records_execution ON execution_records(execution_id);
			CREATE INDEX idx_execution_records_workflow ON execution_records(workflow_id);
			CREATE INDEX idx_execution_records_status ON execution_records(status);
		`,
		3: `
			CREATE TABLE step_results (
				execution_id VARCHAR(255) NOT NULL,
				step_name VARCHAR(255) NOT NULL,
				result JSONB NOT NULL,
				committed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (execution_id, step_name)
			);

			CREATE INDEX idx_step_results_execution ON step_results(execution_id);
		`,
	}
}
