package postgresql

// migrations returns the schema migrations keyed by version.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflow_templates (
				id TEXT NOT NULL,
				version INTEGER NOT NULL DEFAULT 1,
				draft BOOLEAN NOT NULL DEFAULT FALSE,
				title TEXT NOT NULL DEFAULT '',
				document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (id, version, draft)
			);

			CREATE TABLE IF NOT EXISTS finished_instances (
				instance_id TEXT PRIMARY KEY,
				template_id TEXT NOT NULL,
				state TEXT NOT NULL,
				report JSONB NOT NULL,
				archived_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_finished_instances_template
				ON finished_instances (template_id);
		`,
	}
}
