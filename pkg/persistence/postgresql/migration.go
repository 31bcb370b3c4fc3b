package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE ai_agents (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL UNIQUE,
				type VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				config JSONB NOT NULL DEFAULT '{}',
				is_active BOOLEAN NOT NULL DEFAULT true,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE articles (
				id VARCHAR(255) PRIMARY KEY,
				title TEXT NOT NULL,
				slug VARCHAR(512) NOT NULL,
				excerpt TEXT NOT NULL DEFAULT '',
				content TEXT NOT NULL DEFAULT '',
				category VARCHAR(255) NOT NULL DEFAULT '',
				author VARCHAR(255) NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'published')),
				published_date TIMESTAMP WITH TIME ZONE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_articles_status ON articles(status);

			CREATE TABLE ai_suggestions (
				id VARCHAR(255) PRIMARY KEY,
				agent_id VARCHAR(255) NOT NULL REFERENCES ai_agents(id),
				target_type VARCHAR(50) NOT NULL,
				target_id VARCHAR(255),
				suggestion_data JSONB NOT NULL DEFAULT '{}',
				reasoning TEXT NOT NULL CHECK (reasoning <> ''),
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'implemented')),
				confidence_score DOUBLE PRECISION CHECK (confidence_score BETWEEN 0 AND 1),
				priority INTEGER CHECK (priority BETWEEN 1 AND 5),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				reviewed_at TIMESTAMP WITH TIME ZONE,
				reviewed_by VARCHAR(255),
				expires_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_ai_suggestions_status ON ai_suggestions(status);
			CREATE INDEX idx_ai_suggestions_agent_id ON ai_suggestions(agent_id);
			CREATE INDEX idx_ai_suggestions_created_at ON ai_suggestions(created_at);

			CREATE TABLE admin_actions_log (
				seq BIGSERIAL PRIMARY KEY,
				id VARCHAR(255) NOT NULL UNIQUE,
				admin_id VARCHAR(255) NOT NULL,
				suggestion_id VARCHAR(255) NOT NULL REFERENCES ai_suggestions(id),
				action_type VARCHAR(50) NOT NULL CHECK (action_type IN ('approve', 'reject', 'edit', 'dismiss')),
				original_data JSONB,
				modified_data JSONB,
				admin_reasoning TEXT,
				timestamp TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_admin_actions_log_suggestion_id ON admin_actions_log(suggestion_id);
		`,
		2: `
			CREATE TABLE workflow_rules (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				priority INTEGER NOT NULL DEFAULT 0,
				conditions JSONB NOT NULL DEFAULT '[]',
				actions JSONB NOT NULL DEFAULT '[]',
				enabled BOOLEAN NOT NULL DEFAULT true,
				trusted BOOLEAN NOT NULL DEFAULT false,
				execution_count INTEGER NOT NULL DEFAULT 0,
				success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_rules_enabled ON workflow_rules(enabled);

			CREATE TABLE workflow_executions (
				id VARCHAR(255) PRIMARY KEY,
				workflow_rule_id VARCHAR(255) NOT NULL,
				suggestion_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'executing', 'completed', 'failed')),
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				result JSONB,
				error_message TEXT
			);

			CREATE INDEX idx_workflow_executions_rule ON workflow_executions(workflow_rule_id);
			CREATE INDEX idx_workflow_executions_suggestion ON workflow_executions(suggestion_id);
		`,
		3: `
			CREATE TABLE tasks (
				id VARCHAR(255) PRIMARY KEY,
				type VARCHAR(50) NOT NULL CHECK (type IN ('review', 'admin')),
				title TEXT NOT NULL,
				suggestion_id VARCHAR(255),
				rule_id VARCHAR(255),
				due_at TIMESTAMP WITH TIME ZONE,
				status VARCHAR(50) NOT NULL CHECK (status IN ('open', 'due', 'done')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_tasks_status_due_at ON tasks(status, due_at);
		`,
	}
}
