package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create scenarios table
			CREATE TABLE scenarios (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				config JSONB,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'running', 'finished', 'failed')),
				result JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE,
				finished_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_scenarios_status ON scenarios(status);
			CREATE INDEX idx_scenarios_created_at ON scenarios(created_at);

			-- Create tasks table
			CREATE TABLE tasks (
				task_id UUID PRIMARY KEY,
				scenario_id UUID NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'running', 'finished', 'failed')),
				error TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE,
				finished_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_tasks_scenario_id ON tasks(scenario_id);
			CREATE INDEX idx_tasks_status ON tasks(status);
		`,
	}
}
