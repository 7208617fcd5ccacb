package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL CHECK(type IN ('bug', 'feature', 'improvement')),
	status      TEXT NOT NULL DEFAULT 'open'
	            CHECK(status IN ('open', 'in_progress', 'completed', 'blocked')),
	priority    TEXT NOT NULL DEFAULT 'medium'
	            CHECK(priority IN ('low', 'medium', 'high')),
	due_date    DATETIME,
	created_by  TEXT NOT NULL,
	assigned_to TEXT,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	deleted_at  DATETIME
);

CREATE TABLE IF NOT EXISTS task_dependencies (
	task_id         TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	prerequisite_id TEXT NOT NULL REFERENCES tasks(id),
	created_at      DATETIME NOT NULL,
	deleted_at      DATETIME,
	PRIMARY KEY (task_id, prerequisite_id)
);

CREATE TABLE IF NOT EXISTS task_status_updates (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	updated_by TEXT NOT NULL,
	status     TEXT NOT NULL
	           CHECK(status IN ('open', 'in_progress', 'completed', 'blocked')),
	created_at DATETIME NOT NULL,
	deleted_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_type ON tasks(type);
CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
CREATE INDEX IF NOT EXISTS idx_tasks_updated_at ON tasks(updated_at);
CREATE INDEX IF NOT EXISTS idx_deps_prerequisite ON task_dependencies(prerequisite_id);
CREATE INDEX IF NOT EXISTS idx_status_updates_task ON task_status_updates(task_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS comments (
	id          TEXT PRIMARY KEY,
	parent_type TEXT NOT NULL CHECK(parent_type IN ('task')),
	parent_id   TEXT NOT NULL,
	body        TEXT NOT NULL,
	comment_by  TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS attachments (
	id          TEXT PRIMARY KEY,
	parent_type TEXT NOT NULL CHECK(parent_type IN ('task')),
	parent_id   TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	file_path   TEXT NOT NULL,
	attached_by TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments(parent_type, parent_id);
CREATE INDEX IF NOT EXISTS idx_attachments_parent ON attachments(parent_type, parent_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
