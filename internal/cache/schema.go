package cache

// schema is the derived cache's relational layout, modeled directly on
// the teacher's internal/storage/sqlite schema: a row-per-entity table
// plus one extension table per type, two relation indexes (by-source and
// by-target, expressed here as indexes over a single relations table
// rather than duplicated tables), an FTS5 virtual table, and an
// embeddings table keyed by entity id (§4.C).
const schema = `
CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	sequence INTEGER NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	author TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type);
CREATE INDEX IF NOT EXISTS idx_entities_updated_at ON entities(updated_at);

CREATE TABLE IF NOT EXISTS decisions (
	id TEXT PRIMARY KEY REFERENCES entities(id) ON DELETE CASCADE,
	status TEXT NOT NULL,
	context TEXT NOT NULL DEFAULT '',
	consequences TEXT NOT NULL DEFAULT '[]',
	superseded_by TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY REFERENCES entities(id) ON DELETE CASCADE,
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	due_date TEXT NOT NULL DEFAULT '',
	assignee TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);

CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY REFERENCES entities(id) ON DELETE CASCADE,
	note_type TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS prompts (
	id TEXT PRIMARY KEY REFERENCES entities(id) ON DELETE CASCADE,
	template TEXT NOT NULL DEFAULT '',
	variables TEXT NOT NULL DEFAULT '[]',
	output_schema TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS components (
	id TEXT PRIMARY KEY REFERENCES entities(id) ON DELETE CASCADE,
	component_type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	owner TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS links (
	id TEXT PRIMARY KEY REFERENCES entities(id) ON DELETE CASCADE,
	url TEXT NOT NULL,
	link_type TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS relations (
	source_id TEXT NOT NULL,
	source_type TEXT NOT NULL,
	target_id TEXT NOT NULL,
	target_type TEXT NOT NULL,
	relation_type TEXT NOT NULL,
	created_at TEXT NOT NULL,
	author TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (source_id, relation_type, target_id)
);

CREATE INDEX IF NOT EXISTS idx_relations_by_source ON relations(source_id, relation_type);
CREATE INDEX IF NOT EXISTS idx_relations_by_target ON relations(target_id, relation_type);

CREATE VIRTUAL TABLE IF NOT EXISTS entities_fts USING fts5(
	id UNINDEXED,
	title,
	content,
	tags
);

CREATE TABLE IF NOT EXISTS embeddings (
	id TEXT PRIMARY KEY REFERENCES entities(id) ON DELETE CASCADE,
	vector BLOB NOT NULL,
	text_hash TEXT NOT NULL,
	dims INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
