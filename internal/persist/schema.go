// Package persist gives the Graph store a narrow, concrete collaborator
// for the persistent store spec.md §1 treats as an external system: a
// SQLite-backed adapter (nodes, edges, topics, named node lists) and a
// file-watch trigger for reloading a snapshot a sibling process wrote.
// Grounded on the teacher's internal/storage/ephemeral package (a
// SQLite-backed store for transient data, the closest analogue the
// teacher ships to "one narrow SQLite adapter" rather than its primary
// Dolt/MySQL-backed storage layer) for schema and open/close shape, and
// on cmd/bd/list.go's fsnotify.NewWatcher usage for the reload trigger.
package persist

// schema is the SQLite DDL for the adapter's four tables, following the
// ephemeral package's dialect conventions (TEXT timestamps, INTEGER
// booleans, CREATE TABLE IF NOT EXISTS, explicit indexes).
const schema = `
CREATE TABLE IF NOT EXISTS topics (
	id INTEGER PRIMARY KEY,
	tag TEXT NOT NULL UNIQUE,
	keywords TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT '',
	effort_seconds REAL NOT NULL DEFAULT 0,
	completion REAL NOT NULL DEFAULT 0,
	valuation REAL NOT NULL DEFAULT 0,
	target_date INTEGER,
	td_property INTEGER NOT NULL DEFAULT 0,
	repeats INTEGER NOT NULL DEFAULT 0,
	td_pattern INTEGER NOT NULL DEFAULT 0,
	td_every INTEGER NOT NULL DEFAULT 1,
	td_span INTEGER NOT NULL DEFAULT 0,
	topics TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_nodes_target_date ON nodes(target_date);

CREATE TABLE IF NOT EXISTS edges (
	dep_id TEXT NOT NULL,
	sup_id TEXT NOT NULL,
	dependency REAL NOT NULL DEFAULT 0,
	significance REAL NOT NULL DEFAULT 0,
	importance REAL NOT NULL DEFAULT 0,
	urgency REAL NOT NULL DEFAULT 0,
	priority REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (dep_id, sup_id),
	FOREIGN KEY (dep_id) REFERENCES nodes(id) ON DELETE CASCADE,
	FOREIGN KEY (sup_id) REFERENCES nodes(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_edges_sup ON edges(sup_id);

CREATE TABLE IF NOT EXISTS named_node_lists (
	name TEXT PRIMARY KEY,
	max_size INTEGER NOT NULL DEFAULT 0,
	is_unique INTEGER NOT NULL DEFAULT 0,
	fifo INTEGER NOT NULL DEFAULT 1,
	prepend INTEGER NOT NULL DEFAULT 0,
	persist INTEGER NOT NULL DEFAULT 0,
	items TEXT NOT NULL DEFAULT '[]'
);
`
