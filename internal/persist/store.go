package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/types"
)

// Store is a SQLite-backed persistence adapter for a Graph: the single
// concrete collaborator this repository gives the "persistent store"
// spec.md §1 names as an external system. It is deliberately narrow
// (Nodes, Edges, Topics, Named Node Lists only; no migrations, no
// multi-backend support) per SPEC_FULL's domain-stack note.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) the SQLite database at dbPath and
// ensures the schema exists.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create persist db dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_journal=WAL&_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open persist db: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer discipline matches §5's serialized writer model
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Checkpoint writes every Node, Edge, Topic, and Named Node List in g to
// the database, replacing whatever was previously stored (spec §4.C
// step 4's "single persistence call for the whole batch", here widened
// to a full-graph checkpoint for simplicity since the core keeps the
// authoritative copy in memory).
func (s *Store) Checkpoint(g *graph.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin checkpoint: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"edges", "nodes", "topics", "named_node_lists"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, t := range g.Topics() {
		kw, err := json.Marshal(t.Keywords)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO topics (id, tag, keywords) VALUES (?, ?, ?)`,
			t.ID, t.Tag, string(kw)); err != nil {
			return fmt.Errorf("writing topic %d: %w", t.ID, err)
		}
	}

	for _, n := range g.AllNodes() {
		if err := insertNode(tx, n); err != nil {
			return err
		}
	}

	for _, id := range g.AllNodeIDs() {
		for _, e := range g.DepEdgesOf(id) {
			if _, err := tx.Exec(`INSERT OR REPLACE INTO edges
				(dep_id, sup_id, dependency, significance, importance, urgency, priority)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				e.Dep().String(), e.Sup().String(),
				e.Dependency, e.Significance, e.Importance, e.Urgency, e.Priority); err != nil {
				return fmt.Errorf("writing edge %s: %w", e.ID, err)
			}
		}
	}

	for _, name := range g.ListNames() {
		l, err := g.List(name)
		if err != nil {
			return err
		}
		if err := insertList(tx, l); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertNode(tx *sql.Tx, n *types.Node) error {
	topics, err := json.Marshal(n.Topics)
	if err != nil {
		return err
	}
	var targetDate sql.NullInt64
	if n.TargetDate != nil {
		targetDate = sql.NullInt64{Int64: *n.TargetDate, Valid: true}
	}
	_, err = tx.Exec(`INSERT INTO nodes
		(id, description, effort_seconds, completion, valuation, target_date,
		 td_property, repeats, td_pattern, td_every, td_span, topics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID.String(), n.Description, n.EffortSeconds, n.Completion, n.Valuation, targetDate,
		int(n.TDProperty), n.Repeats, int(n.TDPattern), n.TDEvery, n.TDSpan, string(topics))
	if err != nil {
		return fmt.Errorf("writing node %s: %w", n.ID, err)
	}
	return nil
}

func insertList(tx *sql.Tx, l *types.NamedNodeList) error {
	items := make([]string, len(l.Items))
	for i, id := range l.Items {
		items[i] = id.String()
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO named_node_lists
		(name, max_size, is_unique, fifo, prepend, persist, items)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.Name, l.MaxSize, l.Unique, l.FIFO, l.Prepend, l.Persist, string(data))
	if err != nil {
		return fmt.Errorf("writing list %q: %w", l.Name, err)
	}
	return nil
}

// Load reads every stored Node, Edge, Topic, and Named Node List back
// into a fresh Graph, in dependency order (topics, then nodes, then
// edges, then lists) so each insert's referential-integrity checks pass.
func (s *Store) Load() (*graph.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := graph.New()

	if err := s.loadTopics(g); err != nil {
		return nil, err
	}
	if err := s.loadNodes(g); err != nil {
		return nil, err
	}
	if err := s.loadEdges(g); err != nil {
		return nil, err
	}
	if err := s.loadLists(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) loadTopics(g *graph.Graph) error {
	rows, err := s.db.Query(`SELECT id, tag, keywords FROM topics`)
	if err != nil {
		return fmt.Errorf("loading topics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id types.TopicID
		var tag, kwJSON string
		if err := rows.Scan(&id, &tag, &kwJSON); err != nil {
			return err
		}
		var kw map[string]float64
		if err := json.Unmarshal([]byte(kwJSON), &kw); err != nil {
			return err
		}
		g.RestoreTopic(id, tag, kw)
	}
	return rows.Err()
}

func (s *Store) loadNodes(g *graph.Graph) error {
	rows, err := s.db.Query(`SELECT id, description, effort_seconds, completion, valuation,
		target_date, td_property, repeats, td_pattern, td_every, td_span, topics FROM nodes`)
	if err != nil {
		return fmt.Errorf("loading nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var idStr, description, topicsJSON string
		var effort, completion, valuation float64
		var targetDate sql.NullInt64
		var tdProperty, tdPattern, tdEvery, tdSpan int
		var repeats bool
		if err := rows.Scan(&idStr, &description, &effort, &completion, &valuation,
			&targetDate, &tdProperty, &repeats, &tdPattern, &tdEvery, &tdSpan, &topicsJSON); err != nil {
			return err
		}
		id, err := idgen.ParseNodeID(idStr)
		if err != nil {
			return fmt.Errorf("parsing stored node id %q: %w", idStr, err)
		}
		var topics map[types.TopicID]float64
		if err := json.Unmarshal([]byte(topicsJSON), &topics); err != nil {
			return err
		}
		n := &types.Node{
			ID:            id,
			Description:   description,
			EffortSeconds: effort,
			Completion:    completion,
			Valuation:     valuation,
			TDProperty:    types.TDProperty(tdProperty),
			Repeats:       repeats,
			TDPattern:     types.TDPattern(tdPattern),
			TDEvery:       tdEvery,
			TDSpan:        tdSpan,
			Topics:        topics,
		}
		if targetDate.Valid {
			td := targetDate.Int64
			n.TargetDate = &td
		}
		if err := g.AddNode(n); err != nil {
			return fmt.Errorf("restoring node %s: %w", id, err)
		}
	}
	return rows.Err()
}

func (s *Store) loadEdges(g *graph.Graph) error {
	rows, err := s.db.Query(`SELECT dep_id, sup_id, dependency, significance, importance, urgency, priority FROM edges`)
	if err != nil {
		return fmt.Errorf("loading edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var depStr, supStr string
		var dependency, significance, importance, urgency, priority float64
		if err := rows.Scan(&depStr, &supStr, &dependency, &significance, &importance, &urgency, &priority); err != nil {
			return err
		}
		dep, err := idgen.ParseNodeID(depStr)
		if err != nil {
			return err
		}
		sup, err := idgen.ParseNodeID(supStr)
		if err != nil {
			return err
		}
		e := &types.Edge{
			ID:           idgen.EdgeID{Dep: dep, Sup: sup},
			Dependency:   dependency,
			Significance: significance,
			Importance:   importance,
			Urgency:      urgency,
			Priority:     priority,
		}
		if err := g.AddEdge(e); err != nil {
			return fmt.Errorf("restoring edge %s: %w", e.ID, err)
		}
	}
	return rows.Err()
}

func (s *Store) loadLists(g *graph.Graph) error {
	rows, err := s.db.Query(`SELECT name, max_size, is_unique, fifo, prepend, persist, items FROM named_node_lists`)
	if err != nil {
		return fmt.Errorf("loading lists: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, itemsJSON string
		var maxSize int
		var unique, fifo, prepend, persistFlag bool
		if err := rows.Scan(&name, &maxSize, &unique, &fifo, &prepend, &persistFlag, &itemsJSON); err != nil {
			return err
		}
		var itemStrs []string
		if err := json.Unmarshal([]byte(itemsJSON), &itemStrs); err != nil {
			return err
		}
		items := make([]idgen.NodeID, 0, len(itemStrs))
		for _, s := range itemStrs {
			id, err := idgen.ParseNodeID(s)
			if err != nil {
				return err
			}
			items = append(items, id)
		}
		l := types.NewNamedNodeList(name, maxSize, unique, fifo, prepend)
		l.Persist = persistFlag
		l.Items = items
		g.PutList(l)
	}
	return rows.Err()
}
