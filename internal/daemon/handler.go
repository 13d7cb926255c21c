// Package daemon wires the Graph store, the modification-request
// protocol, the query evaluator, and the two schedulers into the
// control-protocol Handler the rpc.Server dispatches into (spec §5,
// §6). Grounded on the teacher's split between cmd/bd's command
// handlers and internal/rpc's transport: the transport package owns the
// wire format, a separate package owns "what a request actually does".
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/formalizer/fzcore/internal/config"
	"github.com/formalizer/fzcore/internal/fzupdate"
	"github.com/formalizer/fzcore/internal/graph"
	"github.com/formalizer/fzcore/internal/graphmod"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/persist"
	"github.com/formalizer/fzcore/internal/query"
	"github.com/formalizer/fzcore/internal/rpc"
	"github.com/formalizer/fzcore/internal/schedule"
	"github.com/formalizer/fzcore/internal/tdengine"
	"github.com/formalizer/fzcore/internal/types"
)

// Handler implements rpc.Handler against a live Graph, checkpointing to
// a persist.Store after every successful mutation (spec §4.C step 4).
type Handler struct {
	mu        sync.Mutex
	g         *graph.Graph
	store     *persist.Store
	regionDir string
	schedCfg  config.Scheduler
	logger    *slog.Logger
	codes     *idgen.ShortCodeBook
}

var _ rpc.Handler = (*Handler)(nil)

// New returns a Handler over g, persisting checkpoints to store and
// reading/writing batch regions under regionDir.
func New(g *graph.Graph, store *persist.Store, regionDir string, schedCfg config.Scheduler) *Handler {
	return &Handler{
		g: g, store: store, regionDir: regionDir, schedCfg: schedCfg,
		logger: slog.Default(),
		codes:  idgen.NewShortCodeBook(),
	}
}

// SetLogger replaces the Handler's logger, used for the warning lines
// the EPS scheduler and day-packing scheduler runs emit.
func (h *Handler) SetLogger(logger *slog.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if logger != nil {
		h.logger = logger
	}
}

// Get serves "GET <path>" (spec §6). Recognized paths:
//
//	node/<id>       a single Node as JSON
//	nodes           every incomplete Node, ranked by effective target date
//	topics          every registered Topic
//	fzmap           the most recent EPS scheduler run, recomputed on demand
func (h *Handler) Get(path string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case strings.HasPrefix(path, "node/"):
		id, err := idgen.ParseNodeID(strings.TrimPrefix(path, "node/"))
		if err != nil {
			return nil, err
		}
		n, err := h.g.NodeByID(id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(n)
	case path == "nodes":
		ranked, err := tdengine.IncompleteByEffectiveTargetDate(h.g)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ranked)
	case path == "topics":
		return json.Marshal(h.g.Topics())
	case path == "fzmap":
		res, err := fzupdate.Run(h.g, h.schedCfg, time.Now())
		if err != nil {
			return nil, err
		}
		for id, td := range res.TargetDates {
			h.logger.Debug("fzupdate: retargeted", "node", h.codes.Code(id), "new_target_date", td)
		}
		for _, w := range res.Warnings {
			h.logger.Warn("fzupdate", "warning", w)
		}
		return json.Marshal(res)
	default:
		return nil, fmt.Errorf("%w: unrecognized GET path %q", types.ErrNotFound, path)
	}
}

// Patch serves "PATCH <path>" for paths that accept a single inline
// value rather than a full modification-request batch, e.g.
// "schedule/<days>" to run the day-packing scheduler over the next N
// days (spec §4.G).
func (h *Handler) Patch(path string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !strings.HasPrefix(path, "schedule/") {
		return nil, fmt.Errorf("%w: unrecognized PATCH path %q", types.ErrNotFound, path)
	}
	days, err := strconv.Atoi(strings.TrimPrefix(path, "schedule/"))
	if err != nil {
		return nil, fmt.Errorf("parsing day count: %w", err)
	}
	plan, outcome, err := schedule.Generate(h.g, h.schedCfg, schedule.Options{
		Days: days, MinBlockSize: h.schedCfg.ChunkMinutes, Now: time.Now(),
		IncludeExact: true, IncludeFixed: true, IncludeVariable: true,
	})
	if err != nil {
		return nil, err
	}
	h.logger.Debug("schedule: plan generated", "outcome", outcome.String(),
		"exact_minutes", plan.ExactConsumed, "fixed_minutes", plan.FixedConsumed,
		"variable_minutes", plan.VariableConsumed)
	for _, w := range plan.Warnings {
		h.logger.Warn("schedule", "warning", w)
	}
	return json.Marshal(struct {
		Outcome string       `json:"outcome"`
		Plan    *schedule.Plan `json:"plan"`
	}{outcome.String(), plan})
}

// FZ evaluates a batched read-only query list against every incomplete
// Node (spec §6 "FZ <query>").
func (h *Handler) FZ(queries []string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ranked, err := tdengine.IncompleteByEffectiveTargetDate(h.g)
	if err != nil {
		return nil, err
	}
	ev := query.NewEvaluator(time.Now())

	results := make([][]*idgen.NodeID, 0, len(queries))
	for _, q := range queries {
		pred, err := ev.Compile(q)
		if err != nil {
			return nil, fmt.Errorf("compiling query %q: %w", q, err)
		}
		matched := query.EvaluateAll(ranked, pred)
		ids := make([]*idgen.NodeID, 0, len(matched))
		for _, n := range matched {
			id := n.ID
			ids = append(ids, &id)
		}
		results = append(results, ids)
	}
	return json.Marshal(results)
}

// ProcessRegion validates and applies the modification-request batch
// stored in the named shared region, checkpoints the result, and writes
// the Results (or an error) back into the same region (spec §4.C, §5).
func (h *Handler) ProcessRegion(regionName string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	region, err := rpc.OpenRegion(h.regionDir, regionName)
	if err != nil {
		return nil, err
	}

	var batch graphmod.Batch
	if err := region.ReadBatch(&batch); err != nil {
		return nil, err
	}

	results, err := graphmod.Apply(h.g, batch)
	if err != nil {
		_ = region.WriteResult(struct {
			Error string `json:"error"`
		}{err.Error()})
		return nil, err
	}

	if h.store != nil {
		store := h.store
		g := h.g
		if ckErr := persist.CheckpointWithRetry(context.Background(), func() error {
			return store.Checkpoint(g)
		}); ckErr != nil {
			return nil, fmt.Errorf("checkpointing after batch: %w", ckErr)
		}
	}

	if err := region.WriteResult(results); err != nil {
		return nil, err
	}
	return json.Marshal(results)
}

// RunTPass applies a BATCH_TPASS request at t: every Node's
// effective-target-date-derived state is recomputed, then the EPS
// scheduler runs and the resulting target dates are applied as a
// second batch (spec §4.F, mirroring the teacher's periodic
// reconciliation tick).
func (h *Handler) RunTPass(t time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	tpass := graphmod.Batch{Requests: []graphmod.Request{
		{Kind: graphmod.BatchTPass, TPassTime: t.Unix()},
	}}
	if _, err := graphmod.Apply(h.g, tpass); err != nil {
		return fmt.Errorf("applying BATCH_TPASS: %w", err)
	}

	res, err := fzupdate.Run(h.g, h.schedCfg, t)
	if err != nil {
		return fmt.Errorf("running EPS scheduler: %w", err)
	}
	if len(res.TargetDates) > 0 {
		if _, err := graphmod.Apply(h.g, graphmod.Batch{Requests: []graphmod.Request{res.ToBatchRequest()}}); err != nil {
			return fmt.Errorf("applying EPS scheduler output: %w", err)
		}
	}

	if h.store != nil {
		store := h.store
		g := h.g
		if err := persist.CheckpointWithRetry(context.Background(), func() error {
			return store.Checkpoint(g)
		}); err != nil {
			return fmt.Errorf("checkpointing after tpass: %w", err)
		}
	}
	return nil
}

// Reload swaps in a freshly loaded Graph, for use by the persistence
// watcher when a sibling process has rewritten the store (spec §9
// design note on persistence being authoritative across processes).
func (h *Handler) Reload(g *graph.Graph) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.g = g
}
