package rpc

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/sync/singleflight"
)

// QueryDeduplicator coalesces concurrent identical read-only FZ queries
// against the same Graph snapshot: when several control connections ask
// for the same query list within the same instant (a status-line refresh
// storm against a shared daemon, per the teacher's own comment on its
// hand-rolled version of this), only the first actually evaluates it.
// Grounded on the teacher's internal/rpc/query_dedup.go, which solves the
// identical problem with a hand-rolled inflight-map/channel broadcast;
// here it is reimplemented over golang.org/x/sync/singleflight, the
// ecosystem-standard tool for exactly this "coalesce duplicate concurrent
// calls" shape, per the expanded spec's domain-stack wiring.
type QueryDeduplicator struct {
	group singleflight.Group
}

// NewQueryDeduplicator returns an empty deduplicator.
func NewQueryDeduplicator() *QueryDeduplicator {
	return &QueryDeduplicator{}
}

// Execute runs fn, deduplicated against any other call currently in
// flight for the same queries. shared reports whether this caller
// received a result computed by another in-flight call.
func (d *QueryDeduplicator) Execute(queries []string, fn func() ([]byte, error)) (result []byte, shared bool, err error) {
	key := queryKey(queries)
	v, shared, err := d.group.Do(key, func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, shared, err
	}
	return v.([]byte), shared, nil
}

func queryKey(queries []string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(queries, ";")))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
