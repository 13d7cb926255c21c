package rpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParseRequest decodes the single raw line a control connection sends
// into a Request (spec §6). A line that is not PING, STOP, "GET <path>",
// "PATCH <path>", or "FZ <query>[;<query>...]" is assumed to be a
// shared-region name (spec §5, "the region's name itself for 'process
// this batch'").
func ParseRequest(line string) Request {
	line = strings.TrimSpace(line)
	req := Request{RequestID: uuid.NewString(), ReceivedAt: time.Now()}

	switch {
	case line == string(VerbPing):
		req.Verb = VerbPing
	case line == string(VerbStop):
		req.Verb = VerbStop
	case strings.HasPrefix(line, "GET "):
		req.Verb = VerbGet
		req.Path = strings.TrimSpace(strings.TrimPrefix(line, "GET "))
	case strings.HasPrefix(line, "PATCH "):
		req.Verb = VerbPatch
		req.Path = strings.TrimSpace(strings.TrimPrefix(line, "PATCH "))
	case strings.HasPrefix(line, "FZ "):
		req.Verb = VerbFZ
		rest := strings.TrimSpace(strings.TrimPrefix(line, "FZ "))
		req.Queries = splitQueries(rest)
	default:
		req.Verb = VerbRegion
		req.RegionName = line
	}
	return req
}

func splitQueries(rest string) []string {
	parts := strings.Split(rest, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewRegionName mints a region name from a monotonic timestamp, per spec
// §5 ("Regions are named with a monotonic timestamp (YYYYmmddHHMMSS)").
// A process-local counter is appended so two regions allocated within
// the same second remain distinct, since the reference's shared-memory
// allocator has no such collision in practice but this one (backed by
// named temp files, see Region) would otherwise overwrite the first.
func NewRegionName(now time.Time, seq int) string {
	return fmt.Sprintf("%s.%d", now.Format("20060102150405"), seq)
}
