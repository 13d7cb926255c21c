package rpc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// Region is the explicit-message-passing stand-in for the reference
// implementation's shared-memory region: a client allocates one, writes
// a batch into it with WriteBatch, and sends its Name over the control
// connection; the server reads the batch with ReadBatch, writes the
// Results or Error back into the same file with WriteResult, and the
// client reads that back with ReadResult before calling Free. This
// preserves the protocol's semantics (spec §5: "the client allocates a
// shared region, constructs the batch inside it, and transmits the
// region's name") without assuming client and server share a virtual
// address space (spec §9 design note on shared-memory IPC).
type Region struct {
	Name string
	path string
}

var regionSeq int64

// AllocateRegion creates a new Region under dir, named with the current
// monotonic timestamp (spec §5).
func AllocateRegion(dir string) (*Region, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating region directory: %w", err)
	}
	seq := atomic.AddInt64(&regionSeq, 1)
	name := NewRegionName(time.Now(), int(seq))
	return &Region{Name: name, path: filepath.Join(dir, name)}, nil
}

// OpenRegion attaches to an existing Region by name, failing if it was
// never allocated or has already been freed (spec §7 "Infrastructure"
// error category: "shared region cannot be attached").
func OpenRegion(dir, name string) (*Region, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("attaching region %q: %w", name, err)
	}
	return &Region{Name: name, path: path}, nil
}

// WriteBatch JSON-encodes v (a graphmod.Batch) into the region.
func (r *Region) WriteBatch(v interface{}) error {
	return r.write(v)
}

// ReadBatch decodes the region's contents into v (a *graphmod.Batch).
func (r *Region) ReadBatch(v interface{}) error {
	return r.read(v)
}

// WriteResult overwrites the region with the server's reply (a
// []graphmod.Result or a structured error), per spec §5 step 3: "the
// server reads the reply structure from the same region."
func (r *Region) WriteResult(v interface{}) error {
	return r.write(v)
}

// ReadResult decodes the region's reply into v.
func (r *Region) ReadResult(v interface{}) error {
	return r.read(v)
}

func (r *Region) write(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding region %q: %w", r.Name, err)
	}
	return os.WriteFile(r.path, data, 0o600)
}

func (r *Region) read(v interface{}) error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("reading region %q: %w", r.Name, err)
	}
	return json.Unmarshal(data, v)
}

// Free removes the region's backing file. The client frees the region
// once it has read the reply (spec §5).
func (r *Region) Free() error {
	err := os.Remove(r.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
