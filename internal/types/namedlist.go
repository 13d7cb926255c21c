package types

import "github.com/formalizer/fzcore/internal/idgen"

// Reserved Named Node List names with core-defined semantics.
const (
	ListShortlist  = "shortlist"
	ListRecent     = "recent"
	ListIncomplete = "_incomplete" // virtual; never stored directly
)

// NamedNodeList is an ordered, named container of Node references.
type NamedNodeList struct {
	Name string

	// MaxSize is the list's capacity; 0 means unlimited.
	MaxSize int
	// Unique rejects duplicate NodeIDs when true.
	Unique bool
	// FIFO selects eviction order when MaxSize is exceeded: true evicts
	// the oldest entry, false (LIFO) evicts the newest.
	FIFO bool
	// Prepend adds new entries at the front instead of the back.
	Prepend bool
	// Persist marks the list for inclusion in persisted snapshots.
	Persist bool

	Items []idgen.NodeID
}

// NewNamedNodeList creates an empty list with the given policy flags.
func NewNamedNodeList(name string, maxSize int, unique, fifo, prepend bool) *NamedNodeList {
	return &NamedNodeList{Name: name, MaxSize: maxSize, Unique: unique, FIFO: fifo, Prepend: prepend}
}

// Contains reports whether id is already in the list.
func (l *NamedNodeList) Contains(id idgen.NodeID) bool {
	for _, item := range l.Items {
		if item == id {
			return true
		}
	}
	return false
}

// Add inserts id according to the list's Unique/Prepend/MaxSize policy.
// It reports whether an existing entry was evicted to make room.
func (l *NamedNodeList) Add(id idgen.NodeID) (evicted bool) {
	if l.Unique && l.Contains(id) {
		return false
	}
	if l.Prepend {
		l.Items = append([]idgen.NodeID{id}, l.Items...)
	} else {
		l.Items = append(l.Items, id)
	}
	if l.MaxSize > 0 && len(l.Items) > l.MaxSize {
		// Prepend determines which end holds the newest entry; FIFO/LIFO
		// then determines whether the oldest or the newest is dropped.
		dropOldest := l.FIFO
		dropFront := dropOldest != l.Prepend
		if dropFront {
			l.Items = l.Items[len(l.Items)-l.MaxSize:]
		} else {
			l.Items = l.Items[:l.MaxSize]
		}
		evicted = true
	}
	return evicted
}

// Remove deletes the first occurrence of id, if present.
func (l *NamedNodeList) Remove(id idgen.NodeID) bool {
	for i, item := range l.Items {
		if item == id {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			return true
		}
	}
	return false
}
