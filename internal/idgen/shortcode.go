package idgen

import "sync"

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// ShortCodeBook assigns compact two-character aliases to NodeIDs in the
// order they are first requested, for use in log lines and debug output
// where a full "YYYYmmddHHMMSS.m" string would be noise. The codebook is
// safe for concurrent use.
type ShortCodeBook struct {
	mu     sync.Mutex
	codes  map[NodeID]string
	next   int
	maxLen int
}

// NewShortCodeBook creates an empty codebook. 62*62 codes are available
// before it wraps and starts reusing codes from the start.
func NewShortCodeBook() *ShortCodeBook {
	return &ShortCodeBook{codes: make(map[NodeID]string)}
}

// Code returns id's short code, assigning one on first use.
func (b *ShortCodeBook) Code(id NodeID) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if code, ok := b.codes[id]; ok {
		return code
	}
	total := len(base62Alphabet) * len(base62Alphabet)
	idx := b.next % total
	b.next++
	code := string([]byte{base62Alphabet[idx/len(base62Alphabet)], base62Alphabet[idx%len(base62Alphabet)]})
	b.codes[id] = code
	return code
}

// Reset discards all assigned codes.
func (b *ShortCodeBook) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.codes = make(map[NodeID]string)
	b.next = 0
}
