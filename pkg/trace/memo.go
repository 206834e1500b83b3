package trace

import "hash/fnv"

// ByteReader reads the raw bytes a trace was decoded from, for
// fingerprinting. The caller of NewMemoCache supplies it.
type ByteReader func(addr, n uint64) ([]byte, error)

// MemoCache wraps Cache with a source fingerprint recorded at build time.
// The plain Cache relies entirely on pkg/machine calling Invalidate when a
// store touches a traced page; MemoCache is a belt-and-suspenders variant
// for callers that would rather re-verify a trace is still faithful to
// memory than track dirty pages precisely — at the cost of a re-read and a
// hash on every lookup. It is direct-mapped with the same slots as Cache
// and keeps no pc → trace hash. pkg/machine does not use it: Machine.Cache
// is always a plain *Cache.
type MemoCache struct {
	cache        *Cache
	fingerprints [Size]uint64
	read         ByteReader
}

// NewMemoCache returns a memoizing trace cache that reads source bytes
// through read to fingerprint each built trace.
func NewMemoCache(read ByteReader) *MemoCache {
	return &MemoCache{cache: NewCache(), read: read}
}

func fingerprint(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

// Lookup returns the cached trace for pc only if its recorded fingerprint
// still matches the current memory contents at its address range.
func (m *MemoCache) Lookup(pc uint64) (*Trace, bool) {
	t, ok := m.cache.Lookup(pc)
	if !ok {
		return nil, false
	}
	slot := calculateSlot(pc)
	b, err := m.read(t.Address, t.ByteLength)
	if err != nil || fingerprint(b) != m.fingerprints[slot] {
		m.cache.Invalidate(pc)
		return nil, false
	}
	return t, true
}

// Insert stores t and fingerprints its source bytes.
func (m *MemoCache) Insert(t *Trace) error {
	b, err := m.read(t.Address, t.ByteLength)
	if err != nil {
		return err
	}
	m.cache.Insert(t)
	m.fingerprints[calculateSlot(t.Address)] = fingerprint(b)
	return nil
}

// Clear empties the cache.
func (m *MemoCache) Clear() {
	m.cache.Clear()
	m.fingerprints = [Size]uint64{}
}
