package snapshot

import (
	"sync"

	"github.com/rvsandbox/rvvm/pkg/memory"
)

// DataSource is an immutable, identifiable byte provider (spec's
// DataSource contract): loading the same (id, offset, length) must yield
// identical bytes across a snapshot and its resume. The core never
// verifies this; it is the caller's invariant.
type DataSource interface {
	LoadData(id string, offset, length uint64) (data []byte, totalLength uint64, err error)
}

// sourceInfo records which DataSource a page's initial contents came
// from, so MakeSnapshot can emit a locator instead of copying bytes for
// any page that hasn't been mutated since.
type sourceInfo struct {
	id     string
	offset uint64
}

// SourceMap tracks, per page, which DataSource (and offset within it)
// supplied a page's contents when it was loaded. The embedder calls
// MarkProgram once per region it loaded from a DataSource (pkg/loader
// does not call it); the engine never needs this
// map for execution, only for deciding what MakeSnapshot can elide.
type SourceMap struct {
	mu    sync.Mutex
	pages map[uint64]sourceInfo
}

// NewSourceMap returns an empty source map.
func NewSourceMap() *SourceMap {
	return &SourceMap{pages: make(map[uint64]sourceInfo)}
}

// MarkProgram records that the pages spanning [addr, addr+length) were
// populated from id starting at sourceOffset, one page at a time so each
// page's source offset advances by PageSize.
func (s *SourceMap) MarkProgram(id string, addr, length, sourceOffset uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := memory.PageOf(addr)
	last := memory.PageOf(addr + length - 1)
	for p := first; p <= last; p++ {
		off := sourceOffset + (p-first)*memory.PageSize
		s.pages[p] = sourceInfo{id: id, offset: off}
	}
}

// Clear drops every page/source association, for use at the start of a
// resume before source-backed ranges are re-registered.
func (s *SourceMap) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = make(map[uint64]sourceInfo)
}

// lookup returns the source info recorded for page, if any.
func (s *SourceMap) lookup(page uint64) (sourceInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.pages[page]
	return info, ok
}

// register records a single page's source association, used while
// replaying source-backed ranges during Resume.
func (s *SourceMap) register(page uint64, id string, offset uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page] = sourceInfo{id: id, offset: offset}
}
