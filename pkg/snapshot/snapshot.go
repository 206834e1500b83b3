// Package snapshot implements spec §4.7's make_snapshot/resume pair: a
// point-in-time capture of a Machine's registers and memory that can be
// replayed onto a freshly constructed Machine of the same CoreVersion.
// The wire format is gob-encoded, the same choice
// oisee/z80-optimizer's pkg/result/checkpoint.go makes for its own
// resumable search state.
package snapshot

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/rvsandbox/rvvm/pkg/machine"
	"github.com/rvsandbox/rvvm/pkg/memory"
	"github.com/rvsandbox/rvvm/pkg/reg"
	"github.com/rvsandbox/rvvm/pkg/rverr"
)

// SourceRange is a coalesced run of pages whose contents are still
// identical to what a DataSource supplied at load time: the snapshot
// stores a locator instead of the bytes themselves.
type SourceRange struct {
	Address      uint64
	Length       uint64
	Flags        memory.Flag
	SourceID     string
	SourceOffset uint64
}

// DirtyRange is a coalesced run of pages whose FlagDirty is set: the
// snapshot stores their raw bytes. Pages that are neither dirty nor
// source-backed are not captured at all.
type DirtyRange struct {
	Address uint64
	Flags   memory.Flag
	Bytes   []byte
}

// Snapshot is the serializable capture of one Machine's state.
type Snapshot struct {
	Width     uint8
	GPR       []uint64
	PC        uint64
	Cycles    uint64
	MaxCycles uint64
	Version   uint32

	SourceRanges []SourceRange
	DirtyRanges  []DirtyRange
}

// Marshal gob-encodes s.
func (s *Snapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("%w: encoding snapshot: %v", rverr.ErrIO, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a Snapshot previously produced by Marshal.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: decoding snapshot: %v", rverr.ErrIO, err)
	}
	return &s, nil
}

// rangeBuilder accumulates contiguous page runs of either kind, flushing
// the pending run whenever the next page breaks contiguity.
type rangeBuilder struct {
	sourceRanges []SourceRange
	dirtyRanges  []DirtyRange

	pendingSource *SourceRange
	pendingDirty  *DirtyRange
}

func (b *rangeBuilder) flushSource() {
	if b.pendingSource != nil {
		b.sourceRanges = append(b.sourceRanges, *b.pendingSource)
		b.pendingSource = nil
	}
}

func (b *rangeBuilder) flushDirty() {
	if b.pendingDirty != nil {
		b.dirtyRanges = append(b.dirtyRanges, *b.pendingDirty)
		b.pendingDirty = nil
	}
}

func (b *rangeBuilder) addSource(addr uint64, flags memory.Flag, id string, offset uint64) {
	b.flushDirty()
	if p := b.pendingSource; p != nil &&
		p.Flags == flags && p.SourceID == id &&
		p.Address+p.Length == addr && p.SourceOffset+p.Length == offset {
		p.Length += memory.PageSize
		return
	}
	b.flushSource()
	b.pendingSource = &SourceRange{Address: addr, Length: memory.PageSize, Flags: flags, SourceID: id, SourceOffset: offset}
}

func (b *rangeBuilder) addDirty(addr uint64, flags memory.Flag, bytes []byte) {
	b.flushSource()
	if p := b.pendingDirty; p != nil && p.Flags == flags && p.Address+uint64(len(p.Bytes)) == addr {
		p.Bytes = append(p.Bytes, bytes...)
		return
	}
	b.flushDirty()
	cp := make([]byte, len(bytes))
	copy(cp, bytes)
	b.pendingDirty = &DirtyRange{Address: addr, Flags: flags, Bytes: cp}
}

func (b *rangeBuilder) breakRun() {
	b.flushSource()
	b.flushDirty()
}

// MakeSnapshot captures m's full state: registers, PC, cycle counters,
// version, and every memory page, eliding pages that are still identical
// to their registered DataSource origin (per sources) in favour of a
// locator, and storing raw bytes only for pages whose DIRTY flag is set.
func MakeSnapshot[T reg.Word](m *machine.Machine[T], sources *SourceMap) *Snapshot {
	gpr := make([]uint64, 32)
	for i := 1; i < 32; i++ {
		gpr[i] = reg.ToUint64(m.Regs.Get(uint(i)))
	}

	s := &Snapshot{
		Width:     uint8(m.Width()),
		GPR:       gpr,
		PC:        reg.ToUint64(m.Regs.PC),
		Cycles:    m.Cycles,
		MaxCycles: m.MaxCycles,
		Version:   m.Version,
	}

	pageCount := m.Mem.Size() / memory.PageSize
	b := &rangeBuilder{}
	for p := uint64(0); p < pageCount; p++ {
		addr := p * memory.PageSize
		flags := m.Mem.FetchFlag(p)
		if info, ok := sources.lookup(p); ok && flags&memory.FlagDirty == 0 {
			b.addSource(addr, flags, info.id, info.offset)
			continue
		}
		if flags&memory.FlagDirty != 0 {
			b.addDirty(addr, flags, m.Mem.PageBytes(p))
			continue
		}
		b.breakRun()
	}
	b.breakRun()

	s.SourceRanges = b.sourceRanges
	s.DirtyRanges = b.dirtyRanges
	return s
}

// Resume replays s onto m: it requires m.Version == s.Version, clears
// sources and re-registers every source-backed range by re-fetching from
// ds, writes every dirty range's raw bytes, restores registers/PC/cycle
// state, and drops every cached trace before returning (since memory
// contents may have changed underneath whatever the cache held).
func Resume[T reg.Word](m *machine.Machine[T], s *Snapshot, sources *SourceMap, ds DataSource) error {
	if m.Version != s.Version {
		return fmt.Errorf("%w: machine version %d, snapshot version %d", rverr.ErrInvalidVersion, m.Version, s.Version)
	}
	if uint(s.Width) != m.Width() {
		return fmt.Errorf("%w: machine width %d, snapshot width %d", rverr.ErrInvalidVersion, m.Width(), s.Width)
	}

	sources.Clear()

	for _, r := range s.SourceRanges {
		data, _, err := ds.LoadData(r.SourceID, r.SourceOffset, r.Length)
		if err != nil {
			return err
		}
		if err := m.Mem.InitPages(r.Address, r.Length, r.Flags, data, 0); err != nil {
			return err
		}
		first := memory.PageOf(r.Address)
		last := memory.PageOf(r.Address + r.Length - 1)
		for p := first; p <= last; p++ {
			sources.register(p, r.SourceID, r.SourceOffset+(p-first)*memory.PageSize)
		}
	}

	for _, r := range s.DirtyRanges {
		length := uint64(len(r.Bytes))
		// InitPages sets flags to exactly r.Flags, which already carries
		// FlagDirty as captured by MakeSnapshot, so no follow-up SetFlag
		// call is needed.
		if err := m.Mem.InitPages(r.Address, length, r.Flags, r.Bytes, 0); err != nil {
			return err
		}
	}

	for i := 1; i < 32 && i < len(s.GPR)+1; i++ {
		m.Regs.Set(uint(i), reg.FromUint64[T](s.GPR[i]))
	}
	m.Regs.PC = reg.FromUint64[T](s.PC)
	m.Cycles = s.Cycles
	m.MaxCycles = s.MaxCycles

	m.Cache.Clear()
	return nil
}
