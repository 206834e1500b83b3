// Package machine implements the dispatch loop, executor, and host
// interface of spec §4.5/§4.6: the part of the engine that actually runs
// decoded instructions against a register file and a memory backend,
// charging cycles, servicing traps, and honouring pause/suspend signals.
package machine

import (
	"github.com/rvsandbox/rvvm/pkg/isa"
	"github.com/rvsandbox/rvvm/pkg/memory"
	"github.com/rvsandbox/rvvm/pkg/reg"
	"github.com/rvsandbox/rvvm/pkg/rverr"
	"github.com/rvsandbox/rvvm/pkg/trace"
)

// CoreVersion fences the snapshot format (spec's supplemented "version
// fencing" feature): a snapshot stamped with a different CoreVersion than
// the running binary is refused at resume time rather than risk
// misinterpreting its bytes.
const CoreVersion = 1

// reservation tracks the address a LR instruction staked out, for the
// matching SC to validate. Since the dispatch loop is single-threaded
// (spec §6), there is never a concurrent writer to race against; the
// reservation exists purely to give SC-without-a-preceding-LR, or a LR/SC
// pair to different addresses, the failure semantics the ISA specifies.
type reservation struct {
	valid bool
	addr  uint64
}

// Machine is one RISC-V core instance, generic over its register width.
// It is not safe for concurrent use; spec §6 specifies a single-threaded
// dispatch loop per machine, with any parallelism happening across
// independent Machine values instead.
type Machine[T reg.Word] struct {
	Regs reg.File[T]
	Mem  memory.Memory
	Host Host

	Cache *trace.Cache
	Cost  CostModel

	Cycles    uint64
	MaxCycles uint64

	Version uint32

	running   bool
	paused    bool
	suspended bool

	res reservation
}

// New returns a freshly reset machine over mem, charging cycles against
// maxCycles (0 means unbounded) using cost, with host servicing
// ECALL/EBREAK traps. A nil host falls back to NopHost.
func New[T reg.Word](mem memory.Memory, cost CostModel, maxCycles uint64, host Host) *Machine[T] {
	if cost == nil {
		cost = ConstantCost{}
	}
	if host == nil {
		host = NopHost{}
	}
	return &Machine[T]{
		Mem:       mem,
		Host:      host,
		Cache:     trace.NewCache(),
		Cost:      cost,
		MaxCycles: maxCycles,
		Version:   CoreVersion,
	}
}

// Width reports the machine's register width in bits (32 or 64).
func (m *Machine[T]) Width() uint { return reg.Width[T]() }

// Pause requests that Run return rverr.ErrPause at the next instruction
// boundary, leaving the machine resumable with Run again.
func (m *Machine[T]) Pause() { m.paused = true }

// Suspend requests that Run return rverr.ErrSuspend at the next
// instruction boundary. Suspend and Pause are independent flags (spec's
// supplemented "pause vs suspend" feature): a caller may suspend a
// machine that is also mid-pause-handling, and resuming clears only the
// flag Run actually stopped for.
func (m *Machine[T]) Suspend() { m.suspended = true }

func (m *Machine[T]) pc() uint64 { return reg.ToUint64(m.Regs.PC) }

func (m *Machine[T]) setPC(addr uint64) { m.Regs.PC = reg.FromUint64[T](addr) }

// fetchOne decodes exactly one instruction at pc, for use as a
// trace.Decoder.
func (m *Machine[T]) fetchOne(pc uint64) (isa.Inst, error) {
	b0, err := m.Mem.ExecuteLoad16(pc)
	if err != nil {
		return isa.Inst{}, err
	}
	buf := make([]byte, 4)
	buf[0], buf[1] = byte(b0), byte(b0>>8)
	if b0&0x3 == 0x3 {
		b1, err := m.Mem.ExecuteLoad16(pc + 2)
		if err != nil {
			return isa.Inst{}, err
		}
		buf[2], buf[3] = byte(b1), byte(b1>>8)
	}
	return isa.Decode(m.Width(), buf)
}

// Run dispatches instructions until a trap or a Host hook returns a
// non-nil error, the cycle budget is exhausted, or a pause/suspend signal
// is observed. It always returns a non-nil error: there is no path by
// which a guest or Host ends the run successfully with an exit code.
// A Resumable error (rverr.Resumable) leaves the machine in
// a state where calling Run again continues exactly where it left off.
func (m *Machine[T]) Run() error {
	m.running = true
	defer func() { m.running = false }()

	for {
		if m.paused {
			m.paused = false
			return rverr.ErrPause
		}
		if m.suspended {
			m.suspended = false
			return rverr.ErrSuspend
		}
		if m.MaxCycles != 0 && m.Cycles >= m.MaxCycles {
			return rverr.ErrCyclesExceeded
		}

		pc := m.pc()
		tr, ok := m.Cache.Lookup(pc)
		if !ok {
			built, err := trace.Build(pc, m.fetchOne)
			if err != nil {
				return err
			}
			m.Cache.Insert(built)
			tr = built
		}

		if err := m.runTrace(tr); err != nil {
			return err
		}
	}
}

// runTrace executes every instruction in tr in order, stopping early
// (leaving the machine's PC at the branch target) if control flow leaves
// the trace before its end.
func (m *Machine[T]) runTrace(tr *trace.Trace) error {
	cur := tr.Address
	for _, inst := range tr.Instructions {
		if m.paused || m.suspended {
			m.setPC(cur)
			return nil
		}
		if m.MaxCycles != 0 && m.Cycles >= m.MaxCycles {
			m.setPC(cur)
			return rverr.ErrCyclesExceeded
		}
		m.setPC(cur)
		branched, err := m.Execute(cur, inst)
		if err != nil {
			return err
		}
		m.Cycles += m.Cost.Cost(inst.Op)
		if branched {
			return nil
		}
		cur += uint64(inst.Length)
	}
	m.setPC(cur)
	return nil
}

// Invalidate drops any cached trace whose slot pc maps to. Any
// Memory.Store* caller that bypasses the machine (e.g. a debugger poking
// guest memory) must call this after writing to address pc to keep the
// trace cache from serving stale decoded instructions; snapshot.Resume
// clears the whole cache instead.
func (m *Machine[T]) Invalidate(pc uint64) { m.Cache.Invalidate(pc) }

// invalidateStore drops every cached trace that could possibly contain a
// byte of the n-byte store at addr. A trace can start up to
// trace.MaxLength-1 instructions before its first byte that overlaps
// addr, and an instruction is at most 4 bytes, so the swept range starts
// that many bytes below addr (clamped at 0) and runs through addr+n;
// calculateSlot groups every 32-byte-aligned run into one slot, so
// walking it two bytes at a time (the narrowest possible instruction)
// visits every slot a live trace could occupy.
func (m *Machine[T]) invalidateStore(addr, n uint64) {
	const maxInstrLen = 4
	span := uint64(trace.MaxLength-1) * maxInstrLen
	lo := uint64(0)
	if addr > span {
		lo = addr - span
	}
	hi := addr + n
	for pc := lo; pc < hi; pc += 2 {
		m.Cache.Invalidate(pc)
	}
}

// DumpState renders a human-readable snapshot of the machine's registers
// and control state for debugging, typically invoked from a Host.Debug
// handler serving an EBREAK.
func (m *Machine[T]) DumpState() string {
	return dumpState(m)
}
