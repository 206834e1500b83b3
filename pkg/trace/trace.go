// Package trace implements the basic-block/trace cache of spec §4.4: a
// fixed-size, directly-indexed table of decoded instruction runs keyed by
// program counter, so the dispatch loop in pkg/machine can re-execute a
// previously decoded run without paying the decode cost again.
package trace

import (
	"github.com/rvsandbox/rvvm/pkg/isa"
)

const (
	// Size is the number of slots in the trace table. Confirmed against
	// the reference engine's asm-mode trace table (TRACE_SIZE).
	Size = 8192

	// MaxLength is the maximum number of real instructions a single
	// trace may hold before it is closed off, even if no basic-block-end
	// instruction was reached (TRACE_ITEM_LENGTH in the same source).
	MaxLength = 16
)

// Trace is one decoded run of instructions starting at Address. Instructions
// holds up to MaxLength decoded instructions; TraceEnd sentinels are never
// stored explicitly — callers stop at len(Instructions).
type Trace struct {
	Address      uint64
	Instructions []isa.Inst

	// ByteLength is the total number of source bytes the run consumed;
	// Address+ByteLength is the PC to resume at if the run falls off the
	// end without hitting a basic-block-end instruction.
	ByteLength uint64

	// EndsBlock is true when the last instruction in Instructions is a
	// basic-block terminator (branch, jump, ECALL/EBREAK, far jump).
	// When false, the run was cut short by MaxLength and the dispatch
	// loop must fall through to decoding fresh instructions at
	// Address+ByteLength.
	EndsBlock bool
}

// calculateSlot maps a program counter to its trace-table slot. Grounded
// on the reference engine's calculate_slot: instructions are at least
// 2-byte aligned, so the low bits carry no slot-distinguishing entropy
// worth keeping, and the table is sized as a power of two so the modulus
// is a mask.
func calculateSlot(pc uint64) uint64 {
	return (pc >> 5) & (Size - 1)
}

// Cache is the direct-mapped trace table. It is not safe for concurrent
// use without external synchronization, matching spec §6's single-threaded
// dispatch loop.
type Cache struct {
	slots [Size]*Trace
}

// NewCache returns an empty trace cache.
func NewCache() *Cache {
	return &Cache{}
}

// Lookup returns the cached trace for pc if one is present at pc's slot
// and actually starts at pc (a slot collision with a different address
// is treated as a miss, not an error).
func (c *Cache) Lookup(pc uint64) (*Trace, bool) {
	t := c.slots[calculateSlot(pc)]
	if t == nil || t.Address != pc {
		return nil, false
	}
	return t, true
}

// Insert stores t at its address's slot, evicting whatever trace
// previously occupied that slot.
func (c *Cache) Insert(t *Trace) {
	c.slots[calculateSlot(t.Address)] = t
}

// Invalidate drops whatever trace currently occupies pc's slot, if any.
// Used when a store touches a page a trace may have been built from;
// since multiple addresses alias the same slot, this is a conservative
// over-approximation in the collision case, never an under-approximation.
func (c *Cache) Invalidate(pc uint64) {
	c.slots[calculateSlot(pc)] = nil
}

// Clear empties the entire cache. snapshot.Resume calls it, since
// invalidating slot-by-slot after replaying a whole snapshot would cost
// more than a fresh start.
func (c *Cache) Clear() {
	for i := range c.slots {
		c.slots[i] = nil
	}
}

// Decoder is the function shape pkg/machine supplies to build a trace: it
// must decode exactly one instruction starting at pc, returning the
// instruction, whose Length is the number of bytes consumed.
type Decoder func(pc uint64) (isa.Inst, error)

// Build decodes a fresh trace starting at pc using decode, stopping after
// MaxLength instructions or as soon as a basic-block-end instruction is
// decoded, whichever comes first.
func Build(pc uint64, decode Decoder) (*Trace, error) {
	t := &Trace{Address: pc}
	cur := pc
	for len(t.Instructions) < MaxLength {
		inst, err := decode(cur)
		if err != nil {
			return nil, err
		}
		t.Instructions = append(t.Instructions, inst)
		cur += uint64(inst.Length)
		t.ByteLength += uint64(inst.Length)
		if isa.IsBasicBlockEnd(inst.Op) {
			t.EndsBlock = true
			break
		}
	}
	return t, nil
}
