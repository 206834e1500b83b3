package machine

import (
	"math/bits"

	"github.com/rvsandbox/rvvm/pkg/isa"
	"github.com/rvsandbox/rvvm/pkg/reg"
	"github.com/rvsandbox/rvvm/pkg/rverr"
)

// execMop executes the vendor MOP fusion set: paired-register wide
// multiply/divide and the two far-jump forms. Wide multiply/divide write
// their low half to Rd and their high half (or remainder, for divide) to
// Rd+1, so callers get a full 2*XLEN result without a second instruction.
func (m *Machine[T]) execMop(pc uint64, inst isa.Inst) (bool, error) {
	r := &m.Regs
	switch inst.Op {
	case isa.OpMopFarJumpRel:
		link := pc + uint64(inst.Length)
		target := uint64(int64(pc) + inst.Imm)
		if inst.Rd != 0 {
			r.Set(uint(inst.Rd), reg.FromUint64[T](link))
		}
		m.setPC(target)
		return true, nil
	case isa.OpMopFarJumpAbs:
		link := pc + uint64(inst.Length)
		base := reg.ToUint64(r.Get(uint(inst.Rs1)))
		target := uint64(int64(base) + inst.Imm)
		if inst.Rd != 0 {
			r.Set(uint(inst.Rd), reg.FromUint64[T](link))
		}
		m.setPC(target)
		return true, nil
	}

	if inst.Rd%2 != 0 {
		return false, rverr.ErrInvalidInstruction
	}
	a, b := r.Get(uint(inst.Rs1)), r.Get(uint(inst.Rs2))
	w := reg.Width[T]()

	switch inst.Op {
	case isa.OpMopWideMul:
		lo, hi := widemul(w, reg.ToUint64(a), reg.ToUint64(b), true, true)
		r.Set(uint(inst.Rd), reg.FromUint64[T](lo))
		r.Set(uint(inst.Rd)+1, reg.FromUint64[T](hi))
	case isa.OpMopWideMulU:
		lo, hi := widemul(w, reg.ToUint64(a), reg.ToUint64(b), false, false)
		r.Set(uint(inst.Rd), reg.FromUint64[T](lo))
		r.Set(uint(inst.Rd)+1, reg.FromUint64[T](hi))
	case isa.OpMopWideMulSU:
		lo, hi := widemul(w, reg.ToUint64(a), reg.ToUint64(b), true, false)
		r.Set(uint(inst.Rd), reg.FromUint64[T](lo))
		r.Set(uint(inst.Rd)+1, reg.FromUint64[T](hi))
	case isa.OpMopWideDiv:
		q, rem := widediv(w, reg.ToInt64(a), reg.ToInt64(b), true)
		r.Set(uint(inst.Rd), reg.FromInt64[T](q))
		r.Set(uint(inst.Rd)+1, reg.FromInt64[T](rem))
	case isa.OpMopWideDivU:
		q, rem := widediv(w, int64(reg.ToUint64(a)), int64(reg.ToUint64(b)), false)
		r.Set(uint(inst.Rd), reg.FromInt64[T](q))
		r.Set(uint(inst.Rd)+1, reg.FromInt64[T](rem))
	default:
		return false, rverr.ErrInvalidOp
	}
	return false, nil
}

// widemul computes a*b at width w, returning (low, high) halves. signedA
// and signedB independently select two's-complement interpretation for
// each operand, covering the mul/mulu/mulsu trio with one implementation.
func widemul(w uint, a, b uint64, signedA, signedB bool) (lo, hi uint64) {
	if w == 32 {
		sa, sb := int64(int32(a)), int64(int32(b))
		if !signedA {
			sa = int64(uint32(a))
		}
		if !signedB {
			sb = int64(uint32(b))
		}
		p := sa * sb
		return uint64(uint32(p)), uint64(uint32(p >> 32))
	}
	hiu, lo := bits.Mul64(a, b)
	if signedA && int64(a) < 0 {
		hiu -= b
	}
	if signedB && int64(b) < 0 {
		hiu -= a
	}
	return lo, hiu
}

func widediv(w uint, a, b int64, signed bool) (q, rem int64) {
	if b == 0 {
		if signed {
			return -1, a
		}
		return int64(^uint64(0)), a
	}
	if signed {
		minVal := int64(-1) << (w - 1)
		if a == minVal && b == -1 {
			return a, 0
		}
		return a / b, a % b
	}
	ua, ub := uint64(a), uint64(b)
	return int64(ua / ub), int64(ua % ub)
}
