package machine

import (
	"github.com/rvsandbox/rvvm/pkg/isa"
	"github.com/rvsandbox/rvvm/pkg/reg"
	"github.com/rvsandbox/rvvm/pkg/rverr"
)

// execM executes the M-extension multiply/divide/remainder instructions,
// including the RV64-only *W word variants which operate on the low 32
// bits of their operands and sign-extend the 32-bit result back to T
// (spec's instructions/m.rs-grounded semantics, e.g. MULW: 32-bit
// zero-width multiply truncated, then sign-extended to XLEN).
func (m *Machine[T]) execM(inst isa.Inst) error {
	r := &m.Regs
	a, b := r.Get(uint(inst.Rs1)), r.Get(uint(inst.Rs2))
	switch inst.Op {
	case isa.OpMUL:
		r.Set(uint(inst.Rd), reg.Mul(a, b))
	case isa.OpMULH:
		r.Set(uint(inst.Rd), reg.MulhSS(a, b))
	case isa.OpMULHSU:
		r.Set(uint(inst.Rd), reg.MulhSU(a, b))
	case isa.OpMULHU:
		r.Set(uint(inst.Rd), reg.MulhUU(a, b))
	case isa.OpDIV:
		r.Set(uint(inst.Rd), reg.SDiv(a, b))
	case isa.OpDIVU:
		r.Set(uint(inst.Rd), reg.UDiv(a, b))
	case isa.OpREM:
		r.Set(uint(inst.Rd), reg.SRem(a, b))
	case isa.OpREMU:
		r.Set(uint(inst.Rd), reg.URem(a, b))

	case isa.OpMULW:
		v := int32(reg.ToUint32(a)) * int32(reg.ToUint32(b))
		r.Set(uint(inst.Rd), reg.FromInt32[T](v))
	case isa.OpDIVW:
		r.Set(uint(inst.Rd), reg.FromInt32[T](divw(int32(reg.ToUint32(a)), int32(reg.ToUint32(b)))))
	case isa.OpDIVUW:
		r.Set(uint(inst.Rd), reg.FromInt32[T](int32(divuw(reg.ToUint32(a), reg.ToUint32(b)))))
	case isa.OpREMW:
		r.Set(uint(inst.Rd), reg.FromInt32[T](remw(int32(reg.ToUint32(a)), int32(reg.ToUint32(b)))))
	case isa.OpREMUW:
		r.Set(uint(inst.Rd), reg.FromInt32[T](int32(remuw(reg.ToUint32(a), reg.ToUint32(b)))))

	default:
		return rverr.ErrInvalidOp
	}
	return nil
}

func divw(a, b int32) int32 {
	if b == 0 {
		return -1
	}
	if a == -2147483648 && b == -1 {
		return a
	}
	return a / b
}

func divuw(a, b uint32) uint32 {
	if b == 0 {
		return 0xffffffff
	}
	return a / b
}

func remw(a, b int32) int32 {
	if b == 0 {
		return a
	}
	if a == -2147483648 && b == -1 {
		return 0
	}
	return a % b
}

func remuw(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}
