package machine

import (
	"math/bits"

	"github.com/rvsandbox/rvvm/pkg/isa"
	"github.com/rvsandbox/rvvm/pkg/reg"
	"github.com/rvsandbox/rvvm/pkg/rverr"
)

// execB executes the recognised bitmanip subset. Register-width ops use
// pkg/reg's generic helpers directly; the RV64 .UW/W variants truncate to
// 32 bits first, matching the equivalent treatment in execM.
func (m *Machine[T]) execB(inst isa.Inst) error {
	r := &m.Regs
	a := r.Get(uint(inst.Rs1))
	switch inst.Op {
	case isa.OpANDN:
		r.Set(uint(inst.Rd), reg.And(a, reg.Not(r.Get(uint(inst.Rs2)))))
	case isa.OpORN:
		r.Set(uint(inst.Rd), reg.Or(a, reg.Not(r.Get(uint(inst.Rs2)))))
	case isa.OpXNOR:
		r.Set(uint(inst.Rd), reg.Not(reg.Xor(a, r.Get(uint(inst.Rs2)))))
	case isa.OpROL:
		r.Set(uint(inst.Rd), reg.Rotl(a, uint(reg.ToUint64(r.Get(uint(inst.Rs2))))))
	case isa.OpROR:
		r.Set(uint(inst.Rd), reg.Rotr(a, uint(reg.ToUint64(r.Get(uint(inst.Rs2))))))
	case isa.OpRORI:
		r.Set(uint(inst.Rd), reg.Rotr(a, uint(inst.Imm)))
	case isa.OpBCLR:
		r.Set(uint(inst.Rd), bitOp(a, uint(reg.ToUint64(r.Get(uint(inst.Rs2)))), bitClr[T]))
	case isa.OpBSET:
		r.Set(uint(inst.Rd), bitOp(a, uint(reg.ToUint64(r.Get(uint(inst.Rs2)))), bitSet[T]))
	case isa.OpBINV:
		r.Set(uint(inst.Rd), bitOp(a, uint(reg.ToUint64(r.Get(uint(inst.Rs2)))), bitInv[T]))
	case isa.OpBEXT:
		r.Set(uint(inst.Rd), bitExt(a, uint(reg.ToUint64(r.Get(uint(inst.Rs2))))))
	case isa.OpMIN:
		r.Set(uint(inst.Rd), minMax(a, r.Get(uint(inst.Rs2)), true, true))
	case isa.OpMINU:
		r.Set(uint(inst.Rd), minMax(a, r.Get(uint(inst.Rs2)), false, true))
	case isa.OpMAX:
		r.Set(uint(inst.Rd), minMax(a, r.Get(uint(inst.Rs2)), true, false))
	case isa.OpMAXU:
		r.Set(uint(inst.Rd), minMax(a, r.Get(uint(inst.Rs2)), false, false))
	case isa.OpCLMUL:
		r.Set(uint(inst.Rd), clmul(a, r.Get(uint(inst.Rs2)), false))
	case isa.OpCLMULH:
		r.Set(uint(inst.Rd), clmulh(a, r.Get(uint(inst.Rs2))))
	case isa.OpCLMULR:
		r.Set(uint(inst.Rd), clmul(a, r.Get(uint(inst.Rs2)), true))
	case isa.OpSH1ADD:
		r.Set(uint(inst.Rd), reg.Add(reg.Shl(a, 1), r.Get(uint(inst.Rs2))))
	case isa.OpSH2ADD:
		r.Set(uint(inst.Rd), reg.Add(reg.Shl(a, 2), r.Get(uint(inst.Rs2))))
	case isa.OpSH3ADD:
		r.Set(uint(inst.Rd), reg.Add(reg.Shl(a, 3), r.Get(uint(inst.Rs2))))
	case isa.OpCLZ:
		r.Set(uint(inst.Rd), reg.FromUint64[T](uint64(reg.Clz(a))))
	case isa.OpCTZ:
		r.Set(uint(inst.Rd), reg.FromUint64[T](uint64(reg.Ctz(a))))
	case isa.OpCPOP:
		r.Set(uint(inst.Rd), reg.FromUint64[T](uint64(reg.Popcount(a))))
	case isa.OpSEXTB:
		r.Set(uint(inst.Rd), reg.SignExtendFrom(a, 7))
	case isa.OpSEXTH:
		r.Set(uint(inst.Rd), reg.SignExtendFrom(a, 15))
	case isa.OpORCB:
		r.Set(uint(inst.Rd), orcb(a))
	case isa.OpREV8:
		r.Set(uint(inst.Rd), rev8(a))

	case isa.OpROLW:
		r.Set(uint(inst.Rd), wideRotate(a, r.Get(uint(inst.Rs2)), true))
	case isa.OpRORW:
		r.Set(uint(inst.Rd), wideRotate(a, r.Get(uint(inst.Rs2)), false))
	case isa.OpRORIW:
		v := bits.RotateLeft32(reg.ToUint32(a), -int(inst.Imm))
		r.Set(uint(inst.Rd), reg.FromInt32[T](int32(v)))
	case isa.OpCLZW:
		r.Set(uint(inst.Rd), reg.FromUint64[T](uint64(bits.LeadingZeros32(reg.ToUint32(a)))))
	case isa.OpCTZW:
		r.Set(uint(inst.Rd), reg.FromUint64[T](uint64(bits.TrailingZeros32(reg.ToUint32(a)))))
	case isa.OpCPOPW:
		r.Set(uint(inst.Rd), reg.FromUint64[T](uint64(bits.OnesCount32(reg.ToUint32(a)))))
	case isa.OpADDUW:
		r.Set(uint(inst.Rd), reg.Add(reg.FromUint64[T](uint64(reg.ToUint32(a))), r.Get(uint(inst.Rs2))))
	case isa.OpZEXTH:
		r.Set(uint(inst.Rd), reg.FromUint64[T](uint64(uint16(reg.ToUint32(a)))))
	case isa.OpSH1ADDUW:
		r.Set(uint(inst.Rd), reg.Add(reg.FromUint64[T](uint64(reg.ToUint32(a))<<1), r.Get(uint(inst.Rs2))))
	case isa.OpSH2ADDUW:
		r.Set(uint(inst.Rd), reg.Add(reg.FromUint64[T](uint64(reg.ToUint32(a))<<2), r.Get(uint(inst.Rs2))))
	case isa.OpSH3ADDUW:
		r.Set(uint(inst.Rd), reg.Add(reg.FromUint64[T](uint64(reg.ToUint32(a))<<3), r.Get(uint(inst.Rs2))))
	case isa.OpSLLIUW:
		r.Set(uint(inst.Rd), reg.FromUint64[T](uint64(reg.ToUint32(a))<<uint(inst.Imm)))

	default:
		return rverr.ErrInvalidOp
	}
	return nil
}

func bitClr[T reg.Word](v T, pos uint) T { return v &^ (T(1) << pos) }
func bitSet[T reg.Word](v T, pos uint) T { return v | (T(1) << pos) }
func bitInv[T reg.Word](v T, pos uint) T { return v ^ (T(1) << pos) }

func bitOp[T reg.Word](a T, shamt uint, f func(T, uint) T) T {
	w := reg.Width[T]()
	return f(a, shamt&(w-1))
}

func bitExt[T reg.Word](a T, shamt uint) T {
	w := reg.Width[T]()
	pos := shamt & (w - 1)
	return (a >> pos) & 1
}

func minMax[T reg.Word](a, b T, signed, min bool) T {
	var less bool
	if signed {
		less = reg.ToInt64(a) < reg.ToInt64(b)
	} else {
		less = reg.ToUint64(a) < reg.ToUint64(b)
	}
	if min == less {
		return a
	}
	return b
}

func clmul[T reg.Word](a, b T, reversed bool) T {
	w := reg.Width[T]()
	var result uint64
	ua, ub := reg.ToUint64(a), reg.ToUint64(b)
	for i := uint(0); i < w; i++ {
		if (ub>>i)&1 != 0 {
			result ^= ua << i
		}
	}
	if reversed {
		result >>= 1
	}
	return reg.FromUint64[T](result)
}

func clmulh[T reg.Word](a, b T) T {
	w := reg.Width[T]()
	var result uint64
	ua, ub := reg.ToUint64(a), reg.ToUint64(b)
	for i := uint(0); i < w; i++ {
		if (ub>>i)&1 != 0 {
			result ^= ua >> (w - i)
		}
	}
	return reg.FromUint64[T](result)
}

func orcb[T reg.Word](a T) T {
	w := reg.Width[T]()
	u := reg.ToUint64(a)
	var out uint64
	for i := uint(0); i < w/8; i++ {
		b := (u >> (i * 8)) & 0xff
		if b != 0 {
			out |= uint64(0xff) << (i * 8)
		}
	}
	return reg.FromUint64[T](out)
}

func rev8[T reg.Word](a T) T {
	if reg.Width[T]() == 32 {
		return reg.FromUint64[T](uint64(bits.ReverseBytes32(reg.ToUint32(a))))
	}
	return reg.FromUint64[T](bits.ReverseBytes64(reg.ToUint64(a)))
}

func wideRotate[T reg.Word](a, b T, left bool) T {
	amt := int(reg.ToUint32(b) & 31)
	if !left {
		amt = -amt
	}
	v := bits.RotateLeft32(reg.ToUint32(a), amt)
	return reg.FromInt32[T](int32(v))
}
