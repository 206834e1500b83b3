package machine

import (
	"github.com/rvsandbox/rvvm/pkg/isa"
	"github.com/rvsandbox/rvvm/pkg/reg"
	"github.com/rvsandbox/rvvm/pkg/rverr"
)

func (m *Machine[T]) syscallContext(pc uint64) SyscallContext {
	return SyscallContext{
		GetReg: func(i uint) uint64 { return reg.ToUint64(m.Regs.Get(i)) },
		SetReg: func(i uint, v uint64) { m.Regs.Set(i, reg.FromUint64[T](v)) },
		PC:     func() uint64 { return pc },
	}
}

// execBase executes every RV32I/RV64I base instruction.
func (m *Machine[T]) execBase(pc uint64, inst isa.Inst) (bool, error) {
	r := &m.Regs
	switch inst.Op {
	case isa.OpLUI:
		r.Set(uint(inst.Rd), reg.FromInt64[T](inst.Imm))
		return false, nil
	case isa.OpAUIPC:
		r.Set(uint(inst.Rd), reg.Add(reg.FromUint64[T](pc), reg.FromInt64[T](inst.Imm)))
		return false, nil

	case isa.OpJAL:
		r.Set(uint(inst.Rd), reg.FromUint64[T](pc+uint64(inst.Length)))
		m.setPC(uint64(int64(pc) + inst.Imm))
		return true, nil
	case isa.OpJALR:
		link := pc + uint64(inst.Length)
		target := reg.Add(r.Get(uint(inst.Rs1)), reg.FromInt64[T](inst.Imm))
		target &^= 1
		r.Set(uint(inst.Rd), reg.FromUint64[T](link))
		m.setPC(reg.ToUint64(target))
		return true, nil

	case isa.OpBEQ, isa.OpBNE, isa.OpBLT, isa.OpBGE, isa.OpBLTU, isa.OpBGEU:
		taken := evalBranch(inst.Op, r.Get(uint(inst.Rs1)), r.Get(uint(inst.Rs2)))
		if !taken {
			return false, nil
		}
		m.setPC(uint64(int64(pc) + inst.Imm))
		return true, nil

	case isa.OpLB, isa.OpLH, isa.OpLW, isa.OpLBU, isa.OpLHU, isa.OpLWU, isa.OpLD:
		return false, m.execLoad(inst)
	case isa.OpSB, isa.OpSH, isa.OpSW, isa.OpSD:
		return false, m.execStore(inst)

	case isa.OpADDI:
		r.Set(uint(inst.Rd), reg.Add(r.Get(uint(inst.Rs1)), reg.FromInt64[T](inst.Imm)))
	case isa.OpSLTI:
		r.Set(uint(inst.Rd), boolT[T](reg.ToInt64(r.Get(uint(inst.Rs1))) < inst.Imm))
	case isa.OpSLTIU:
		r.Set(uint(inst.Rd), boolT[T](reg.ToUint64(r.Get(uint(inst.Rs1))) < uint64(inst.Imm)))
	case isa.OpXORI:
		r.Set(uint(inst.Rd), reg.Xor(r.Get(uint(inst.Rs1)), reg.FromInt64[T](inst.Imm)))
	case isa.OpORI:
		r.Set(uint(inst.Rd), reg.Or(r.Get(uint(inst.Rs1)), reg.FromInt64[T](inst.Imm)))
	case isa.OpANDI:
		r.Set(uint(inst.Rd), reg.And(r.Get(uint(inst.Rs1)), reg.FromInt64[T](inst.Imm)))
	case isa.OpSLLI:
		r.Set(uint(inst.Rd), reg.Shl(r.Get(uint(inst.Rs1)), uint(inst.Imm)))
	case isa.OpSRLI:
		r.Set(uint(inst.Rd), reg.Shr(r.Get(uint(inst.Rs1)), uint(inst.Imm)))
	case isa.OpSRAI:
		r.Set(uint(inst.Rd), reg.Sar(r.Get(uint(inst.Rs1)), uint(inst.Imm)))

	case isa.OpADD:
		r.Set(uint(inst.Rd), reg.Add(r.Get(uint(inst.Rs1)), r.Get(uint(inst.Rs2))))
	case isa.OpSUB:
		r.Set(uint(inst.Rd), reg.Sub(r.Get(uint(inst.Rs1)), r.Get(uint(inst.Rs2))))
	case isa.OpSLL:
		r.Set(uint(inst.Rd), reg.Shl(r.Get(uint(inst.Rs1)), uint(reg.ToUint64(r.Get(uint(inst.Rs2))))))
	case isa.OpSLT:
		r.Set(uint(inst.Rd), boolT[T](reg.ToInt64(r.Get(uint(inst.Rs1))) < reg.ToInt64(r.Get(uint(inst.Rs2)))))
	case isa.OpSLTU:
		r.Set(uint(inst.Rd), boolT[T](reg.ToUint64(r.Get(uint(inst.Rs1))) < reg.ToUint64(r.Get(uint(inst.Rs2)))))
	case isa.OpXOR:
		r.Set(uint(inst.Rd), reg.Xor(r.Get(uint(inst.Rs1)), r.Get(uint(inst.Rs2))))
	case isa.OpSRL:
		r.Set(uint(inst.Rd), reg.Shr(r.Get(uint(inst.Rs1)), uint(reg.ToUint64(r.Get(uint(inst.Rs2))))))
	case isa.OpSRA:
		r.Set(uint(inst.Rd), reg.Sar(r.Get(uint(inst.Rs1)), uint(reg.ToUint64(r.Get(uint(inst.Rs2))))))
	case isa.OpOR:
		r.Set(uint(inst.Rd), reg.Or(r.Get(uint(inst.Rs1)), r.Get(uint(inst.Rs2))))
	case isa.OpAND:
		r.Set(uint(inst.Rd), reg.And(r.Get(uint(inst.Rs1)), r.Get(uint(inst.Rs2))))

	case isa.OpADDIW:
		v := int32(reg.ToUint32(r.Get(uint(inst.Rs1)))) + int32(inst.Imm)
		r.Set(uint(inst.Rd), reg.FromInt32[T](v))
	case isa.OpSLLIW:
		v := int32(reg.ToUint32(r.Get(uint(inst.Rs1))) << uint(inst.Imm))
		r.Set(uint(inst.Rd), reg.FromInt32[T](v))
	case isa.OpSRLIW:
		v := int32(reg.ToUint32(r.Get(uint(inst.Rs1))) >> uint(inst.Imm))
		r.Set(uint(inst.Rd), reg.FromInt32[T](v))
	case isa.OpSRAIW:
		v := int32(reg.ToUint32(r.Get(uint(inst.Rs1)))) >> uint(inst.Imm)
		r.Set(uint(inst.Rd), reg.FromInt32[T](v))
	case isa.OpADDW:
		v := int32(reg.ToUint32(r.Get(uint(inst.Rs1)))) + int32(reg.ToUint32(r.Get(uint(inst.Rs2))))
		r.Set(uint(inst.Rd), reg.FromInt32[T](v))
	case isa.OpSUBW:
		v := int32(reg.ToUint32(r.Get(uint(inst.Rs1)))) - int32(reg.ToUint32(r.Get(uint(inst.Rs2))))
		r.Set(uint(inst.Rd), reg.FromInt32[T](v))
	case isa.OpSLLW:
		v := int32(reg.ToUint32(r.Get(uint(inst.Rs1))) << (reg.ToUint32(r.Get(uint(inst.Rs2))) & 31))
		r.Set(uint(inst.Rd), reg.FromInt32[T](v))
	case isa.OpSRLW:
		v := int32(reg.ToUint32(r.Get(uint(inst.Rs1))) >> (reg.ToUint32(r.Get(uint(inst.Rs2))) & 31))
		r.Set(uint(inst.Rd), reg.FromInt32[T](v))
	case isa.OpSRAW:
		v := int32(reg.ToUint32(r.Get(uint(inst.Rs1)))) >> (reg.ToUint32(r.Get(uint(inst.Rs2))) & 31)
		r.Set(uint(inst.Rd), reg.FromInt32[T](v))

	case isa.OpFENCE, isa.OpFENCEI:
		// Single dispatch loop, single address space: no reordering to
		// order against.

	case isa.OpECALL:
		if err := m.Host.Ecall(m.syscallContext(pc)); err != nil {
			return false, err
		}
	case isa.OpEBREAK:
		if err := m.Host.Debug(m.syscallContext(pc)); err != nil {
			return false, err
		}

	default:
		return false, rverr.ErrInvalidOp
	}
	return false, nil
}

func evalBranch[T reg.Word](op isa.Op, a, b T) bool {
	switch op {
	case isa.OpBEQ:
		return a == b
	case isa.OpBNE:
		return a != b
	case isa.OpBLT:
		return reg.ToInt64(a) < reg.ToInt64(b)
	case isa.OpBGE:
		return reg.ToInt64(a) >= reg.ToInt64(b)
	case isa.OpBLTU:
		return reg.ToUint64(a) < reg.ToUint64(b)
	case isa.OpBGEU:
		return reg.ToUint64(a) >= reg.ToUint64(b)
	default:
		return false
	}
}

func boolT[T reg.Word](v bool) T {
	if v {
		return 1
	}
	return 0
}

func (m *Machine[T]) execLoad(inst isa.Inst) error {
	addr := reg.ToUint64(reg.Add(m.Regs.Get(uint(inst.Rs1)), reg.FromInt64[T](inst.Imm)))
	r := &m.Regs
	switch inst.Op {
	case isa.OpLB:
		v, err := m.Mem.Load8(addr)
		if err != nil {
			return err
		}
		r.Set(uint(inst.Rd), reg.FromInt8[T](int8(v)))
	case isa.OpLBU:
		v, err := m.Mem.Load8(addr)
		if err != nil {
			return err
		}
		r.Set(uint(inst.Rd), reg.FromUint8[T](v))
	case isa.OpLH:
		v, err := m.Mem.Load16(addr)
		if err != nil {
			return err
		}
		r.Set(uint(inst.Rd), reg.FromInt16[T](int16(v)))
	case isa.OpLHU:
		v, err := m.Mem.Load16(addr)
		if err != nil {
			return err
		}
		r.Set(uint(inst.Rd), reg.FromUint16[T](v))
	case isa.OpLW:
		v, err := m.Mem.Load32(addr)
		if err != nil {
			return err
		}
		r.Set(uint(inst.Rd), reg.FromInt32[T](int32(v)))
	case isa.OpLWU:
		v, err := m.Mem.Load32(addr)
		if err != nil {
			return err
		}
		r.Set(uint(inst.Rd), reg.FromUint32[T](v))
	case isa.OpLD:
		v, err := m.Mem.Load64(addr)
		if err != nil {
			return err
		}
		r.Set(uint(inst.Rd), reg.FromUint64[T](v))
	default:
		return rverr.ErrInvalidOp
	}
	return nil
}

func (m *Machine[T]) execStore(inst isa.Inst) error {
	addr := reg.ToUint64(reg.Add(m.Regs.Get(uint(inst.Rs1)), reg.FromInt64[T](inst.Imm)))
	v := m.Regs.Get(uint(inst.Rs2))
	var err error
	var n uint64
	switch inst.Op {
	case isa.OpSB:
		err, n = m.Mem.Store8(addr, reg.ToUint8(v)), 1
	case isa.OpSH:
		err, n = m.Mem.Store16(addr, reg.ToUint16(v)), 2
	case isa.OpSW:
		err, n = m.Mem.Store32(addr, reg.ToUint32(v)), 4
	case isa.OpSD:
		err, n = m.Mem.Store64(addr, reg.ToUint64(v)), 8
	default:
		return rverr.ErrInvalidOp
	}
	if err != nil {
		return err
	}
	m.invalidateStore(addr, n)
	return nil
}
