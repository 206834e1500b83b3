package machine

import (
	"github.com/rvsandbox/rvvm/pkg/isa"
	"github.com/rvsandbox/rvvm/pkg/reg"
)

// execA executes the A-extension load-reserved/store-conditional and
// atomic-memory-op instructions. The dispatch loop is single-threaded, so
// every AMO is trivially atomic; the reservation kept for LR/SC exists
// only to give SC its correct success/failure semantics, not to arbitrate
// concurrent access.
func (m *Machine[T]) execA(inst isa.Inst) error {
	switch inst.Op {
	case isa.OpLRW, isa.OpLRD:
		return m.execLR(inst)
	case isa.OpSCW, isa.OpSCD:
		return m.execSC(inst)
	default:
		return m.execAMO(inst)
	}
}

func (m *Machine[T]) execLR(inst isa.Inst) error {
	addr := reg.ToUint64(m.Regs.Get(uint(inst.Rs1)))
	var err error
	var val T
	if inst.Op == isa.OpLRW {
		var v uint32
		v, err = m.Mem.Load32(addr)
		val = reg.FromInt32[T](int32(v))
	} else {
		var v uint64
		v, err = m.Mem.Load64(addr)
		val = reg.FromUint64[T](v)
	}
	if err != nil {
		return err
	}
	m.res = reservation{valid: true, addr: addr}
	m.Regs.Set(uint(inst.Rd), val)
	return nil
}

func (m *Machine[T]) execSC(inst isa.Inst) error {
	addr := reg.ToUint64(m.Regs.Get(uint(inst.Rs1)))
	if !m.res.valid || m.res.addr != addr {
		m.Regs.Set(uint(inst.Rd), 1) // failure
		return nil
	}
	m.res.valid = false
	v := m.Regs.Get(uint(inst.Rs2))
	var err error
	var n uint64
	if inst.Op == isa.OpSCW {
		err, n = m.Mem.Store32(addr, reg.ToUint32(v)), 4
	} else {
		err, n = m.Mem.Store64(addr, reg.ToUint64(v)), 8
	}
	if err != nil {
		return err
	}
	m.invalidateStore(addr, n)
	m.Regs.Set(uint(inst.Rd), 0) // success
	return nil
}

func (m *Machine[T]) execAMO(inst isa.Inst) error {
	addr := reg.ToUint64(m.Regs.Get(uint(inst.Rs1)))
	operand := m.Regs.Get(uint(inst.Rs2))
	wide := isAMOWide(inst.Op)

	old, err := m.amoLoad(addr, wide)
	if err != nil {
		return err
	}
	next := amoCombine(inst.Op, old, operand)
	if err := m.amoStore(addr, next, wide); err != nil {
		return err
	}
	m.Regs.Set(uint(inst.Rd), old)
	return nil
}

func isAMOWide(op isa.Op) bool {
	switch op {
	case isa.OpAMOSWAPD, isa.OpAMOADDD, isa.OpAMOXORD, isa.OpAMOANDD, isa.OpAMOORD,
		isa.OpAMOMIND, isa.OpAMOMAXD, isa.OpAMOMINUD, isa.OpAMOMAXUD:
		return true
	default:
		return false
	}
}

func (m *Machine[T]) amoLoad(addr uint64, wide bool) (T, error) {
	if wide {
		v, err := m.Mem.Load64(addr)
		return reg.FromUint64[T](v), err
	}
	v, err := m.Mem.Load32(addr)
	return reg.FromInt32[T](int32(v)), err
}

func (m *Machine[T]) amoStore(addr uint64, v T, wide bool) error {
	var err error
	n := uint64(4)
	if wide {
		err, n = m.Mem.Store64(addr, reg.ToUint64(v)), 8
	} else {
		err = m.Mem.Store32(addr, reg.ToUint32(v))
	}
	if err != nil {
		return err
	}
	m.invalidateStore(addr, n)
	return nil
}

func amoCombine[T reg.Word](op isa.Op, old, operand T) T {
	switch op {
	case isa.OpAMOSWAPW, isa.OpAMOSWAPD:
		return operand
	case isa.OpAMOADDW, isa.OpAMOADDD:
		return reg.Add(old, operand)
	case isa.OpAMOXORW, isa.OpAMOXORD:
		return reg.Xor(old, operand)
	case isa.OpAMOANDW, isa.OpAMOANDD:
		return reg.And(old, operand)
	case isa.OpAMOORW, isa.OpAMOORD:
		return reg.Or(old, operand)
	case isa.OpAMOMINW, isa.OpAMOMIND:
		if reg.ToInt64(old) < reg.ToInt64(operand) {
			return old
		}
		return operand
	case isa.OpAMOMAXW, isa.OpAMOMAXD:
		if reg.ToInt64(old) > reg.ToInt64(operand) {
			return old
		}
		return operand
	case isa.OpAMOMINUW, isa.OpAMOMINUD:
		if reg.ToUint64(old) < reg.ToUint64(operand) {
			return old
		}
		return operand
	case isa.OpAMOMAXUW, isa.OpAMOMAXUD:
		if reg.ToUint64(old) > reg.ToUint64(operand) {
			return old
		}
		return operand
	default:
		return old
	}
}
