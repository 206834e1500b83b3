package machine

import (
	"github.com/rvsandbox/rvvm/pkg/isa"
	"github.com/rvsandbox/rvvm/pkg/rverr"
)

// Execute runs one decoded instruction whose first byte sits at pc.
// branched reports whether the instruction itself set m.Regs.PC (a
// taken branch, jump, or far jump); when false, the caller is responsible
// for advancing PC by inst.Length.
func (m *Machine[T]) Execute(pc uint64, inst isa.Inst) (branched bool, err error) {
	defer func() { m.Regs.Set(0, 0) }()

	switch {
	case isBaseOp(inst.Op):
		return m.execBase(pc, inst)
	case isMOp(inst.Op):
		return false, m.execM(inst)
	case isAOp(inst.Op):
		return false, m.execA(inst)
	case isBOp(inst.Op):
		return false, m.execB(inst)
	case isMopOp(inst.Op):
		return m.execMop(pc, inst)
	default:
		return false, rverr.ErrInvalidOp
	}
}

func isMOp(op isa.Op) bool {
	switch op {
	case isa.OpMUL, isa.OpMULH, isa.OpMULHSU, isa.OpMULHU,
		isa.OpDIV, isa.OpDIVU, isa.OpREM, isa.OpREMU,
		isa.OpMULW, isa.OpDIVW, isa.OpDIVUW, isa.OpREMW, isa.OpREMUW:
		return true
	default:
		return false
	}
}

func isAOp(op isa.Op) bool {
	switch op {
	case isa.OpLRW, isa.OpSCW, isa.OpAMOSWAPW, isa.OpAMOADDW, isa.OpAMOXORW,
		isa.OpAMOANDW, isa.OpAMOORW, isa.OpAMOMINW, isa.OpAMOMAXW,
		isa.OpAMOMINUW, isa.OpAMOMAXUW,
		isa.OpLRD, isa.OpSCD, isa.OpAMOSWAPD, isa.OpAMOADDD, isa.OpAMOXORD,
		isa.OpAMOANDD, isa.OpAMOORD, isa.OpAMOMIND, isa.OpAMOMAXD,
		isa.OpAMOMINUD, isa.OpAMOMAXUD:
		return true
	default:
		return false
	}
}

func isBOp(op isa.Op) bool {
	switch op {
	case isa.OpANDN, isa.OpORN, isa.OpXNOR, isa.OpROL, isa.OpROR, isa.OpRORI,
		isa.OpBCLR, isa.OpBSET, isa.OpBINV, isa.OpBEXT,
		isa.OpMIN, isa.OpMINU, isa.OpMAX, isa.OpMAXU,
		isa.OpCLMUL, isa.OpCLMULH, isa.OpCLMULR,
		isa.OpSH1ADD, isa.OpSH2ADD, isa.OpSH3ADD,
		isa.OpCLZ, isa.OpCTZ, isa.OpCPOP, isa.OpSEXTB, isa.OpSEXTH,
		isa.OpORCB, isa.OpREV8,
		isa.OpROLW, isa.OpRORW, isa.OpRORIW, isa.OpCLZW, isa.OpCTZW, isa.OpCPOPW,
		isa.OpADDUW, isa.OpZEXTH, isa.OpSH1ADDUW, isa.OpSH2ADDUW, isa.OpSH3ADDUW,
		isa.OpSLLIUW:
		return true
	default:
		return false
	}
}

func isMopOp(op isa.Op) bool {
	switch op {
	case isa.OpMopWideMul, isa.OpMopWideMulU, isa.OpMopWideMulSU,
		isa.OpMopWideDiv, isa.OpMopWideDivU,
		isa.OpMopFarJumpRel, isa.OpMopFarJumpAbs:
		return true
	default:
		return false
	}
}

func isBaseOp(op isa.Op) bool {
	return !isMOp(op) && !isAOp(op) && !isBOp(op) && !isMopOp(op)
}
