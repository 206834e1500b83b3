package machine

import "github.com/rvsandbox/rvvm/pkg/isa"

// CostModel assigns a cycle cost to an instruction, charged once it has
// executed without a trap, feeding the cycle budget enforced by Machine.Run (spec §4.5, §6). Two
// schedules are provided, matching the reference engine's constant vs.
// estimate cost models (original_source/src/cost_model.rs): a trivial
// one-cycle-per-instruction model for callers that only care about an
// instruction count limit, and a model that weighs memory and
// multiply/divide instructions more heavily for callers that want cycle
// counts to approximate real hardware.
type CostModel interface {
	Cost(op isa.Op) uint64
}

// ConstantCost charges exactly one cycle per instruction regardless of
// opcode.
type ConstantCost struct{}

func (ConstantCost) Cost(isa.Op) uint64 { return 1 }

// EstimateCost charges a heavier cost for multiply/divide and the MOP
// wide-arithmetic fusion set, and a small surcharge for memory
// instructions, approximating relative hardware cost. Weights are
// grounded on the relative ordering in
// original_source/src/instructions/cost_model.rs (wide divide costing
// roughly 6x a wide multiply, multiply/divide costing more than a plain
// ALU op, memory ops costing a little more than ALU ops).
type EstimateCost struct{}

func (EstimateCost) Cost(op isa.Op) uint64 {
	switch op {
	case isa.OpMopWideDiv, isa.OpMopWideDivU:
		return 32
	case isa.OpMopWideMul, isa.OpMopWideMulU, isa.OpMopWideMulSU:
		return 5
	case isa.OpMopFarJumpRel, isa.OpMopFarJumpAbs:
		return 3
	case isa.OpMUL, isa.OpMULH, isa.OpMULHSU, isa.OpMULHU, isa.OpMULW:
		return 5
	case isa.OpDIV, isa.OpDIVU, isa.OpREM, isa.OpREMU,
		isa.OpDIVW, isa.OpDIVUW, isa.OpREMW, isa.OpREMUW:
		return 16
	case isa.OpLB, isa.OpLH, isa.OpLW, isa.OpLBU, isa.OpLHU, isa.OpLWU, isa.OpLD,
		isa.OpSB, isa.OpSH, isa.OpSW, isa.OpSD:
		return 2
	case isa.OpLRW, isa.OpLRD, isa.OpSCW, isa.OpSCD,
		isa.OpAMOSWAPW, isa.OpAMOADDW, isa.OpAMOXORW, isa.OpAMOANDW, isa.OpAMOORW,
		isa.OpAMOMINW, isa.OpAMOMAXW, isa.OpAMOMINUW, isa.OpAMOMAXUW,
		isa.OpAMOSWAPD, isa.OpAMOADDD, isa.OpAMOXORD, isa.OpAMOANDD, isa.OpAMOORD,
		isa.OpAMOMIND, isa.OpAMOMAXD, isa.OpAMOMINUD, isa.OpAMOMAXUD:
		return 4
	default:
		return 1
	}
}
