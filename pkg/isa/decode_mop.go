package isa

import "github.com/rvsandbox/rvvm/pkg/rverr"

// customOpcodeMop is the RISC-V "custom-0" opcode (0b0001011), reserved by
// the base ISA for vendor extensions. The MOP fusion set lives here rather
// than aliasing an existing opcode's unused encodings, so a MOP-aware
// decoder and a strict standard-only decoder can never disagree about
// what a bit pattern means.
const customOpcodeMop = 0b0001011

// MOP funct3 values. Grounded on the cost-model opcode names
// OP_WIDE_MUL/OP_WIDE_MULU/OP_WIDE_MULSU/OP_WIDE_DIV/OP_WIDE_DIVU/
// OP_FAR_JUMP_REL/OP_FAR_JUMP_ABS from the reference engine's cost tables;
// the fusion set widens a multiply or divide across a register pair (Rd,
// Rd+1 hold the low/high halves) or performs a jump to pc+imm
// (PC-relative) or rs1+imm (absolute), where imm is the sign-extended
// 12-bit I-type immediate, so the reach is smaller than JAL's.
const (
	mopWideMul uint32 = iota
	mopWideMulU
	mopWideMulSU
	mopWideDiv
	mopWideDivU
	mopFarJumpRel
	mopFarJumpAbs
)

func decodeMop(width uint, raw uint32) (Inst, error) {
	f3 := funct3(raw)
	base := Inst{Length: 4, Rd: rd(raw), Rs1: rs1(raw), Rs2: rs2(raw)}
	switch f3 {
	case mopWideMul:
		base.Op = OpMopWideMul
	case mopWideMulU:
		base.Op = OpMopWideMulU
	case mopWideMulSU:
		base.Op = OpMopWideMulSU
	case mopWideDiv:
		base.Op = OpMopWideDiv
	case mopWideDivU:
		base.Op = OpMopWideDivU
	case mopFarJumpRel:
		return Inst{Op: OpMopFarJumpRel, Length: 4, Rd: rd(raw), Rs1: rs1(raw), Imm: iImmediate(raw)}, nil
	case mopFarJumpAbs:
		return Inst{Op: OpMopFarJumpAbs, Length: 4, Rd: rd(raw), Rs1: rs1(raw), Imm: iImmediate(raw)}, nil
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}
	// Wide multiply/divide fusion writes a register pair (Rd, Rd+1) for
	// the low/high halves; parity of Rd is validated by the executor,
	// not here, since that is a semantic constraint rather than a
	// decoding one.
	return base, nil
}
