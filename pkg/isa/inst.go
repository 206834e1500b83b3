// Package isa implements the RISC-V decoder of spec §4.3: a pure function
// from a little-endian instruction stream to the packed instruction
// representation of spec §3. Compressed (C) encodings decode into the Op
// of the base instruction they expand to, carrying Length == 2 instead of
// 4 — semantics never need to know whether an instruction arrived
// compressed, only how far to advance the PC.
package isa

// Op is the packed instruction's opcode, a small integer rather than a
// struct tag. Traces hold decoded Inst values, not per-instruction handler
// references, and pkg/machine dispatches on Op with switch statements.
type Op uint16

const (
	OpInvalid Op = iota

	// OpTraceEnd is the opcode of the TraceEnd sentinel. pkg/trace does
	// not append it to traces; a trace ends at len(Instructions).
	OpTraceEnd

	// RV32I / RV64I base.
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpLWU
	OpLD
	OpSB
	OpSH
	OpSW
	OpSD
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpFENCE
	OpFENCEI
	OpECALL
	OpEBREAK
	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW
	OpADDW
	OpSUBW
	OpSLLW
	OpSRLW
	OpSRAW

	// M extension.
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
	OpMULW
	OpDIVW
	OpDIVUW
	OpREMW
	OpREMUW

	// A extension.
	OpLRW
	OpSCW
	OpAMOSWAPW
	OpAMOADDW
	OpAMOXORW
	OpAMOANDW
	OpAMOORW
	OpAMOMINW
	OpAMOMAXW
	OpAMOMINUW
	OpAMOMAXUW
	OpLRD
	OpSCD
	OpAMOSWAPD
	OpAMOADDD
	OpAMOXORD
	OpAMOANDD
	OpAMOORD
	OpAMOMIND
	OpAMOMAXD
	OpAMOMINUD
	OpAMOMAXUD

	// B extension (Zbb/Zbc/Zbs-style subset recognised by the decoder).
	OpANDN
	OpORN
	OpXNOR
	OpROL
	OpROR
	OpRORI
	OpBCLR
	OpBSET
	OpBINV
	OpBEXT
	OpMIN
	OpMINU
	OpMAX
	OpMAXU
	OpCLMUL
	OpCLMULH
	OpCLMULR
	OpSH1ADD
	OpSH2ADD
	OpSH3ADD
	OpCLZ
	OpCTZ
	OpCPOP
	OpSEXTB
	OpSEXTH
	OpORCB
	OpREV8
	OpROLW
	OpRORW
	OpRORIW
	OpCLZW
	OpCTZW
	OpCPOPW
	OpADDUW
	OpZEXTH
	OpSH1ADDUW
	OpSH2ADDUW
	OpSH3ADDUW
	OpSLLIUW

	// MOP vendor fusion set (spec §4.3, §9 "out-of-scope but referenced").
	OpMopWideMul
	OpMopWideMulU
	OpMopWideMulSU
	OpMopWideDiv
	OpMopWideDivU
	OpMopFarJumpRel
	OpMopFarJumpAbs
)

// Inst is the packed instruction of spec §3: an opcode, the byte length
// consumed from the stream (2 or 4), and up to three operand slots. The
// representation is a plain struct rather than a literal packed 64-bit
// word — spec §9 explicitly allows a tagged-variant approach, and the
// struct form is what lets pkg/trace and pkg/machine stay free of manual
// bit-twiddling when reading operands back out.
type Inst struct {
	Op     Op
	Length uint8

	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Imm carries the instruction's immediate, already sign- or
	// zero-extended to int64 as the operation requires.
	Imm int64

	// Aux carries small structured fields that do not fit Rd/Rs1/Rs2/Imm:
	// AMO aq/rl bits and FENCE pred/succ (bits 27:20). Shift amounts,
	// including those of the *W shift variants, travel in Imm. Most
	// opcodes leave it zero.
	Aux uint32
}

// TraceEnd is the end-of-trace sentinel instruction. pkg/trace never
// stores it in a Trace, so nothing in this module emits it.
var TraceEnd = Inst{Op: OpTraceEnd, Length: 0}

// IsTraceEnd reports whether i is the TraceEnd sentinel.
func (i Inst) IsTraceEnd() bool { return i.Op == OpTraceEnd }

// IsBasicBlockEnd reports whether op terminates a basic block: every
// branch and jump, plus ECALL/EBREAK, per spec §4.3.
func IsBasicBlockEnd(op Op) bool {
	switch op {
	case OpJAL, OpJALR,
		OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU,
		OpECALL, OpEBREAK,
		OpMopFarJumpRel, OpMopFarJumpAbs:
		return true
	default:
		return false
	}
}
