package isa

import "fmt"

// mnemonics maps every non-sentinel Op to its assembly mnemonic,
// generalizing the teacher's pkg/vm.Disassemble (a hand-written switch
// over a dozen opcodes) to the full RV32I/RV64I+M+A+B+MOP set this
// package decodes.
var mnemonics = map[Op]string{
	OpLUI: "lui", OpAUIPC: "auipc", OpJAL: "jal", OpJALR: "jalr",
	OpBEQ: "beq", OpBNE: "bne", OpBLT: "blt", OpBGE: "bge", OpBLTU: "bltu", OpBGEU: "bgeu",
	OpLB: "lb", OpLH: "lh", OpLW: "lw", OpLBU: "lbu", OpLHU: "lhu", OpLWU: "lwu", OpLD: "ld",
	OpSB: "sb", OpSH: "sh", OpSW: "sw", OpSD: "sd",
	OpADDI: "addi", OpSLTI: "slti", OpSLTIU: "sltiu", OpXORI: "xori", OpORI: "ori", OpANDI: "andi",
	OpSLLI: "slli", OpSRLI: "srli", OpSRAI: "srai",
	OpADD: "add", OpSUB: "sub", OpSLL: "sll", OpSLT: "slt", OpSLTU: "sltu",
	OpXOR: "xor", OpSRL: "srl", OpSRA: "sra", OpOR: "or", OpAND: "and",
	OpFENCE: "fence", OpFENCEI: "fence.i", OpECALL: "ecall", OpEBREAK: "ebreak",
	OpADDIW: "addiw", OpSLLIW: "slliw", OpSRLIW: "srliw", OpSRAIW: "sraiw",
	OpADDW: "addw", OpSUBW: "subw", OpSLLW: "sllw", OpSRLW: "srlw", OpSRAW: "sraw",

	OpMUL: "mul", OpMULH: "mulh", OpMULHSU: "mulhsu", OpMULHU: "mulhu",
	OpDIV: "div", OpDIVU: "divu", OpREM: "rem", OpREMU: "remu",
	OpMULW: "mulw", OpDIVW: "divw", OpDIVUW: "divuw", OpREMW: "remw", OpREMUW: "remuw",

	OpLRW: "lr.w", OpSCW: "sc.w",
	OpAMOSWAPW: "amoswap.w", OpAMOADDW: "amoadd.w", OpAMOXORW: "amoxor.w", OpAMOANDW: "amoand.w",
	OpAMOORW: "amoor.w", OpAMOMINW: "amomin.w", OpAMOMAXW: "amomax.w",
	OpAMOMINUW: "amominu.w", OpAMOMAXUW: "amomaxu.w",
	OpLRD: "lr.d", OpSCD: "sc.d",
	OpAMOSWAPD: "amoswap.d", OpAMOADDD: "amoadd.d", OpAMOXORD: "amoxor.d", OpAMOANDD: "amoand.d",
	OpAMOORD: "amoor.d", OpAMOMIND: "amomin.d", OpAMOMAXD: "amomax.d",
	OpAMOMINUD: "amominu.d", OpAMOMAXUD: "amomaxu.d",

	OpANDN: "andn", OpORN: "orn", OpXNOR: "xnor", OpROL: "rol", OpROR: "ror", OpRORI: "rori",
	OpBCLR: "bclr", OpBSET: "bset", OpBINV: "binv", OpBEXT: "bext",
	OpMIN: "min", OpMINU: "minu", OpMAX: "max", OpMAXU: "maxu",
	OpCLMUL: "clmul", OpCLMULH: "clmulh", OpCLMULR: "clmulr",
	OpSH1ADD: "sh1add", OpSH2ADD: "sh2add", OpSH3ADD: "sh3add",
	OpCLZ: "clz", OpCTZ: "ctz", OpCPOP: "cpop",
	OpSEXTB: "sext.b", OpSEXTH: "sext.h", OpORCB: "orc.b", OpREV8: "rev8",
	OpROLW: "rolw", OpRORW: "rorw", OpRORIW: "roriw",
	OpCLZW: "clzw", OpCTZW: "ctzw", OpCPOPW: "cpopw",
	OpADDUW: "add.uw", OpZEXTH: "zext.h",
	OpSH1ADDUW: "sh1add.uw", OpSH2ADDUW: "sh2add.uw", OpSH3ADDUW: "sh3add.uw", OpSLLIUW: "slli.uw",

	OpMopWideMul: "mop.widemul", OpMopWideMulU: "mop.widemulu", OpMopWideMulSU: "mop.widemulsu",
	OpMopWideDiv: "mop.widediv", OpMopWideDivU: "mop.widedivu",
	OpMopFarJumpRel: "mop.farjrel", OpMopFarJumpAbs: "mop.farjabs",
}

// operandClass groups opcodes by which of Inst's Rd/Rs1/Rs2/Imm fields
// are meaningful, since Disassemble must format each without a
// per-opcode switch statement covering all ~140 entries individually.
type operandClass int

const (
	classUnknown operandClass = iota
	classNone                 // ecall, ebreak, fence.i
	classRdImm                // lui, auipc, jal
	classRdRs1Imm             // jalr, loads, addi-family, slli-family
	classRdRs1Rs2             // register-register ALU/B-ext
	classRs1Rs2Imm            // branches
	classRs1Rs2Offset         // stores
	classRdRs1                // unary B-ext (clz, sext.b, rev8, ...)
	classAtomicLoad           // lr.w/lr.d
	classAtomicRMW            // sc.*/amo*
)

var classByOp = map[Op]operandClass{
	OpLUI: classRdImm, OpAUIPC: classRdImm, OpJAL: classRdImm,
	OpJALR: classRdRs1Imm,
	OpBEQ:  classRs1Rs2Imm, OpBNE: classRs1Rs2Imm, OpBLT: classRs1Rs2Imm,
	OpBGE: classRs1Rs2Imm, OpBLTU: classRs1Rs2Imm, OpBGEU: classRs1Rs2Imm,
	OpLB: classRdRs1Imm, OpLH: classRdRs1Imm, OpLW: classRdRs1Imm, OpLBU: classRdRs1Imm,
	OpLHU: classRdRs1Imm, OpLWU: classRdRs1Imm, OpLD: classRdRs1Imm,
	OpSB: classRs1Rs2Offset, OpSH: classRs1Rs2Offset, OpSW: classRs1Rs2Offset, OpSD: classRs1Rs2Offset,
	OpADDI: classRdRs1Imm, OpSLTI: classRdRs1Imm, OpSLTIU: classRdRs1Imm,
	OpXORI: classRdRs1Imm, OpORI: classRdRs1Imm, OpANDI: classRdRs1Imm,
	OpSLLI: classRdRs1Imm, OpSRLI: classRdRs1Imm, OpSRAI: classRdRs1Imm,
	OpADD: classRdRs1Rs2, OpSUB: classRdRs1Rs2, OpSLL: classRdRs1Rs2, OpSLT: classRdRs1Rs2,
	OpSLTU: classRdRs1Rs2, OpXOR: classRdRs1Rs2, OpSRL: classRdRs1Rs2, OpSRA: classRdRs1Rs2,
	OpOR: classRdRs1Rs2, OpAND: classRdRs1Rs2,
	OpFENCE: classNone, OpFENCEI: classNone, OpECALL: classNone, OpEBREAK: classNone,
	OpADDIW: classRdRs1Imm, OpSLLIW: classRdRs1Imm, OpSRLIW: classRdRs1Imm, OpSRAIW: classRdRs1Imm,
	OpADDW: classRdRs1Rs2, OpSUBW: classRdRs1Rs2, OpSLLW: classRdRs1Rs2,
	OpSRLW: classRdRs1Rs2, OpSRAW: classRdRs1Rs2,

	OpMUL: classRdRs1Rs2, OpMULH: classRdRs1Rs2, OpMULHSU: classRdRs1Rs2, OpMULHU: classRdRs1Rs2,
	OpDIV: classRdRs1Rs2, OpDIVU: classRdRs1Rs2, OpREM: classRdRs1Rs2, OpREMU: classRdRs1Rs2,
	OpMULW: classRdRs1Rs2, OpDIVW: classRdRs1Rs2, OpDIVUW: classRdRs1Rs2,
	OpREMW: classRdRs1Rs2, OpREMUW: classRdRs1Rs2,

	OpLRW: classAtomicLoad, OpLRD: classAtomicLoad,
	OpSCW: classAtomicRMW, OpAMOSWAPW: classAtomicRMW, OpAMOADDW: classAtomicRMW, OpAMOXORW: classAtomicRMW,
	OpAMOANDW: classAtomicRMW, OpAMOORW: classAtomicRMW, OpAMOMINW: classAtomicRMW, OpAMOMAXW: classAtomicRMW,
	OpAMOMINUW: classAtomicRMW, OpAMOMAXUW: classAtomicRMW,
	OpSCD: classAtomicRMW, OpAMOSWAPD: classAtomicRMW, OpAMOADDD: classAtomicRMW, OpAMOXORD: classAtomicRMW,
	OpAMOANDD: classAtomicRMW, OpAMOORD: classAtomicRMW, OpAMOMIND: classAtomicRMW, OpAMOMAXD: classAtomicRMW,
	OpAMOMINUD: classAtomicRMW, OpAMOMAXUD: classAtomicRMW,

	OpANDN: classRdRs1Rs2, OpORN: classRdRs1Rs2, OpXNOR: classRdRs1Rs2,
	OpROL: classRdRs1Rs2, OpROR: classRdRs1Rs2, OpRORI: classRdRs1Imm,
	OpBCLR: classRdRs1Rs2, OpBSET: classRdRs1Rs2, OpBINV: classRdRs1Rs2, OpBEXT: classRdRs1Rs2,
	OpMIN: classRdRs1Rs2, OpMINU: classRdRs1Rs2, OpMAX: classRdRs1Rs2, OpMAXU: classRdRs1Rs2,
	OpCLMUL: classRdRs1Rs2, OpCLMULH: classRdRs1Rs2, OpCLMULR: classRdRs1Rs2,
	OpSH1ADD: classRdRs1Rs2, OpSH2ADD: classRdRs1Rs2, OpSH3ADD: classRdRs1Rs2,
	OpCLZ: classRdRs1, OpCTZ: classRdRs1, OpCPOP: classRdRs1,
	OpSEXTB: classRdRs1, OpSEXTH: classRdRs1, OpORCB: classRdRs1, OpREV8: classRdRs1,
	OpROLW: classRdRs1Rs2, OpRORW: classRdRs1Rs2, OpRORIW: classRdRs1Imm,
	OpCLZW: classRdRs1, OpCTZW: classRdRs1, OpCPOPW: classRdRs1,
	OpADDUW: classRdRs1Rs2, OpZEXTH: classRdRs1,
	OpSH1ADDUW: classRdRs1Rs2, OpSH2ADDUW: classRdRs1Rs2, OpSH3ADDUW: classRdRs1Rs2, OpSLLIUW: classRdRs1Imm,

	OpMopWideMul: classRdRs1Rs2, OpMopWideMulU: classRdRs1Rs2, OpMopWideMulSU: classRdRs1Rs2,
	OpMopWideDiv: classRdRs1Rs2, OpMopWideDivU: classRdRs1Rs2,
	OpMopFarJumpRel: classRdImm, OpMopFarJumpAbs: classRdImm,
}

// Disassemble renders a decoded instruction the way the teacher's
// pkg/vm.Disassemble renders its own tiny ISA: "mnemonic operands",
// using RISC-V register names (x0-x31) rather than the teacher's r%d.
func Disassemble(i Inst) string {
	name, ok := mnemonics[i.Op]
	if !ok {
		return fmt.Sprintf("<unknown op %d>", i.Op)
	}
	switch classByOp[i.Op] {
	case classNone:
		return name
	case classRdImm:
		return fmt.Sprintf("%s x%d, %d", name, i.Rd, i.Imm)
	case classRdRs1Imm:
		return fmt.Sprintf("%s x%d, x%d, %d", name, i.Rd, i.Rs1, i.Imm)
	case classRdRs1Rs2:
		return fmt.Sprintf("%s x%d, x%d, x%d", name, i.Rd, i.Rs1, i.Rs2)
	case classRs1Rs2Imm:
		return fmt.Sprintf("%s x%d, x%d, %d", name, i.Rs1, i.Rs2, i.Imm)
	case classRs1Rs2Offset:
		return fmt.Sprintf("%s x%d, %d(x%d)", name, i.Rs2, i.Imm, i.Rs1)
	case classRdRs1:
		return fmt.Sprintf("%s x%d, x%d", name, i.Rd, i.Rs1)
	case classAtomicLoad:
		return fmt.Sprintf("%s x%d, (x%d)", name, i.Rd, i.Rs1)
	case classAtomicRMW:
		return fmt.Sprintf("%s x%d, x%d, (x%d)", name, i.Rd, i.Rs2, i.Rs1)
	default:
		return fmt.Sprintf("%s <op %d>", name, i.Op)
	}
}
