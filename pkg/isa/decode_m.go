package isa

import "github.com/rvsandbox/rvvm/pkg/rverr"

// decodeM decodes the M-extension register-register multiply/divide/remainder
// ops, recognised by funct7 == 0b0000001 on the base ALU opcodes. Grounded
// on ckb-vm's instructions/m.rs Rtype enum and its RV64-only *W variants
// (e.g. MULW: 32-bit multiply, result sign-extended to XLEN).
func decodeM(width uint, raw uint32) (Inst, error) {
	base := Inst{Length: 4, Rd: rd(raw), Rs1: rs1(raw), Rs2: rs2(raw)}
	f3 := funct3(raw)
	switch opcode(raw) {
	case 0b0110011:
		switch f3 {
		case 0b000:
			base.Op = OpMUL
		case 0b001:
			base.Op = OpMULH
		case 0b010:
			base.Op = OpMULHSU
		case 0b011:
			base.Op = OpMULHU
		case 0b100:
			base.Op = OpDIV
		case 0b101:
			base.Op = OpDIVU
		case 0b110:
			base.Op = OpREM
		case 0b111:
			base.Op = OpREMU
		default:
			return Inst{}, rverr.ErrInvalidInstruction
		}
		return base, nil
	case 0b0111011:
		if width != 64 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		switch f3 {
		case 0b000:
			base.Op = OpMULW
		case 0b100:
			base.Op = OpDIVW
		case 0b101:
			base.Op = OpDIVUW
		case 0b110:
			base.Op = OpREMW
		case 0b111:
			base.Op = OpREMUW
		default:
			return Inst{}, rverr.ErrInvalidInstruction
		}
		return base, nil
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}
}
