package isa

import "github.com/rvsandbox/rvvm/pkg/rverr"

// decodeBaseI decodes RV32I/RV64I base opcodes: LUI, AUIPC, JAL, JALR,
// branches, loads, stores, immediate ALU ops, the register-register base
// ALU ops (the B-extension intercept in decodeStandard has already claimed
// anything it recognises), FENCE/FENCE.I, ECALL/EBREAK, and the RV64-only
// *W word variants. Grounded on ckb-vm's instructions/i.rs opcode table.
func decodeBaseI(width uint, raw uint32) (Inst, error) {
	op := opcode(raw)
	f3 := funct3(raw)

	switch op {
	case 0b0110111: // LUI
		return Inst{Op: OpLUI, Length: 4, Rd: rd(raw), Imm: uImmediate(raw)}, nil
	case 0b0010111: // AUIPC
		return Inst{Op: OpAUIPC, Length: 4, Rd: rd(raw), Imm: uImmediate(raw)}, nil
	case 0b1101111: // JAL
		return Inst{Op: OpJAL, Length: 4, Rd: rd(raw), Imm: jImmediate(raw)}, nil
	case 0b1100111: // JALR
		if f3 != 0 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		return Inst{Op: OpJALR, Length: 4, Rd: rd(raw), Rs1: rs1(raw), Imm: iImmediate(raw)}, nil
	case 0b1100011: // branches
		branchOp, err := branchOpFromFunct3(f3)
		if err != nil {
			return Inst{}, err
		}
		return Inst{Op: branchOp, Length: 4, Rs1: rs1(raw), Rs2: rs2(raw), Imm: bImmediate(raw)}, nil
	case 0b0000011: // loads
		loadOp, err := loadOpFromFunct3(width, f3)
		if err != nil {
			return Inst{}, err
		}
		return Inst{Op: loadOp, Length: 4, Rd: rd(raw), Rs1: rs1(raw), Imm: iImmediate(raw)}, nil
	case 0b0100011: // stores
		storeOp, err := storeOpFromFunct3(width, f3)
		if err != nil {
			return Inst{}, err
		}
		return Inst{Op: storeOp, Length: 4, Rs1: rs1(raw), Rs2: rs2(raw), Imm: sImmediate(raw)}, nil
	case 0b0010011: // immediate ALU
		return decodeImmediateALU(width, raw, f3)
	case 0b0011011: // *IW immediate ALU (RV64 only)
		if width != 64 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		return decodeImmediateALUW(raw, f3)
	case 0b0110011: // register ALU base set
		return decodeRegisterALU(raw, f3)
	case 0b0111011: // *W register ALU (RV64 only)
		if width != 64 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		return decodeRegisterALUW(raw, f3)
	case 0b0001111: // FENCE / FENCE.I
		if f3 == 0b001 {
			return Inst{Op: OpFENCEI, Length: 4}, nil
		}
		return Inst{Op: OpFENCE, Length: 4, Aux: bits(raw, 27, 20)}, nil
	case 0b1110011: // ECALL / EBREAK
		switch iImmediate(raw) {
		case 0:
			return Inst{Op: OpECALL, Length: 4}, nil
		case 1:
			return Inst{Op: OpEBREAK, Length: 4}, nil
		default:
			return Inst{}, rverr.ErrInvalidInstruction
		}
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}
}

func branchOpFromFunct3(f3 uint32) (Op, error) {
	switch f3 {
	case 0b000:
		return OpBEQ, nil
	case 0b001:
		return OpBNE, nil
	case 0b100:
		return OpBLT, nil
	case 0b101:
		return OpBGE, nil
	case 0b110:
		return OpBLTU, nil
	case 0b111:
		return OpBGEU, nil
	default:
		return OpInvalid, rverr.ErrInvalidInstruction
	}
}

func loadOpFromFunct3(width uint, f3 uint32) (Op, error) {
	switch f3 {
	case 0b000:
		return OpLB, nil
	case 0b001:
		return OpLH, nil
	case 0b010:
		return OpLW, nil
	case 0b100:
		return OpLBU, nil
	case 0b101:
		return OpLHU, nil
	case 0b110:
		if width != 64 {
			return OpInvalid, rverr.ErrInvalidInstruction
		}
		return OpLWU, nil
	case 0b011:
		if width != 64 {
			return OpInvalid, rverr.ErrInvalidInstruction
		}
		return OpLD, nil
	default:
		return OpInvalid, rverr.ErrInvalidInstruction
	}
}

func storeOpFromFunct3(width uint, f3 uint32) (Op, error) {
	switch f3 {
	case 0b000:
		return OpSB, nil
	case 0b001:
		return OpSH, nil
	case 0b010:
		return OpSW, nil
	case 0b011:
		if width != 64 {
			return OpInvalid, rverr.ErrInvalidInstruction
		}
		return OpSD, nil
	default:
		return OpInvalid, rverr.ErrInvalidInstruction
	}
}

func decodeImmediateALU(width uint, raw uint32, f3 uint32) (Inst, error) {
	base := Inst{Length: 4, Rd: rd(raw), Rs1: rs1(raw)}
	switch f3 {
	case 0b000:
		base.Op, base.Imm = OpADDI, iImmediate(raw)
	case 0b010:
		base.Op, base.Imm = OpSLTI, iImmediate(raw)
	case 0b011:
		base.Op, base.Imm = OpSLTIU, iImmediate(raw)
	case 0b100:
		base.Op, base.Imm = OpXORI, iImmediate(raw)
	case 0b110:
		base.Op, base.Imm = OpORI, iImmediate(raw)
	case 0b111:
		base.Op, base.Imm = OpANDI, iImmediate(raw)
	case 0b001:
		if funct7(raw)&^1 != 0 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		base.Op = OpSLLI
		base.Imm = int64(shiftAmount(width, raw))
	case 0b101:
		top := funct7(raw) >> 1
		base.Imm = int64(shiftAmount(width, raw))
		switch top {
		case 0b000000:
			base.Op = OpSRLI
		case 0b010000:
			base.Op = OpSRAI
		default:
			return Inst{}, rverr.ErrInvalidInstruction
		}
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}
	return base, nil
}

func shiftAmount(width uint, raw uint32) uint32 {
	if width == 64 {
		return shamt6(raw)
	}
	return shamt5(raw)
}

func decodeImmediateALUW(raw uint32, f3 uint32) (Inst, error) {
	base := Inst{Length: 4, Rd: rd(raw), Rs1: rs1(raw)}
	switch f3 {
	case 0b000:
		base.Op, base.Imm = OpADDIW, iImmediate(raw)
	case 0b001:
		if funct7(raw) != 0 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		base.Op, base.Imm = OpSLLIW, int64(shamt5(raw))
	case 0b101:
		base.Imm = int64(shamt5(raw))
		switch funct7(raw) {
		case 0b0000000:
			base.Op = OpSRLIW
		case 0b0100000:
			base.Op = OpSRAIW
		default:
			return Inst{}, rverr.ErrInvalidInstruction
		}
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}
	return base, nil
}

func decodeRegisterALU(raw uint32, f3 uint32) (Inst, error) {
	base := Inst{Length: 4, Rd: rd(raw), Rs1: rs1(raw), Rs2: rs2(raw)}
	f7 := funct7(raw)
	switch {
	case f3 == 0b000 && f7 == 0b0000000:
		base.Op = OpADD
	case f3 == 0b000 && f7 == 0b0100000:
		base.Op = OpSUB
	case f3 == 0b001 && f7 == 0b0000000:
		base.Op = OpSLL
	case f3 == 0b010 && f7 == 0b0000000:
		base.Op = OpSLT
	case f3 == 0b011 && f7 == 0b0000000:
		base.Op = OpSLTU
	case f3 == 0b100 && f7 == 0b0000000:
		base.Op = OpXOR
	case f3 == 0b101 && f7 == 0b0000000:
		base.Op = OpSRL
	case f3 == 0b101 && f7 == 0b0100000:
		base.Op = OpSRA
	case f3 == 0b110 && f7 == 0b0000000:
		base.Op = OpOR
	case f3 == 0b111 && f7 == 0b0000000:
		base.Op = OpAND
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}
	return base, nil
}

func decodeRegisterALUW(raw uint32, f3 uint32) (Inst, error) {
	base := Inst{Length: 4, Rd: rd(raw), Rs1: rs1(raw), Rs2: rs2(raw)}
	f7 := funct7(raw)
	switch {
	case f3 == 0b000 && f7 == 0b0000000:
		base.Op = OpADDW
	case f3 == 0b000 && f7 == 0b0100000:
		base.Op = OpSUBW
	case f3 == 0b001 && f7 == 0b0000000:
		base.Op = OpSLLW
	case f3 == 0b101 && f7 == 0b0000000:
		base.Op = OpSRLW
	case f3 == 0b101 && f7 == 0b0100000:
		base.Op = OpSRAW
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}
	return base, nil
}
