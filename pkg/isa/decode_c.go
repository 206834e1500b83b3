package isa

import "github.com/rvsandbox/rvvm/pkg/rverr"

// decodeCompressed decodes a 16-bit C-extension instruction directly into
// the base opcode it expands to, with Length set to 2 so the caller
// advances the PC correctly without ever branching on "was this
// compressed". Layout grounded on ckb-vm's instructions/c.rs factory()
// opcode switch, re-expressed per quadrant/funct3 rather than transcribed.
func decodeCompressed(width uint, raw uint16) (Inst, error) {
	switch cOpcode(raw) {
	case 0b00:
		return decodeCQuadrant0(width, raw)
	case 0b01:
		return decodeCQuadrant1(width, raw)
	case 0b10:
		return decodeCQuadrant2(width, raw)
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}
}

func signExtendC(v uint32, bitWidth uint) int64 {
	shift := 32 - bitWidth
	return int64(int32(v<<shift) >> shift)
}

func decodeCQuadrant0(width uint, raw uint16) (Inst, error) {
	switch cFunct3(raw) {
	case 0b000: // C.ADDI4SPN
		nzuimm := cbits(raw, 10, 7)<<6 | cbits(raw, 12, 11)<<4 | cbits(raw, 5, 5)<<3 | cbits(raw, 6, 6)<<2
		if nzuimm == 0 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		rdp := compactReg(cbits(raw, 4, 2))
		return Inst{Op: OpADDI, Length: 2, Rd: rdp, Rs1: 2, Imm: int64(nzuimm)}, nil
	case 0b010: // C.LW
		rdp := compactReg(cbits(raw, 4, 2))
		rs1p := compactReg(cbits(raw, 9, 7))
		uimm := cbits(raw, 5, 5)<<6 | cbits(raw, 12, 10)<<3 | cbits(raw, 6, 6)<<2
		return Inst{Op: OpLW, Length: 2, Rd: rdp, Rs1: rs1p, Imm: int64(uimm)}, nil
	case 0b011: // C.LD (RV64 only)
		if width != 64 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		rdp := compactReg(cbits(raw, 4, 2))
		rs1p := compactReg(cbits(raw, 9, 7))
		uimm := cbits(raw, 6, 5)<<6 | cbits(raw, 12, 10)<<3
		return Inst{Op: OpLD, Length: 2, Rd: rdp, Rs1: rs1p, Imm: int64(uimm)}, nil
	case 0b110: // C.SW
		rs1p := compactReg(cbits(raw, 9, 7))
		rs2p := compactReg(cbits(raw, 4, 2))
		uimm := cbits(raw, 5, 5)<<6 | cbits(raw, 12, 10)<<3 | cbits(raw, 6, 6)<<2
		return Inst{Op: OpSW, Length: 2, Rs1: rs1p, Rs2: rs2p, Imm: int64(uimm)}, nil
	case 0b111: // C.SD (RV64 only)
		if width != 64 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		rs1p := compactReg(cbits(raw, 9, 7))
		rs2p := compactReg(cbits(raw, 4, 2))
		uimm := cbits(raw, 6, 5)<<6 | cbits(raw, 12, 10)<<3
		return Inst{Op: OpSD, Length: 2, Rs1: rs1p, Rs2: rs2p, Imm: int64(uimm)}, nil
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}
}

func decodeCQuadrant1(width uint, raw uint16) (Inst, error) {
	switch cFunct3(raw) {
	case 0b000: // C.NOP / C.ADDI
		rd := uint8(cbits(raw, 11, 7))
		imm := signExtendC(cbits(raw, 12, 12)<<5|cbits(raw, 6, 2), 6)
		return Inst{Op: OpADDI, Length: 2, Rd: rd, Rs1: rd, Imm: imm}, nil
	case 0b001: // RV32: C.JAL; RV64: C.ADDIW
		if width == 64 {
			rd := uint8(cbits(raw, 11, 7))
			if rd == 0 {
				return Inst{}, rverr.ErrInvalidInstruction
			}
			imm := signExtendC(cbits(raw, 12, 12)<<5|cbits(raw, 6, 2), 6)
			return Inst{Op: OpADDIW, Length: 2, Rd: rd, Rs1: rd, Imm: imm}, nil
		}
		imm := cJImmediate(raw)
		return Inst{Op: OpJAL, Length: 2, Rd: 1, Imm: imm}, nil
	case 0b010: // C.LI
		rd := uint8(cbits(raw, 11, 7))
		imm := signExtendC(cbits(raw, 12, 12)<<5|cbits(raw, 6, 2), 6)
		return Inst{Op: OpADDI, Length: 2, Rd: rd, Rs1: 0, Imm: imm}, nil
	case 0b011:
		rd := uint8(cbits(raw, 11, 7))
		if rd == 2 { // C.ADDI16SP
			imm := signExtendC(
				cbits(raw, 12, 12)<<9|cbits(raw, 4, 3)<<7|cbits(raw, 5, 5)<<6|
					cbits(raw, 2, 2)<<5|cbits(raw, 6, 6)<<4, 10)
			if imm == 0 {
				return Inst{}, rverr.ErrInvalidInstruction
			}
			return Inst{Op: OpADDI, Length: 2, Rd: 2, Rs1: 2, Imm: imm}, nil
		}
		if rd == 0 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		imm := signExtendC(cbits(raw, 12, 12)<<17|cbits(raw, 6, 2)<<12, 18)
		if imm == 0 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		return Inst{Op: OpLUI, Length: 2, Rd: rd, Imm: imm}, nil
	case 0b100:
		rdp := compactReg(cbits(raw, 9, 7))
		switch cbits(raw, 11, 10) {
		case 0b00: // C.SRLI
			shamt := cbits(raw, 12, 12)<<5 | cbits(raw, 6, 2)
			return Inst{Op: OpSRLI, Length: 2, Rd: rdp, Rs1: rdp, Imm: int64(shamt)}, nil
		case 0b01: // C.SRAI
			shamt := cbits(raw, 12, 12)<<5 | cbits(raw, 6, 2)
			return Inst{Op: OpSRAI, Length: 2, Rd: rdp, Rs1: rdp, Imm: int64(shamt)}, nil
		case 0b10: // C.ANDI
			imm := signExtendC(cbits(raw, 12, 12)<<5|cbits(raw, 6, 2), 6)
			return Inst{Op: OpANDI, Length: 2, Rd: rdp, Rs1: rdp, Imm: imm}, nil
		case 0b11:
			rs2p := compactReg(cbits(raw, 4, 2))
			if cbits(raw, 12, 12) == 0 {
				switch cbits(raw, 6, 5) {
				case 0b00:
					return Inst{Op: OpSUB, Length: 2, Rd: rdp, Rs1: rdp, Rs2: rs2p}, nil
				case 0b01:
					return Inst{Op: OpXOR, Length: 2, Rd: rdp, Rs1: rdp, Rs2: rs2p}, nil
				case 0b10:
					return Inst{Op: OpOR, Length: 2, Rd: rdp, Rs1: rdp, Rs2: rs2p}, nil
				case 0b11:
					return Inst{Op: OpAND, Length: 2, Rd: rdp, Rs1: rdp, Rs2: rs2p}, nil
				}
			} else {
				if width != 64 {
					return Inst{}, rverr.ErrInvalidInstruction
				}
				switch cbits(raw, 6, 5) {
				case 0b00:
					return Inst{Op: OpSUBW, Length: 2, Rd: rdp, Rs1: rdp, Rs2: rs2p}, nil
				case 0b01:
					return Inst{Op: OpADDW, Length: 2, Rd: rdp, Rs1: rdp, Rs2: rs2p}, nil
				}
			}
			return Inst{}, rverr.ErrInvalidInstruction
		}
		return Inst{}, rverr.ErrInvalidInstruction
	case 0b101: // C.J
		imm := cJImmediate(raw)
		return Inst{Op: OpJAL, Length: 2, Rd: 0, Imm: imm}, nil
	case 0b110: // C.BEQZ
		rs1p := compactReg(cbits(raw, 9, 7))
		imm := cBImmediate(raw)
		return Inst{Op: OpBEQ, Length: 2, Rs1: rs1p, Rs2: 0, Imm: imm}, nil
	case 0b111: // C.BNEZ
		rs1p := compactReg(cbits(raw, 9, 7))
		imm := cBImmediate(raw)
		return Inst{Op: OpBNE, Length: 2, Rs1: rs1p, Rs2: 0, Imm: imm}, nil
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}
}

func decodeCQuadrant2(width uint, raw uint16) (Inst, error) {
	switch cFunct3(raw) {
	case 0b000: // C.SLLI
		rd := uint8(cbits(raw, 11, 7))
		if rd == 0 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		shamt := cbits(raw, 12, 12)<<5 | cbits(raw, 6, 2)
		return Inst{Op: OpSLLI, Length: 2, Rd: rd, Rs1: rd, Imm: int64(shamt)}, nil
	case 0b010: // C.LWSP
		rd := uint8(cbits(raw, 11, 7))
		if rd == 0 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		uimm := cbits(raw, 3, 2)<<6 | cbits(raw, 12, 12)<<5 | cbits(raw, 6, 4)<<2
		return Inst{Op: OpLW, Length: 2, Rd: rd, Rs1: 2, Imm: int64(uimm)}, nil
	case 0b011: // C.LDSP (RV64 only)
		if width != 64 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		rd := uint8(cbits(raw, 11, 7))
		if rd == 0 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		uimm := cbits(raw, 4, 2)<<6 | cbits(raw, 12, 12)<<5 | cbits(raw, 6, 5)<<3
		return Inst{Op: OpLD, Length: 2, Rd: rd, Rs1: 2, Imm: int64(uimm)}, nil
	case 0b100:
		rd := uint8(cbits(raw, 11, 7))
		rs2 := uint8(cbits(raw, 6, 2))
		if cbits(raw, 12, 12) == 0 {
			if rs2 == 0 { // C.JR
				if rd == 0 {
					return Inst{}, rverr.ErrInvalidInstruction
				}
				return Inst{Op: OpJALR, Length: 2, Rd: 0, Rs1: rd, Imm: 0}, nil
			}
			// C.MV
			return Inst{Op: OpADD, Length: 2, Rd: rd, Rs1: 0, Rs2: rs2}, nil
		}
		if rd == 0 && rs2 == 0 { // C.EBREAK
			return Inst{Op: OpEBREAK, Length: 2}, nil
		}
		if rs2 == 0 { // C.JALR
			return Inst{Op: OpJALR, Length: 2, Rd: 1, Rs1: rd, Imm: 0}, nil
		}
		// C.ADD
		return Inst{Op: OpADD, Length: 2, Rd: rd, Rs1: rd, Rs2: rs2}, nil
	case 0b110: // C.SWSP
		rs2 := uint8(cbits(raw, 6, 2))
		uimm := cbits(raw, 8, 7)<<6 | cbits(raw, 12, 9)<<2
		return Inst{Op: OpSW, Length: 2, Rs1: 2, Rs2: rs2, Imm: int64(uimm)}, nil
	case 0b111: // C.SDSP (RV64 only)
		if width != 64 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		rs2 := uint8(cbits(raw, 6, 2))
		uimm := cbits(raw, 9, 7)<<6 | cbits(raw, 12, 10)<<3
		return Inst{Op: OpSD, Length: 2, Rs1: 2, Rs2: rs2, Imm: int64(uimm)}, nil
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}
}

// cJImmediate decodes the 11-bit C.J/C.JAL jump offset scattered across
// the instruction word (bit 0 implicit zero).
func cJImmediate(raw uint16) int64 {
	v := cbits(raw, 12, 12)<<11 | cbits(raw, 8, 8)<<10 | cbits(raw, 10, 9)<<8 |
		cbits(raw, 6, 6)<<7 | cbits(raw, 7, 7)<<6 | cbits(raw, 2, 2)<<5 |
		cbits(raw, 11, 11)<<4 | cbits(raw, 5, 3)<<1
	return signExtendC(v, 12)
}

// cBImmediate decodes the 9-bit C.BEQZ/C.BNEZ branch offset (bit 0
// implicit zero).
func cBImmediate(raw uint16) int64 {
	v := cbits(raw, 12, 12)<<8 | cbits(raw, 6, 5)<<6 | cbits(raw, 2, 2)<<5 |
		cbits(raw, 11, 10)<<3 | cbits(raw, 4, 3)<<1
	return signExtendC(v, 9)
}
