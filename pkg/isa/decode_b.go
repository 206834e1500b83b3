package isa

// decodeB recognises the bitmanip subset referenced by spec §4.3 at the
// base ALU opcodes. ok is false when raw does not match any recognised B
// encoding, letting the caller fall back to the base I decoder (most B
// encodings alias unused funct7 values in the I/M opcode space). Grounded
// on ckb-vm's instructions/b.rs opcode tables; funct6 below is funct7 with
// its low bit dropped, since that low bit doubles as shamt[5] on the
// RV64 immediate-shift forms.

func funct6(raw uint32) uint32 { return funct7(raw) >> 1 }

var bRegisterOps = map[[2]uint32]Op{
	{0b0100000, 0b111}: OpANDN,
	{0b0100000, 0b110}: OpORN,
	{0b0100000, 0b100}: OpXNOR,
	{0b0110000, 0b001}: OpROL,
	{0b0110000, 0b101}: OpROR,
	{0b0100100, 0b001}: OpBCLR,
	{0b0010100, 0b001}: OpBSET,
	{0b0110100, 0b001}: OpBINV,
	{0b0100100, 0b101}: OpBEXT,
	{0b0010000, 0b010}: OpSH1ADD,
	{0b0010000, 0b100}: OpSH2ADD,
	{0b0010000, 0b110}: OpSH3ADD,
	{0b0000101, 0b001}: OpCLMUL,
	{0b0000101, 0b011}: OpCLMULH,
	{0b0000101, 0b010}: OpCLMULR,
	{0b0000101, 0b100}: OpMIN,
	{0b0000101, 0b101}: OpMINU,
	{0b0000101, 0b110}: OpMAX,
	{0b0000101, 0b111}: OpMAXU,
}

var bImmediateOps = map[[2]uint32]Op{
	{0b010010, 0b001}: OpBCLR,
	{0b001010, 0b001}: OpBSET,
	{0b011010, 0b001}: OpBINV,
	{0b010010, 0b101}: OpBEXT,
	{0b011000, 0b101}: OpRORI,
}

var bUnaryOps = map[uint32]Op{
	0b00000: OpCLZ,
	0b00001: OpCTZ,
	0b00010: OpCPOP,
	0b00100: OpSEXTB,
	0b00101: OpSEXTH,
}

var bWideOps = map[[2]uint32]Op{
	{0b0000100, 0b000}: OpADDUW,
	{0b0110000, 0b001}: OpROLW,
	{0b0010000, 0b010}: OpSH1ADDUW,
	{0b0110000, 0b101}: OpRORW,
	{0b0010000, 0b100}: OpSH2ADDUW,
	{0b0010000, 0b110}: OpSH3ADDUW,
}

func decodeB(width uint, raw uint32) (Inst, bool, error) {
	op := opcode(raw)
	f3 := funct3(raw)
	base := Inst{Length: 4, Rd: rd(raw), Rs1: rs1(raw), Rs2: rs2(raw)}

	switch op {
	case 0b0110011:
		if bop, ok := bRegisterOps[[2]uint32{funct7(raw), f3}]; ok {
			base.Op = bop
			return base, true, nil
		}
		return Inst{}, false, nil

	case 0b0010011:
		f7 := funct7(raw)
		// REV8's imm[11:0] is 0x6b8 on RV64 and 0x698 on RV32.
		if imm12 := bits(raw, 31, 20); f3 == 0b101 && ((width == 64 && imm12 == 0x6b8) || (width == 32 && imm12 == 0x698)) {
			return Inst{Op: OpREV8, Length: 4, Rd: rd(raw), Rs1: rs1(raw)}, true, nil
		}
		if f3 == 0b101 && f7 == 0b0010100 && rs2(raw) == 0b00111 {
			return Inst{Op: OpORCB, Length: 4, Rd: rd(raw), Rs1: rs1(raw)}, true, nil
		}
		if f3 == 0b001 && f7 == 0b0110000 {
			if uop, ok := bUnaryOps[uint32(rs2(raw))]; ok {
				return Inst{Op: uop, Length: 4, Rd: rd(raw), Rs1: rs1(raw)}, true, nil
			}
		}
		if bop, ok := bImmediateOps[[2]uint32{funct6(raw), f3}]; ok {
			return Inst{Op: bop, Length: 4, Rd: rd(raw), Rs1: rs1(raw), Imm: int64(shiftAmount(width, raw))}, true, nil
		}
		return Inst{}, false, nil

	case 0b0111011:
		if width != 64 {
			return Inst{}, false, nil
		}
		if f3 == 0b100 && funct7(raw) == 0b0000100 && rs2(raw) == 0 {
			return Inst{Op: OpZEXTH, Length: 4, Rd: rd(raw), Rs1: rs1(raw)}, true, nil
		}
		if bop, ok := bWideOps[[2]uint32{funct7(raw), f3}]; ok {
			base.Op = bop
			return base, true, nil
		}
		return Inst{}, false, nil

	case 0b0011011:
		if width != 64 {
			return Inst{}, false, nil
		}
		f7 := funct7(raw)
		if f3 == 0b001 && f7 == 0b0000100 {
			return Inst{Op: OpSLLIUW, Length: 4, Rd: rd(raw), Rs1: rs1(raw), Imm: int64(shamt5(raw))}, true, nil
		}
		if f3 == 0b001 && f7 == 0b0110000 {
			switch rs2(raw) {
			case 0b00000:
				return Inst{Op: OpCLZW, Length: 4, Rd: rd(raw), Rs1: rs1(raw)}, true, nil
			case 0b00001:
				return Inst{Op: OpCTZW, Length: 4, Rd: rd(raw), Rs1: rs1(raw)}, true, nil
			case 0b00010:
				return Inst{Op: OpCPOPW, Length: 4, Rd: rd(raw), Rs1: rs1(raw)}, true, nil
			}
		}
		if f3 == 0b101 && funct6(raw) == 0b011000 {
			return Inst{Op: OpRORIW, Length: 4, Rd: rd(raw), Rs1: rs1(raw), Imm: int64(shamt5(raw))}, true, nil
		}
		return Inst{}, false, nil
	}
	return Inst{}, false, nil
}
