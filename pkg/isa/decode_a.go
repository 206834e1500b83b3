package isa

import "github.com/rvsandbox/rvvm/pkg/rverr"

// decodeA decodes the A-extension load-reserved/store-conditional and
// atomic-memory-op instructions at opcode 0b0101111. Grounded on ckb-vm's
// instructions/a.rs: funct3 selects word (010) vs doubleword (011) width,
// and the top 5 bits of funct7 (funct5) select the AMO operation. LR
// additionally requires rs2 == 0.
func decodeA(width uint, raw uint32) (Inst, error) {
	f3 := funct3(raw)
	var wide bool
	switch f3 {
	case 0b010:
		wide = false
	case 0b011:
		if width != 64 {
			return Inst{}, rverr.ErrInvalidInstruction
		}
		wide = true
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}

	base := Inst{Length: 4, Rd: rd(raw), Rs1: rs1(raw), Rs2: rs2(raw), Aux: aqrl(raw)}
	f5 := funct5(raw)

	ops32 := map[uint32]Op{
		0b00010: OpLRW,
		0b00011: OpSCW,
		0b00001: OpAMOSWAPW,
		0b00000: OpAMOADDW,
		0b00100: OpAMOXORW,
		0b01100: OpAMOANDW,
		0b01000: OpAMOORW,
		0b10000: OpAMOMINW,
		0b10100: OpAMOMAXW,
		0b11000: OpAMOMINUW,
		0b11100: OpAMOMAXUW,
	}
	ops64 := map[uint32]Op{
		0b00010: OpLRD,
		0b00011: OpSCD,
		0b00001: OpAMOSWAPD,
		0b00000: OpAMOADDD,
		0b00100: OpAMOXORD,
		0b01100: OpAMOANDD,
		0b01000: OpAMOORD,
		0b10000: OpAMOMIND,
		0b10100: OpAMOMAXD,
		0b11000: OpAMOMINUD,
		0b11100: OpAMOMAXUD,
	}

	table := ops32
	if wide {
		table = ops64
	}
	op, ok := table[f5]
	if !ok {
		return Inst{}, rverr.ErrInvalidInstruction
	}
	if (op == OpLRW || op == OpLRD) && base.Rs2 != 0 {
		return Inst{}, rverr.ErrInvalidInstruction
	}
	base.Op = op
	return base, nil
}
