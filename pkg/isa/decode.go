package isa

import (
	"encoding/binary"

	"github.com/rvsandbox/rvvm/pkg/rverr"
)

// Decode reads one instruction from a little-endian byte stream at the
// current position, returning the packed instruction, whose Length is 2
// or 4. width selects RV32 vs RV64 for the handful of opcodes (LD/SD, the *W
// word-ops, SLLI/SRLI/SRAI shamt width) whose legality or decoding depends
// on XLEN. stream must have at least 2 bytes available; standard 32-bit
// instructions additionally require 4.
func Decode(width uint, stream []byte) (Inst, error) {
	if len(stream) < 2 {
		return Inst{}, rverr.ErrOutOfBound
	}
	low16 := binary.LittleEndian.Uint16(stream)
	if low16&0x3 != 0x3 {
		return decodeCompressed(width, low16)
	}
	if len(stream) < 4 {
		return Inst{}, rverr.ErrOutOfBound
	}
	raw := binary.LittleEndian.Uint32(stream)
	if raw&0x3 != 0x3 {
		return Inst{}, rverr.ErrInvalidInstruction
	}
	return decodeStandard(width, raw)
}

// decodeStandard dispatches a 32-bit word to its opcode-major family.
func decodeStandard(width uint, raw uint32) (Inst, error) {
	switch opcode(raw) {
	case 0b0110111, 0b0010111, 0b1101111, 0b1100111,
		0b1100011, 0b0000011, 0b0100011,
		0b0001111, 0b1110011:
		return decodeBaseI(width, raw)
	case 0b0010011, 0b0011011:
		if inst, ok, err := decodeB(width, raw); ok {
			return inst, err
		}
		return decodeBaseI(width, raw)
	case 0b0110011, 0b0111011:
		if funct7(raw) == 0b0000001 {
			return decodeM(width, raw)
		}
		if inst, ok, err := decodeB(width, raw); ok {
			return inst, err
		}
		return decodeBaseI(width, raw)
	case 0b0101111:
		return decodeA(width, raw)
	case customOpcodeMop:
		return decodeMop(width, raw)
	default:
		return Inst{}, rverr.ErrInvalidInstruction
	}
}
