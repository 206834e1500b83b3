package isa

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enc32(op uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, op)
	return b
}

func enc16(op uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, op)
	return b
}

// rType packs the classic R-type layout used by the base ALU, M, and B
// register-register opcodes.
func rType(opcode, rd, f3, rs1, rs2, f7 uint32) uint32 {
	return f7<<25 | rs2<<20 | rs1<<15 | f3<<12 | rd<<7 | opcode
}

func iType(opcode, rd, f3, rs1, imm uint32) uint32 {
	return (imm&0xfff)<<20 | rs1<<15 | f3<<12 | rd<<7 | opcode
}

func TestDecodeAddIsFourBytes(t *testing.T) {
	raw := rType(0b0110011, 1, 0b000, 2, 3, 0b0000000)
	inst, err := Decode(64, enc32(raw))
	require.NoError(t, err)
	assert.Equal(t, OpADD, inst.Op)
	assert.EqualValues(t, 4, inst.Length)
	assert.EqualValues(t, 1, inst.Rd)
	assert.EqualValues(t, 2, inst.Rs1)
	assert.EqualValues(t, 3, inst.Rs2)
}

func TestDecodeAddiSignExtendsImmediate(t *testing.T) {
	raw := iType(0b0010011, 5, 0b000, 0, 0xfff) // imm = -1
	inst, err := Decode(64, enc32(raw))
	require.NoError(t, err)
	assert.Equal(t, OpADDI, inst.Op)
	assert.EqualValues(t, -1, inst.Imm)
}

func TestDecodeMulRecognisedOverAdd(t *testing.T) {
	raw := rType(0b0110011, 1, 0b000, 2, 3, 0b0000001)
	inst, err := Decode(64, enc32(raw))
	require.NoError(t, err)
	assert.Equal(t, OpMUL, inst.Op)
}

func TestDecodeDivuw(t *testing.T) {
	raw := rType(0b0111011, 1, 0b101, 2, 3, 0b0000001)
	inst, err := Decode(64, enc32(raw))
	require.NoError(t, err)
	assert.Equal(t, OpDIVUW, inst.Op)

	_, err = Decode(32, enc32(raw))
	assert.Error(t, err)
}

func TestDecodeAmoaddw(t *testing.T) {
	raw := rType(0b0101111, 1, 0b010, 2, 3, 0b00000<<2)
	inst, err := Decode(64, enc32(raw))
	require.NoError(t, err)
	assert.Equal(t, OpAMOADDW, inst.Op)
}

func TestDecodeLrRejectsNonzeroRs2(t *testing.T) {
	raw := rType(0b0101111, 1, 0b010, 2, 1, 0b00010<<2)
	_, err := Decode(64, enc32(raw))
	assert.Error(t, err)
}

func TestDecodeAndn(t *testing.T) {
	raw := rType(0b0110011, 1, 0b111, 2, 3, 0b0100000)
	inst, err := Decode(64, enc32(raw))
	require.NoError(t, err)
	assert.Equal(t, OpANDN, inst.Op)
}

func TestDecodeMopWideMul(t *testing.T) {
	raw := rType(customOpcodeMop, 2, mopWideMul, 4, 6, 0)
	inst, err := Decode(64, enc32(raw))
	require.NoError(t, err)
	assert.Equal(t, OpMopWideMul, inst.Op)
	assert.EqualValues(t, 4, inst.Length)
}

func TestDecodeMopFarJumpAbs(t *testing.T) {
	raw := iType(customOpcodeMop, 1, mopFarJumpAbs, 2, 0x100)
	inst, err := Decode(64, enc32(raw))
	require.NoError(t, err)
	assert.Equal(t, OpMopFarJumpAbs, inst.Op)
	assert.True(t, IsBasicBlockEnd(inst.Op))
}

func TestDecodeCompressedNopIsTwoBytes(t *testing.T) {
	// C.ADDI with rd=0, imm=0 (canonical C.NOP encoding: 0x0001).
	inst, err := Decode(64, enc16(0x0001))
	require.NoError(t, err)
	assert.Equal(t, OpADDI, inst.Op)
	assert.EqualValues(t, 2, inst.Length)
	assert.Zero(t, inst.Rd)
	assert.Zero(t, inst.Imm)
}

func TestDecodeCompressedLiRd5Imm1(t *testing.T) {
	// C.LI x5, 1: quadrant 01, funct3 010, rd=5, imm bits scattered.
	raw := uint16(0b010<<13) | uint16(0)<<12 | uint16(5)<<7 | uint16(1)<<2 | 0b01
	inst, err := Decode(64, enc16(raw))
	require.NoError(t, err)
	assert.Equal(t, OpADDI, inst.Op)
	assert.EqualValues(t, 2, inst.Length)
	assert.EqualValues(t, 5, inst.Rd)
	assert.Zero(t, inst.Rs1)
	assert.EqualValues(t, 1, inst.Imm)
}

func TestDecodeCompressedEbreak(t *testing.T) {
	raw := uint16(0b100<<13) | uint16(1)<<12 | uint16(0)<<7 | uint16(0)<<2 | 0b10
	inst, err := Decode(64, enc16(raw))
	require.NoError(t, err)
	assert.Equal(t, OpEBREAK, inst.Op)
	assert.EqualValues(t, 2, inst.Length)
}

func TestDecodeCompressedAddExpandsToBaseAdd(t *testing.T) {
	// C.ADD x8, x9: quadrant 10, funct3 100, bit12=1, rd=8, rs2=9.
	raw := uint16(0b100<<13) | uint16(1)<<12 | uint16(8)<<7 | uint16(9)<<2 | 0b10
	inst, err := Decode(64, enc16(raw))
	require.NoError(t, err)
	assert.Equal(t, OpADD, inst.Op)
	assert.EqualValues(t, 8, inst.Rd)
	assert.EqualValues(t, 8, inst.Rs1)
	assert.EqualValues(t, 9, inst.Rs2)
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	_, err := Decode(64, nil)
	assert.Error(t, err)

	// A standard (non-compressed) low-16 pattern with only 2 bytes
	// available must fail rather than panic.
	_, err = Decode(64, []byte{0xff, 0xff})
	assert.Error(t, err)
}

func TestIsBasicBlockEnd(t *testing.T) {
	assert.True(t, IsBasicBlockEnd(OpJAL))
	assert.True(t, IsBasicBlockEnd(OpBEQ))
	assert.True(t, IsBasicBlockEnd(OpECALL))
	assert.False(t, IsBasicBlockEnd(OpADD))
}
