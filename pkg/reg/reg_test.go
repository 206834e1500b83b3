package reg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterZeroIsHardWired(t *testing.T) {
	var f File[uint32]
	f.Set(0, 0xdeadbeef)
	assert.EqualValues(t, 0, f.Get(0))

	var f64 File[uint64]
	f64.Set(0, 0xdeadbeefdeadbeef)
	assert.EqualValues(t, 0, f64.Get(0))
}

func TestDivisionByZero(t *testing.T) {
	assert.EqualValues(t, 0xffffffff, UDiv[uint32](7, 0))
	assert.EqualValues(t, 7, URem[uint32](7, 0))
	assert.EqualValues(t, 0xffffffff, SDiv[uint32](7, 0))
	assert.EqualValues(t, 7, SRem[uint32](7, 0))

	assert.EqualValues(t, ^uint64(0), UDiv[uint64](7, 0))
	assert.EqualValues(t, 7, URem[uint64](7, 0))
}

func TestSignedDivisionOverflow(t *testing.T) {
	minVal32 := uint32(1) << 31
	assert.EqualValues(t, minVal32, SDiv[uint32](minVal32, 0xffffffff)) // / -1
	assert.EqualValues(t, 0, SRem[uint32](minVal32, 0xffffffff))

	minVal64 := uint64(1) << 63
	assert.EqualValues(t, minVal64, SDiv[uint64](minVal64, ^uint64(0)))
	assert.EqualValues(t, 0, SRem[uint64](minVal64, ^uint64(0)))
}

func TestShiftsMaskToWidth(t *testing.T) {
	// Shifting a 32-bit register by 32 must behave as shift-by-0 (masked
	// to W-1 == 31), not as a full clear.
	assert.EqualValues(t, 1, Shl[uint32](1, 32))
	assert.EqualValues(t, 1, Shr[uint32](1, 32))
	assert.EqualValues(t, 1, Shl[uint64](1, 64))
}

func TestArithmeticShiftSignExtends(t *testing.T) {
	assert.EqualValues(t, 0xffffffff, Sar[uint32](0x80000000, 31))
	assert.EqualValues(t, 0xc0000000, Sar[uint32](0x80000000, 1))
}

func TestRotations(t *testing.T) {
	assert.EqualValues(t, 0x00000001, Rotl[uint32](0x80000000, 1))
	assert.EqualValues(t, 0x80000000, Rotr[uint32](0x00000001, 1))
	assert.EqualValues(t, uint32(0x12345678), Rotl[uint32](0x12345678, 32))
}

func TestCountingOps(t *testing.T) {
	assert.EqualValues(t, 31, Clz[uint32](1))
	assert.EqualValues(t, 32, Clz[uint32](0))
	assert.EqualValues(t, 0, Ctz[uint32](1))
	assert.EqualValues(t, 32, Ctz[uint32](0))
	assert.EqualValues(t, 4, Popcount[uint32](0b1111))

	assert.EqualValues(t, 63, Clz[uint64](1))
	assert.EqualValues(t, 64, Ctz[uint64](0))
}

func TestSignZeroExtend(t *testing.T) {
	// Byte 0xFF treated as a signed 8-bit value sign-extends to all ones.
	assert.EqualValues(t, 0xffffffff, SignExtendFrom[uint32](0xff, 7))
	// The same bit pattern zero-extended stays 0xff.
	assert.EqualValues(t, 0x000000ff, ZeroExtendFrom[uint32](0xff, 7))
}

func TestWideningMultiplyHighHalf(t *testing.T) {
	// 0xffffffff * 0xffffffff (unsigned) == 0xfffffffe00000001.
	assert.EqualValues(t, 0xfffffffe, MulhUU[uint32](0xffffffff, 0xffffffff))
	// -1 * -1 (signed) == 1, high half is 0.
	assert.EqualValues(t, 0, MulhSS[uint32](0xffffffff, 0xffffffff))
	// -1 (signed) * 2 (unsigned) == -2, high half is all ones.
	assert.EqualValues(t, 0xffffffff, MulhSU[uint32](0xffffffff, 2))

	assert.EqualValues(t, 0, MulhSS[uint64](^uint64(0), ^uint64(0)))
}

func TestTotalConversions(t *testing.T) {
	assert.EqualValues(t, 0xffffffff, FromInt8[uint32](-1))
	assert.EqualValues(t, 0x000000ff, FromUint8[uint32](0xff))
	assert.EqualValues(t, -1, ToInt64[uint32](0xffffffff))
	assert.EqualValues(t, 0xff, ToUint8[uint32](0xdeadbeff))
}
