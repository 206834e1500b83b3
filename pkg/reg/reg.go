// Package reg implements the register abstraction of spec §4.1: uniform
// integer arithmetic over a register width W that is either 32 or 64 bits,
// parameterised at compile time via Go generics rather than duplicated into
// two parallel RV32/RV64 code paths (spec §9, "Polymorphism over the
// register width").
package reg

import "math/bits"

// Word is the set of register representations the engine is generic over.
// The constraint admits uint32, uint64 and named types derived from them.
type Word interface {
	~uint32 | ~uint64
}

// Width returns the bit width of T: 32 for uint32-derived types, 64 for
// uint64-derived types.
func Width[T Word]() uint {
	if uint64(^T(0)) == uint64(^uint32(0)) {
		return 32
	}
	return 64
}

func mask[T Word](w uint) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << w) - 1
}

// ToSigned interprets v's bit pattern as a two's-complement integer of
// width w and returns it sign-extended into an int64.
func ToSigned[T Word](v T, w uint) int64 {
	u := uint64(v) & mask[T](w)
	if w < 64 && (u&(uint64(1)<<(w-1))) != 0 {
		u |= ^mask[T](w)
	}
	return int64(u)
}

// FromSigned truncates a signed host integer down to T's bit pattern.
func FromSigned[T Word](v int64, w uint) T {
	return T(uint64(v) & mask[T](w))
}

// File is a RISC-V general-purpose register file of 32 registers plus the
// program counter. Register 0 always reads as zero (invariant 1 of
// spec §3) and silently discards writes.
type File[T Word] struct {
	GPR [32]T
	PC  T
}

// Get returns the value of register i, which is always zero for i == 0.
func (f *File[T]) Get(i uint) T {
	if i == 0 {
		return 0
	}
	return f.GPR[i&31]
}

// Set writes v into register i. Writes to register 0 are discarded.
func (f *File[T]) Set(i uint, v T) {
	if i == 0 {
		return
	}
	f.GPR[i&31] = v
}

// Add, Sub, and Mul wrap on overflow, matching RISC-V integer semantics.
func Add[T Word](a, b T) T { return a + b }
func Sub[T Word](a, b T) T { return a - b }
func Mul[T Word](a, b T) T { return a * b }

// UDiv implements unsigned division with the RISC-V corner case: division
// by zero returns the all-ones register rather than trapping.
func UDiv[T Word](a, b T) T {
	if b == 0 {
		return ^T(0)
	}
	return a / b
}

// URem implements unsigned remainder with the RISC-V corner case: modulo
// by zero returns the dividend.
func URem[T Word](a, b T) T {
	if b == 0 {
		return a
	}
	return a % b
}

// SDiv implements signed division with both RISC-V corner cases: division
// by zero returns all-ones, and INT_MIN / -1 returns INT_MIN rather than
// overflowing.
func SDiv[T Word](a, b T) T {
	w := Width[T]()
	sa, sb := ToSigned(a, w), ToSigned(b, w)
	if sb == 0 {
		return ^T(0)
	}
	minVal := int64(-1) << (w - 1)
	if sa == minVal && sb == -1 {
		return FromSigned[T](minVal, w)
	}
	return FromSigned[T](sa/sb, w)
}

// SRem implements signed remainder with both RISC-V corner cases: modulo
// by zero returns the dividend, and INT_MIN % -1 returns 0.
func SRem[T Word](a, b T) T {
	w := Width[T]()
	sa, sb := ToSigned(a, w), ToSigned(b, w)
	if sb == 0 {
		return a
	}
	minVal := int64(-1) << (w - 1)
	if sa == minVal && sb == -1 {
		return 0
	}
	return FromSigned[T](sa%sb, w)
}

func And[T Word](a, b T) T { return a & b }
func Or[T Word](a, b T) T  { return a | b }
func Xor[T Word](a, b T) T { return a ^ b }
func Not[T Word](a T) T    { return ^a }

// Shl is a logical left shift; the shift amount is masked to W-1 as RISC-V
// requires.
func Shl[T Word](a T, amt uint) T {
	w := Width[T]()
	return a << (amt & (w - 1))
}

// Shr is a logical (zero-filling) right shift.
func Shr[T Word](a T, amt uint) T {
	w := Width[T]()
	return a >> (amt & (w - 1))
}

// Sar is an arithmetic (sign-filling) right shift.
func Sar[T Word](a T, amt uint) T {
	w := Width[T]()
	amt &= w - 1
	sv := ToSigned(a, w) >> amt
	return FromSigned[T](sv, w)
}

// Rotl and Rotr implement bit rotation (the B extension's rol/ror).
func Rotl[T Word](a T, amt uint) T {
	w := Width[T]()
	amt %= w
	if amt == 0 {
		return a
	}
	return Or(Shl(a, amt), Shr(a, w-amt))
}

func Rotr[T Word](a T, amt uint) T {
	w := Width[T]()
	amt %= w
	if amt == 0 {
		return a
	}
	return Or(Shr(a, amt), Shl(a, w-amt))
}

// Clz counts leading zero bits within the register's width.
func Clz[T Word](a T) uint {
	if Width[T]() == 32 {
		return uint(bits.LeadingZeros32(uint32(a)))
	}
	return uint(bits.LeadingZeros64(uint64(a)))
}

// Ctz counts trailing zero bits within the register's width.
func Ctz[T Word](a T) uint {
	if Width[T]() == 32 {
		return uint(bits.TrailingZeros32(uint32(a)))
	}
	return uint(bits.TrailingZeros64(uint64(a)))
}

// Popcount counts set bits.
func Popcount[T Word](a T) uint {
	if Width[T]() == 32 {
		return uint(bits.OnesCount32(uint32(a)))
	}
	return uint(bits.OnesCount64(uint64(a)))
}

// SignExtendFrom sign-extends a, treating bit index bitpos (0-based, from
// the LSB) as the sign bit; bits above it are replaced with copies of it.
func SignExtendFrom[T Word](a T, bitpos uint) T {
	w := Width[T]()
	if bitpos >= w-1 {
		return a
	}
	shift := w - (bitpos + 1)
	shifted := Shl(a, shift)
	sv := ToSigned(shifted, w) >> shift
	return FromSigned[T](sv, w)
}

// ZeroExtendFrom clears every bit above bitpos (0-based, from the LSB).
func ZeroExtendFrom[T Word](a T, bitpos uint) T {
	w := Width[T]()
	if bitpos >= w-1 {
		return a
	}
	m := (T(1) << (bitpos + 1)) - 1
	return a & m
}

// MulhUU computes the high half of the full-width unsigned*unsigned
// product of a and b.
func MulhUU[T Word](a, b T) T {
	if Width[T]() == 32 {
		return T(uint32((uint64(a) * uint64(b)) >> 32))
	}
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	return T(hi)
}

// MulhSS computes the high half of the full-width signed*signed product.
// The 64-bit case uses the standard unsigned-multiply-with-correction
// technique since Go has no native 128-bit signed multiply.
func MulhSS[T Word](a, b T) T {
	w := Width[T]()
	if w == 32 {
		p := int64(int32(a)) * int64(int32(b))
		return T(uint32(p >> 32))
	}
	sa, sb := ToSigned(a, w), ToSigned(b, w)
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	if sa < 0 {
		hi -= uint64(b)
	}
	if sb < 0 {
		hi -= uint64(a)
	}
	return T(hi)
}

// MulhSU computes the high half of the full-width signed(a)*unsigned(b)
// product.
func MulhSU[T Word](a, b T) T {
	w := Width[T]()
	if w == 32 {
		p := int64(int32(a)) * int64(uint32(b))
		return T(uint32(p >> 32))
	}
	sa := ToSigned(a, w)
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	if sa < 0 {
		hi -= uint64(b)
	}
	return T(hi)
}

// The following conversions are total: narrowing conversions truncate,
// widening conversions from a signed host type sign-extend and widening
// conversions from an unsigned host type zero-extend, per spec §4.1.

func FromInt8[T Word](v int8) T   { return T(uint64(int64(v))) }
func FromInt16[T Word](v int16) T { return T(uint64(int64(v))) }
func FromInt32[T Word](v int32) T { return T(uint64(int64(v))) }
func FromInt64[T Word](v int64) T { return T(uint64(v)) }

func FromUint8[T Word](v uint8) T   { return T(v) }
func FromUint16[T Word](v uint16) T { return T(v) }
func FromUint32[T Word](v uint32) T { return T(v) }
func FromUint64[T Word](v uint64) T { return T(v) }

func ToInt8[T Word](v T) int8   { return int8(v) }
func ToInt16[T Word](v T) int16 { return int16(v) }
func ToInt32[T Word](v T) int32 { return int32(v) }
func ToInt64[T Word](v T) int64 { return ToSigned(v, Width[T]()) }

func ToUint8[T Word](v T) uint8   { return uint8(v) }
func ToUint16[T Word](v T) uint16 { return uint16(v) }
func ToUint32[T Word](v T) uint32 { return uint32(v) }
func ToUint64[T Word](v T) uint64 { return uint64(v) }
