package isa

// Bit-field extraction for the standard 32-bit instruction formats
// (R/I/S/B/U/J) and the compressed 16-bit formats, grounded on the layouts
// used throughout ckb-vm's instructions/{i,m,a,b,c}.rs decoders: each
// format function pulls exactly the fields that format defines, and the
// immediate helpers return their value already sign-extended.

func bits(x uint32, hi, lo uint) uint32 {
	return (x >> lo) & ((1 << (hi - lo + 1)) - 1)
}

func signExtend32(v uint32, bitWidth uint) int64 {
	shift := 32 - bitWidth
	return int64(int32(v<<shift) >> shift)
}

func opcode(raw uint32) uint32 { return bits(raw, 6, 0) }
func rd(raw uint32) uint8      { return uint8(bits(raw, 11, 7)) }
func funct3(raw uint32) uint32 { return bits(raw, 14, 12) }
func rs1(raw uint32) uint8     { return uint8(bits(raw, 19, 15)) }
func rs2(raw uint32) uint8     { return uint8(bits(raw, 24, 20)) }
func funct7(raw uint32) uint32 { return bits(raw, 31, 25) }
func funct5(raw uint32) uint32 { return bits(raw, 31, 27) }
func aqrl(raw uint32) uint32   { return bits(raw, 26, 25) }
func shamt5(raw uint32) uint32 { return bits(raw, 24, 20) }
func shamt6(raw uint32) uint32 { return bits(raw, 25, 20) }

// iImmediate extracts the sign-extended 12-bit I-type immediate.
func iImmediate(raw uint32) int64 {
	return signExtend32(bits(raw, 31, 20), 12)
}

// sImmediate extracts the sign-extended 12-bit S-type immediate.
func sImmediate(raw uint32) int64 {
	v := bits(raw, 31, 25)<<5 | bits(raw, 11, 7)
	return signExtend32(v, 12)
}

// bImmediate extracts the sign-extended 13-bit B-type immediate (bit 0
// implicit zero).
func bImmediate(raw uint32) int64 {
	v := bits(raw, 31, 31)<<12 | bits(raw, 7, 7)<<11 |
		bits(raw, 30, 25)<<5 | bits(raw, 11, 8)<<1
	return signExtend32(v, 13)
}

// uImmediate extracts the U-type immediate, already positioned in bits
// [31:12] and sign-extended as a full 32-bit (then widened) value.
func uImmediate(raw uint32) int64 {
	v := raw & 0xfffff000
	return int64(int32(v))
}

// jImmediate extracts the sign-extended 21-bit J-type immediate (bit 0
// implicit zero).
func jImmediate(raw uint32) int64 {
	v := bits(raw, 31, 31)<<20 | bits(raw, 19, 12)<<12 |
		bits(raw, 20, 20)<<11 | bits(raw, 30, 21)<<1
	return signExtend32(v, 21)
}

// Compressed-format helpers. cbits(raw, hi, lo) pulls [hi:lo] out of the 16-bit
// word; compactReg expands a 3-bit compact register number (c.rs.* fields
// cover only x8-x15) to its full 5-bit register number.

func cbits(x uint16, hi, lo uint) uint32 {
	return (uint32(x) >> lo) & ((1 << (hi - lo + 1)) - 1)
}

func compactReg(field uint32) uint8 { return uint8(field) + 8 }

func cOpcode(raw uint16) uint32 { return cbits(raw, 1, 0) }
func cFunct3(raw uint16) uint32 { return cbits(raw, 15, 13) }
