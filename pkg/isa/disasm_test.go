package isa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rvsandbox/rvvm/pkg/isa"
)

func TestDisassembleFormatsEachOperandClass(t *testing.T) {
	cases := []struct {
		inst isa.Inst
		want string
	}{
		{isa.Inst{Op: isa.OpADDI, Rd: 1, Rs1: 2, Imm: -4}, "addi x1, x2, -4"},
		{isa.Inst{Op: isa.OpADD, Rd: 1, Rs1: 2, Rs2: 3}, "add x1, x2, x3"},
		{isa.Inst{Op: isa.OpLUI, Rd: 5, Imm: 4096}, "lui x5, 4096"},
		{isa.Inst{Op: isa.OpBEQ, Rs1: 1, Rs2: 2, Imm: 8}, "beq x1, x2, 8"},
		{isa.Inst{Op: isa.OpSW, Rs1: 2, Rs2: 3, Imm: 4}, "sw x3, 4(x2)"},
		{isa.Inst{Op: isa.OpCLZ, Rd: 1, Rs1: 2}, "clz x1, x2"},
		{isa.Inst{Op: isa.OpLRW, Rd: 1, Rs1: 2}, "lr.w x1, (x2)"},
		{isa.Inst{Op: isa.OpAMOADDW, Rd: 1, Rs1: 2, Rs2: 3}, "amoadd.w x1, x3, (x2)"},
		{isa.Inst{Op: isa.OpECALL}, "ecall"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, isa.Disassemble(c.inst))
	}
}

func TestDisassembleUnknownOpIsLabeled(t *testing.T) {
	assert.Contains(t, isa.Disassemble(isa.Inst{Op: isa.OpInvalid}), "unknown")
}
