package machine

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvsandbox/rvvm/pkg/memory"
	"github.com/rvsandbox/rvvm/pkg/rverr"
)

// rType/iType mirror pkg/isa's test helpers; duplicated here to keep
// pkg/machine's tests independent of pkg/isa's internal test file.
func rType(opcode, rd, f3, rs1, rs2, f7 uint32) uint32 {
	return f7<<25 | rs2<<20 | rs1<<15 | f3<<12 | rd<<7 | opcode
}

func iType(opcode, rd, f3, rs1, imm uint32) uint32 {
	return (imm&0xfff)<<20 | rs1<<15 | f3<<12 | rd<<7 | opcode
}

func newTestMachine(t *testing.T, words []uint32, maxCycles uint64) *Machine[uint64] {
	t.Helper()
	mem := memory.NewFlat(memory.DefaultSize)
	for i, w := range words {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, w)
		require.NoError(t, mem.StoreBytes(uint64(i)*4, buf))
	}
	return New[uint64](mem, ConstantCost{}, maxCycles, nil)
}

func TestRunAddiSequenceThenEbreakPauses(t *testing.T) {
	words := []uint32{
		iType(0b0010011, 1, 0, 0, 5),  // addi x1, x0, 5
		iType(0b0010011, 1, 0, 1, 10), // addi x1, x1, 10
		0b1110011 | (1 << 20),         // ebreak (imm=1)
	}
	m := newTestMachine(t, words, 0)
	err := m.Run()
	assert.ErrorIs(t, err, rverr.ErrPause)
	assert.EqualValues(t, 15, m.Regs.Get(1))
}

func TestRunRespectsCycleBudget(t *testing.T) {
	words := []uint32{
		iType(0b0010011, 1, 0, 1, 1), // addi x1, x1, 1 (runs once)
		0b1101111,                    // jal x0, 0 (jumps to itself forever)
	}
	m := newTestMachine(t, words, 5)
	err := m.Run()
	assert.ErrorIs(t, err, rverr.ErrCyclesExceeded)
	assert.True(t, rverr.Resumable(err))
}

func TestRunBranchNotTaken(t *testing.T) {
	words := []uint32{
		iType(0b0010011, 1, 0, 0, 1), // addi x1, x0, 1
		iType(0b0010011, 2, 0, 0, 2), // addi x2, x0, 2
		// beq x1, x2, +8 (not taken, x1 != x2)
		(0 << 31) | (0b01000 << 7) | (0b000 << 12) | (1 << 15) | (2 << 20) | 0b1100011,
		iType(0b0010011, 3, 0, 0, 99), // addi x3, x0, 99 (must execute)
		0b1110011 | (1 << 20),         // ebreak
	}
	m := newTestMachine(t, words, 0)
	err := m.Run()
	assert.ErrorIs(t, err, rverr.ErrPause)
	assert.EqualValues(t, 99, m.Regs.Get(3))
}

func TestMulAndDiv(t *testing.T) {
	words := []uint32{
		iType(0b0010011, 1, 0, 0, 6),             // addi x1, x0, 6
		iType(0b0010011, 2, 0, 0, 7),             // addi x2, x0, 7
		rType(0b0110011, 3, 0b000, 1, 2, 0b0000001), // mul x3, x1, x2
		rType(0b0110011, 4, 0b100, 1, 2, 0b0000001), // div x4, x1, x2
		0b1110011 | (1 << 20),                     // ebreak
	}
	m := newTestMachine(t, words, 0)
	err := m.Run()
	assert.ErrorIs(t, err, rverr.ErrPause)
	assert.EqualValues(t, 42, m.Regs.Get(3))
	assert.EqualValues(t, 0, m.Regs.Get(4))
}

var errHalted = errors.New("test: halted")

type haltHost struct{ called bool }

func (h *haltHost) Ecall(ctx SyscallContext) error {
	h.called = true
	return errHalted
}
func (h *haltHost) Debug(SyscallContext) error { return rverr.ErrPause }

func TestEcallInvokesHost(t *testing.T) {
	words := []uint32{
		0b1110011, // ecall
	}
	mem := memory.NewFlat(memory.DefaultSize)
	for i, w := range words {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, w)
		require.NoError(t, mem.StoreBytes(uint64(i)*4, buf))
	}
	host := &haltHost{}
	m := New[uint64](mem, ConstantCost{}, 0, host)
	err := m.Run()
	require.Error(t, err)
	assert.True(t, host.called)
}

func TestCycleNotChargedOnTrappedInstruction(t *testing.T) {
	words := []uint32{
		iType(0b0010011, 1, 0, 0, 1), // addi x1, x0, 1
		0b1110011,                    // ecall (host traps)
	}
	mem := memory.NewFlat(memory.DefaultSize)
	for i, w := range words {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, w)
		require.NoError(t, mem.StoreBytes(uint64(i)*4, buf))
	}
	host := &haltHost{}
	m := New[uint64](mem, ConstantCost{}, 0, host)
	err := m.Run()
	require.ErrorIs(t, err, errHalted)
	assert.EqualValues(t, 1, m.Cycles, "only the addi before the trap should be billed")
}

// TestSelfModifyingStoreInvalidatesTrace covers spec §8's self-modifying-
// code boundary behavior: a store that overwrites the instruction the
// next fetch at that address decodes must not serve a stale cached
// trace. The program stores a fresh "addi x1, x0, 2" over its own first
// instruction (initially "addi x1, x0, 1") before pausing; resetting PC
// to the overwritten address and running again must observe the new
// bytes, not whatever the first run decoded.
func TestSelfModifyingStoreInvalidatesTrace(t *testing.T) {
	const newInst = uint32(0x00200093) // addi x1, x0, 2
	words := []uint32{
		iType(0b0010011, 1, 0, 0, 1),          // addi x1, x0, 1
		uint32(0x200)<<12 | 2<<7 | 0b0110111,  // lui x2, 0x200
		iType(0b0010011, 2, 0, 2, 147),        // addi x2, x2, 147 (x2 = newInst)
		2<<20 | 0<<15 | 0b010<<12 | 0b0100011, // sw x2, 0(x0)
		0b1110011 | (1 << 20),                 // ebreak
	}
	m := newTestMachine(t, words, 0)

	err := m.Run()
	require.ErrorIs(t, err, rverr.ErrPause)
	require.EqualValues(t, 1, m.Regs.Get(1))

	stored, err := m.Mem.Load32(0)
	require.NoError(t, err)
	require.EqualValues(t, newInst, stored, "the sw must have landed before the ebreak paused")

	m.Regs.PC = 0
	err = m.Run()
	require.ErrorIs(t, err, rverr.ErrPause)
	assert.EqualValues(t, 2, m.Regs.Get(1), "re-fetching address 0 must decode the overwritten instruction")
}

func TestRegisterZeroStaysZeroAfterExecute(t *testing.T) {
	words := []uint32{
		iType(0b0010011, 0, 0, 0, 123), // addi x0, x0, 123 (no-op target)
		0b1110011 | (1 << 20),          // ebreak
	}
	m := newTestMachine(t, words, 0)
	err := m.Run()
	assert.ErrorIs(t, err, rverr.ErrPause)
	assert.Zero(t, m.Regs.Get(0))
}
