package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvsandbox/rvvm/pkg/machine"
	"github.com/rvsandbox/rvvm/pkg/memory"
	"github.com/rvsandbox/rvvm/pkg/rverr"
	"github.com/rvsandbox/rvvm/pkg/snapshot"
)

func uType(opcode, rdReg uint32, value uint32) uint32 {
	return (value & 0xfffff000) | rdReg<<7 | opcode
}

func iType(opcode, rdReg, f3, rs1, imm uint32) uint32 {
	return (imm&0xfff)<<20 | rs1<<15 | f3<<12 | rdReg<<7 | opcode
}

func sType(opcode, f3, rs1, rs2, imm uint32) uint32 {
	imm12 := imm & 0xfff
	return ((imm12>>5)&0x7f)<<25 | rs2<<20 | rs1<<15 | f3<<12 | (imm12&0x1f)<<7 | opcode
}

func encode(words []uint32) []byte {
	out := make([]byte, 0, len(words)*4)
	for _, w := range words {
		out = append(out, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return out
}

type fakeDataSource struct {
	blobs map[string][]byte
}

func (f *fakeDataSource) LoadData(id string, offset, length uint64) ([]byte, uint64, error) {
	b, ok := f.blobs[id]
	if !ok {
		return nil, 0, rverr.ErrIO
	}
	end := offset + length
	if end > uint64(len(b)) {
		end = uint64(len(b))
	}
	out := make([]byte, length)
	copy(out, b[offset:end])
	return out, uint64(len(b)), nil
}

const dataAddr = 0x1000

func buildProgram() []byte {
	words := []uint32{
		iType(0b0010011, 1, 0, 0, 7),            // addi x1, x0, 7
		uType(0b0110111, 2, dataAddr),            // lui x2, dataAddr
		sType(0b0100011, 0b010, 2, 1, 0),         // sw x1, 0(x2)
		0b1110011 | (1 << 20),                    // ebreak
	}
	return encode(words)
}

func TestMakeSnapshotAndResumeRoundTrip(t *testing.T) {
	program := buildProgram()
	ds := &fakeDataSource{blobs: map[string][]byte{"program": program}}

	mem1 := memory.NewSparse(memory.DefaultSize)
	require.NoError(t, mem1.InitPages(0, memory.PageSize, memory.FlagExecutable, program, 0))
	sources1 := snapshot.NewSourceMap()
	sources1.MarkProgram("program", 0, memory.PageSize, 0)

	m1 := machine.New[uint64](mem1, machine.ConstantCost{}, 0, nil)
	err := m1.Run()
	require.ErrorIs(t, err, rverr.ErrPause)
	require.EqualValues(t, 7, m1.Regs.Get(1))

	snap := snapshot.MakeSnapshot(m1, sources1)
	require.NotNil(t, snap)
	require.NotEmpty(t, snap.SourceRanges)
	require.NotEmpty(t, snap.DirtyRanges)

	blob, err := snap.Marshal()
	require.NoError(t, err)
	decoded, err := snapshot.Unmarshal(blob)
	require.NoError(t, err)

	mem2 := memory.NewSparse(memory.DefaultSize)
	m2 := machine.New[uint64](mem2, machine.ConstantCost{}, 0, nil)
	m2.Version = m1.Version
	sources2 := snapshot.NewSourceMap()

	require.NoError(t, snapshot.Resume[uint64](m2, decoded, sources2, ds))

	assert.EqualValues(t, m1.Regs.Get(1), m2.Regs.Get(1))
	assert.Equal(t, m1.Regs.PC, m2.Regs.PC)
	assert.Equal(t, m1.Cycles, m2.Cycles)

	v, loadErr := mem2.Load32(dataAddr)
	require.NoError(t, loadErr)
	assert.EqualValues(t, 7, v)

	b0, loadErr := mem2.Load8(0)
	require.NoError(t, loadErr)
	assert.Equal(t, program[0], b0)
}

func TestResumeRejectsVersionMismatch(t *testing.T) {
	mem := memory.NewSparse(memory.PageSize)
	m := machine.New[uint64](mem, machine.ConstantCost{}, 0, nil)
	snap := &snapshot.Snapshot{Width: 64, Version: m.Version + 1}
	err := snapshot.Resume[uint64](m, snap, snapshot.NewSourceMap(), &fakeDataSource{blobs: map[string][]byte{}})
	assert.ErrorIs(t, err, rverr.ErrInvalidVersion)
}
