package loader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvsandbox/rvvm/pkg/loader"
	"github.com/rvsandbox/rvvm/pkg/memory"
)

func TestLoadReplaysActionsInOrder(t *testing.T) {
	mem := memory.NewSparse(4 * memory.PageSize)
	meta := loader.ProgramMetadata{
		Entry: 0,
		Actions: []loader.LoadingAction{
			{Addr: 0, Size: memory.PageSize, Flags: memory.FlagExecutable, SourceRange: []byte{0x13, 0x00, 0x00, 0x00}},
			{Addr: memory.PageSize, Size: memory.PageSize, Flags: memory.FlagWritable},
		},
	}
	require.NoError(t, loader.Load(mem, meta))

	b, err := mem.LoadBytes(0, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x13, 0x00, 0x00, 0x00}, b)
	assert.Equal(t, memory.FlagExecutable, mem.FetchFlag(0))
	assert.Equal(t, memory.FlagWritable, mem.FetchFlag(1))
}

func TestLoadRejectsOverlappingWXSegment(t *testing.T) {
	mem := memory.NewSparse(memory.PageSize)
	meta := loader.ProgramMetadata{
		Actions: []loader.LoadingAction{
			{Addr: 0, Size: memory.PageSize, Flags: memory.FlagExecutable | memory.FlagWritable},
		},
	}
	assert.Error(t, loader.Load(mem, meta))
}

func TestSetupStackLaysOutArgvAndEnvp(t *testing.T) {
	mem := memory.NewSparse(4 * memory.PageSize)
	top := uint64(4 * memory.PageSize)
	require.NoError(t, mem.InitPages(0, 4*memory.PageSize, memory.FlagWritable, nil, 0))

	sp, err := loader.SetupStack(mem, top, []string{"prog", "arg1"}, []string{"HOME=/root"})
	require.NoError(t, err)
	require.Zero(t, sp%8, "stack pointer must be word-aligned")

	argc, err := mem.Load64(sp)
	require.NoError(t, err)
	assert.EqualValues(t, 2, argc)

	argv0Ptr, err := mem.Load64(sp + 8)
	require.NoError(t, err)
	argv1Ptr, err := mem.Load64(sp + 16)
	require.NoError(t, err)
	null, err := mem.Load64(sp + 24)
	require.NoError(t, err)
	assert.Zero(t, null)

	envpPtr, err := mem.Load64(sp + 32)
	require.NoError(t, err)
	envpNull, err := mem.Load64(sp + 40)
	require.NoError(t, err)
	assert.Zero(t, envpNull)

	prog, err := readCString(mem, argv0Ptr)
	require.NoError(t, err)
	assert.Equal(t, "prog", prog)

	arg1, err := readCString(mem, argv1Ptr)
	require.NoError(t, err)
	assert.Equal(t, "arg1", arg1)

	env, err := readCString(mem, envpPtr)
	require.NoError(t, err)
	assert.Equal(t, "HOME=/root", env)
}

func readCString(mem memory.Memory, addr uint64) (string, error) {
	var out []byte
	for i := uint64(0); ; i++ {
		b, err := mem.Load8(addr + i)
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out), nil
}
