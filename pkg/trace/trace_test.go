package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvsandbox/rvvm/pkg/isa"
	"github.com/rvsandbox/rvvm/pkg/rverr"
)

func addiProgram(n int) []isa.Inst {
	insts := make([]isa.Inst, n)
	for i := range insts {
		insts[i] = isa.Inst{Op: isa.OpADDI, Length: 4, Rd: 1, Rs1: 1, Imm: 1}
	}
	return insts
}

func decoderFor(insts []isa.Inst, base uint64) Decoder {
	return func(pc uint64) (isa.Inst, error) {
		idx := (pc - base) / 4
		if idx >= uint64(len(insts)) {
			return isa.Inst{}, rverr.ErrOutOfBound
		}
		return insts[idx], nil
	}
}

func TestBuildStopsAtBasicBlockEnd(t *testing.T) {
	insts := addiProgram(3)
	insts[2] = isa.Inst{Op: isa.OpJAL, Length: 4, Rd: 0, Imm: -8}
	tr, err := Build(0x1000, decoderFor(insts, 0x1000))
	require.NoError(t, err)
	assert.Len(t, tr.Instructions, 3)
	assert.True(t, tr.EndsBlock)
	assert.EqualValues(t, 12, tr.ByteLength)
}

func TestBuildStopsAtMaxLength(t *testing.T) {
	insts := addiProgram(MaxLength + 5)
	tr, err := Build(0x2000, decoderFor(insts, 0x2000))
	require.NoError(t, err)
	assert.Len(t, tr.Instructions, MaxLength)
	assert.False(t, tr.EndsBlock)
}

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache()
	tr := &Trace{Address: 0x4000, Instructions: addiProgram(2), ByteLength: 8}
	c.Insert(tr)

	got, ok := c.Lookup(0x4000)
	require.True(t, ok)
	assert.Same(t, tr, got)

	_, ok = c.Lookup(0x8000)
	assert.False(t, ok)
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache()
	tr := &Trace{Address: 0x4000}
	c.Insert(tr)
	c.Invalidate(0x4000)
	_, ok := c.Lookup(0x4000)
	assert.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := NewCache()
	c.Insert(&Trace{Address: 0x100})
	c.Insert(&Trace{Address: 0x200})
	c.Clear()
	_, ok := c.Lookup(0x100)
	assert.False(t, ok)
	_, ok = c.Lookup(0x200)
	assert.False(t, ok)
}

func TestMemoCacheInvalidatesOnSourceChange(t *testing.T) {
	mem := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	read := func(addr, n uint64) ([]byte, error) {
		return mem[addr : addr+n], nil
	}
	m := NewMemoCache(read)
	tr := &Trace{Address: 0, Instructions: addiProgram(2), ByteLength: 8}
	require.NoError(t, m.Insert(tr))

	got, ok := m.Lookup(0)
	require.True(t, ok)
	assert.Same(t, tr, got)

	mem[0] = 0xff // self-modifying store touches the traced range
	_, ok = m.Lookup(0)
	assert.False(t, ok)
}
