package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvsandbox/rvvm/pkg/rverr"
)

func TestSparseUnallocatedPagesReadZero(t *testing.T) {
	m := NewSparse(DefaultSize)
	v, err := m.Load32(0x1000)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestSparseStoreAllocatesAndSetsDirty(t *testing.T) {
	m := NewSparse(DefaultSize)
	require.NoError(t, m.InitPages(0x1000, PageSize, FlagWritable, nil, 0))
	require.NoError(t, m.Store32(0x1000, 0xcafef00d))
	assert.NotZero(t, m.FetchFlag(0x1000/PageSize)&FlagDirty)

	v, err := m.Load32(0x1000)
	require.NoError(t, err)
	assert.EqualValues(t, 0xcafef00d, v)
}

func TestSparseCrossPageAccess(t *testing.T) {
	m := NewSparse(DefaultSize)
	require.NoError(t, m.InitPages(0, 2*PageSize, FlagWritable, nil, 0))
	addr := uint64(PageSize - 2)
	require.NoError(t, m.Store32(addr, 0x11223344))
	v, err := m.Load32(addr)
	require.NoError(t, err)
	assert.EqualValues(t, 0x11223344, v)
	assert.NotZero(t, m.FetchFlag(0)&FlagDirty)
	assert.NotZero(t, m.FetchFlag(1)&FlagDirty)
}

func TestInitPagesOutOfBound(t *testing.T) {
	m := NewSparse(PageSize)
	err := m.InitPages(0, 2*PageSize, FlagWritable, nil, 0)
	assert.ErrorIs(t, err, rverr.ErrOutOfBound)
}

func TestInitPagesRejectsBothExecutableAndWritable(t *testing.T) {
	m := NewSparse(DefaultSize)
	err := m.InitPages(0, PageSize, FlagExecutable|FlagWritable, nil, 0)
	assert.ErrorIs(t, err, rverr.ErrInvalidPermission)
}

func TestFreezedPageRejectsInitPages(t *testing.T) {
	m := NewSparse(DefaultSize)
	require.NoError(t, m.InitPages(0, PageSize, FlagWritable|FlagFreezed, nil, 0))
	err := m.InitPages(0, PageSize, FlagExecutable, nil, 0)
	assert.ErrorIs(t, err, rverr.ErrInvalidPermission)
}

func TestWXRejectsWriteWithoutWritable(t *testing.T) {
	inner := NewSparse(DefaultSize)
	require.NoError(t, inner.InitPages(0, PageSize, FlagExecutable, nil, 0))
	wx := NewWX(inner)
	err := wx.Store32(0, 1)
	assert.ErrorIs(t, err, rverr.ErrInvalidPermission)
}

func TestWXRejectsExecuteWithoutExecutable(t *testing.T) {
	inner := NewSparse(DefaultSize)
	require.NoError(t, inner.InitPages(0, PageSize, FlagWritable, nil, 0))
	wx := NewWX(inner)
	_, err := wx.ExecuteLoad16(0)
	assert.ErrorIs(t, err, rverr.ErrInvalidPermission)
}

func TestWXUnalignedAccessAcrossPermissionBoundary(t *testing.T) {
	inner := NewSparse(DefaultSize)
	require.NoError(t, inner.InitPages(0, PageSize, FlagExecutable, nil, 0))
	require.NoError(t, inner.InitPages(PageSize, PageSize, FlagWritable, nil, 0))
	wx := NewWX(inner)
	// This straddles an executable page and a writable page: a store
	// must fail because the first page lacks FlagWritable.
	err := wx.Store32(PageSize-2, 0xffffffff)
	assert.ErrorIs(t, err, rverr.ErrInvalidPermission)
}

func TestFlatHasNoPermissionEnforcement(t *testing.T) {
	f := NewFlat(DefaultSize)
	require.NoError(t, f.Store32(0, 0x12345678))
	v, err := f.Load32(0)
	require.NoError(t, err)
	assert.EqualValues(t, 0x12345678, v)
	assert.Zero(t, f.FetchFlag(0))
}

func TestInitPagesCopiesSourceAndZeroFillsRemainder(t *testing.T) {
	m := NewSparse(DefaultSize)
	src := []byte{1, 2, 3, 4}
	require.NoError(t, m.InitPages(0, PageSize, FlagWritable, src, 0))
	b, err := m.LoadBytes(0, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 0, 0, 0, 0}, b)
}

func TestStoreByteFill(t *testing.T) {
	m := NewSparse(DefaultSize)
	require.NoError(t, m.InitPages(0, PageSize, FlagWritable, nil, 0))
	require.NoError(t, m.StoreByte(0, 4, 0xaa))
	b, err := m.LoadBytes(0, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xaa, 0xaa, 0xaa}, b)
}
