package memory

import "github.com/rvsandbox/rvvm/pkg/rverr"

// WXMemory wraps a Memory backend and enforces W^X at every access: stores
// require FlagWritable on every touched page, and ExecuteLoad16 requires
// FlagExecutable. InitPages is passed to the backend unchanged: Sparse
// refuses it on FREEZED pages, while Flat keeps no flags and refuses
// nothing. Because Flat reports zero flags for every page, a wrapped Flat
// fails every store and instruction fetch.
type WXMemory struct {
	inner Memory
}

var _ Memory = (*WXMemory)(nil)

// NewWX wraps inner with W^X enforcement.
func NewWX(inner Memory) *WXMemory {
	return &WXMemory{inner: inner}
}

// Unwrap returns the wrapped backend, for callers (such as the snapshot
// engine) that need direct page-level access beneath the permission layer.
func (w *WXMemory) Unwrap() Memory { return w.inner }

func (w *WXMemory) Size() uint64 { return w.inner.Size() }

func (w *WXMemory) InitPages(addr, size uint64, flags Flag, source []byte, offsetFromAddr uint64) error {
	return w.inner.InitPages(addr, size, flags, source, offsetFromAddr)
}

func (w *WXMemory) FetchFlag(page uint64) Flag            { return w.inner.FetchFlag(page) }
func (w *WXMemory) SetFlag(page uint64, flag Flag) error   { return w.inner.SetFlag(page, flag) }
func (w *WXMemory) ClearFlag(page uint64, flag Flag) error { return w.inner.ClearFlag(page, flag) }

// requireWritable checks every page touched by [addr, addr+n) for
// FlagWritable, failing closed (InvalidPermission) on any unwritable or
// unallocated-with-no-flags page.
func (w *WXMemory) requireWritable(addr, n uint64) error {
	if n == 0 {
		return nil
	}
	first, last := PageOf(addr), PageOf(addr+n-1)
	for p := first; p <= last; p++ {
		if w.inner.FetchFlag(p)&FlagWritable == 0 {
			return rverr.ErrInvalidPermission
		}
	}
	return nil
}

func (w *WXMemory) requireExecutable(addr, n uint64) error {
	if n == 0 {
		return nil
	}
	first, last := PageOf(addr), PageOf(addr+n-1)
	for p := first; p <= last; p++ {
		if w.inner.FetchFlag(p)&FlagExecutable == 0 {
			return rverr.ErrInvalidPermission
		}
	}
	return nil
}

func (w *WXMemory) Load8(addr uint64) (uint8, error)   { return w.inner.Load8(addr) }
func (w *WXMemory) Load16(addr uint64) (uint16, error) { return w.inner.Load16(addr) }
func (w *WXMemory) Load32(addr uint64) (uint32, error) { return w.inner.Load32(addr) }
func (w *WXMemory) Load64(addr uint64) (uint64, error) { return w.inner.Load64(addr) }

func (w *WXMemory) Store8(addr uint64, v uint8) error {
	if err := w.requireWritable(addr, 1); err != nil {
		return err
	}
	return w.inner.Store8(addr, v)
}

func (w *WXMemory) Store16(addr uint64, v uint16) error {
	if err := w.requireWritable(addr, 2); err != nil {
		return err
	}
	return w.inner.Store16(addr, v)
}

func (w *WXMemory) Store32(addr uint64, v uint32) error {
	if err := w.requireWritable(addr, 4); err != nil {
		return err
	}
	return w.inner.Store32(addr, v)
}

func (w *WXMemory) Store64(addr uint64, v uint64) error {
	if err := w.requireWritable(addr, 8); err != nil {
		return err
	}
	return w.inner.Store64(addr, v)
}

func (w *WXMemory) StoreBytes(addr uint64, data []byte) error {
	if err := w.requireWritable(addr, uint64(len(data))); err != nil {
		return err
	}
	return w.inner.StoreBytes(addr, data)
}

func (w *WXMemory) StoreByte(addr uint64, size uint64, fill uint8) error {
	if err := w.requireWritable(addr, size); err != nil {
		return err
	}
	return w.inner.StoreByte(addr, size, fill)
}

func (w *WXMemory) ExecuteLoad16(addr uint64) (uint16, error) {
	if err := w.requireExecutable(addr, 2); err != nil {
		return 0, err
	}
	return w.inner.ExecuteLoad16(addr)
}

func (w *WXMemory) LoadBytes(addr uint64, size uint64) ([]byte, error) {
	return w.inner.LoadBytes(addr, size)
}

func (w *WXMemory) PageBytes(page uint64) []byte { return w.inner.PageBytes(page) }
