package memory

import "github.com/rvsandbox/rvvm/pkg/rverr"

// Flat is the simplest Memory backend: one contiguous buffer of length M,
// with no permission enforcement beyond bounds checking. FetchFlag always
// returns zero (spec §4.2, "Flat implementation"), so wrapped by WXMemory
// it fails every store and instruction fetch; used bare it is suitable
// only for trusted, pre-verified programs.
type Flat struct {
	buf []byte
}

var _ Memory = (*Flat)(nil)

// NewFlat allocates a flat backend of the given size.
func NewFlat(size uint64) *Flat {
	return &Flat{buf: make([]byte, size)}
}

func (f *Flat) Size() uint64 { return uint64(len(f.buf)) }

func (f *Flat) InitPages(addr, size uint64, flags Flag, source []byte, offsetFromAddr uint64) error {
	if !PageAligned(addr) || !PageAligned(size) {
		return rverr.ErrUnaligned
	}
	if err := checkBounds(f.Size(), addr, size); err != nil {
		return err
	}
	region := f.buf[addr : addr+size]
	for i := range region {
		region[i] = 0
	}
	if source != nil && offsetFromAddr < uint64(len(source)) {
		n := uint64(len(source)) - offsetFromAddr
		if n > size {
			n = size
		}
		copy(region[:n], source[offsetFromAddr:offsetFromAddr+n])
	}
	return nil
}

func (f *Flat) FetchFlag(page uint64) Flag          { return 0 }
func (f *Flat) SetFlag(page uint64, flag Flag) error   { return nil }
func (f *Flat) ClearFlag(page uint64, flag Flag) error { return nil }

func (f *Flat) Load8(addr uint64) (uint8, error) {
	if err := checkBounds(f.Size(), addr, 1); err != nil {
		return 0, err
	}
	return f.buf[addr], nil
}

func (f *Flat) Load16(addr uint64) (uint16, error) {
	if err := checkBounds(f.Size(), addr, 2); err != nil {
		return 0, err
	}
	return littleEndianGet16(f.buf[addr : addr+2]), nil
}

func (f *Flat) Load32(addr uint64) (uint32, error) {
	if err := checkBounds(f.Size(), addr, 4); err != nil {
		return 0, err
	}
	return littleEndianGet32(f.buf[addr : addr+4]), nil
}

func (f *Flat) Load64(addr uint64) (uint64, error) {
	if err := checkBounds(f.Size(), addr, 8); err != nil {
		return 0, err
	}
	return littleEndianGet64(f.buf[addr : addr+8]), nil
}

func (f *Flat) Store8(addr uint64, v uint8) error {
	if err := checkBounds(f.Size(), addr, 1); err != nil {
		return err
	}
	f.buf[addr] = v
	return nil
}

func (f *Flat) Store16(addr uint64, v uint16) error {
	if err := checkBounds(f.Size(), addr, 2); err != nil {
		return err
	}
	littleEndianPut16(f.buf[addr:addr+2], v)
	return nil
}

func (f *Flat) Store32(addr uint64, v uint32) error {
	if err := checkBounds(f.Size(), addr, 4); err != nil {
		return err
	}
	littleEndianPut32(f.buf[addr:addr+4], v)
	return nil
}

func (f *Flat) Store64(addr uint64, v uint64) error {
	if err := checkBounds(f.Size(), addr, 8); err != nil {
		return err
	}
	littleEndianPut64(f.buf[addr:addr+8], v)
	return nil
}

func (f *Flat) StoreBytes(addr uint64, data []byte) error {
	if err := checkBounds(f.Size(), addr, uint64(len(data))); err != nil {
		return err
	}
	copy(f.buf[addr:addr+uint64(len(data))], data)
	return nil
}

func (f *Flat) StoreByte(addr uint64, size uint64, fill uint8) error {
	if err := checkBounds(f.Size(), addr, size); err != nil {
		return err
	}
	region := f.buf[addr : addr+size]
	for i := range region {
		region[i] = fill
	}
	return nil
}

func (f *Flat) ExecuteLoad16(addr uint64) (uint16, error) {
	return f.Load16(addr)
}

func (f *Flat) LoadBytes(addr uint64, size uint64) ([]byte, error) {
	if err := checkBounds(f.Size(), addr, size); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, f.buf[addr:addr+size])
	return out, nil
}

func (f *Flat) PageBytes(page uint64) []byte {
	start := page * PageSize
	if start >= f.Size() {
		return make([]byte, PageSize)
	}
	end := start + PageSize
	if end > f.Size() {
		end = f.Size()
	}
	out := make([]byte, PageSize)
	copy(out, f.buf[start:end])
	return out
}
