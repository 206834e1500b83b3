package memory

import "github.com/rvsandbox/rvvm/pkg/rverr"

// invalidSlot marks a page-table slot as unallocated (spec §4.2, "Sparse
// implementation").
const invalidSlot = 0xffff

// Sparse is a Memory backend that allocates page storage on first touch.
// A page-indexed slot table of u16s names an index into a page-data
// vector; INVALID means the page has never been written and reads as
// zero, matching spec §4.2.
type Sparse struct {
	size  uint64
	slot  []uint16
	pages [][]byte
	flags []Flag
}

var _ Memory = (*Sparse)(nil)

// NewSparse allocates a sparse backend covering addresses [0, size).
func NewSparse(size uint64) *Sparse {
	numPages := (size + PageSize - 1) / PageSize
	s := &Sparse{
		size:  size,
		slot:  make([]uint16, numPages),
		flags: make([]Flag, numPages),
	}
	for i := range s.slot {
		s.slot[i] = invalidSlot
	}
	return s
}

func (s *Sparse) Size() uint64 { return s.size }

func (s *Sparse) pageCount() uint64 { return uint64(len(s.slot)) }

func validateFlags(flags Flag) error {
	if flags&FlagExecutable != 0 && flags&FlagWritable != 0 {
		return rverr.ErrInvalidPermission
	}
	return nil
}

// allocated returns the backing buffer for page if one exists, else nil.
func (s *Sparse) allocated(page uint64) []byte {
	if page >= s.pageCount() || s.slot[page] == invalidSlot {
		return nil
	}
	return s.pages[s.slot[page]]
}

// ensure returns the backing buffer for page, allocating a fresh
// zero-filled page on first touch.
func (s *Sparse) ensure(page uint64) []byte {
	if buf := s.allocated(page); buf != nil {
		return buf
	}
	buf := make([]byte, PageSize)
	s.pages = append(s.pages, buf)
	s.slot[page] = uint16(len(s.pages) - 1)
	return buf
}

func (s *Sparse) InitPages(addr, size uint64, flags Flag, source []byte, offsetFromAddr uint64) error {
	if !PageAligned(addr) || !PageAligned(size) {
		return rverr.ErrUnaligned
	}
	if err := checkBounds(s.size, addr, size); err != nil {
		return err
	}
	if err := validateFlags(flags); err != nil {
		return err
	}
	startPage, endPage := addr/PageSize, (addr+size)/PageSize
	for p := startPage; p < endPage; p++ {
		if s.flags[p]&FlagFreezed != 0 {
			return rverr.ErrInvalidPermission
		}
	}
	for p := startPage; p < endPage; p++ {
		s.flags[p] = flags
		buf := s.ensure(p)
		for i := range buf {
			buf[i] = 0
		}
	}
	if source == nil || offsetFromAddr >= uint64(len(source)) {
		return nil
	}
	n := uint64(len(source)) - offsetFromAddr
	if n > size {
		n = size
	}
	for i := uint64(0); i < n; i++ {
		a := addr + i
		page, off := a/PageSize, a%PageSize
		s.pages[s.slot[page]][off] = source[offsetFromAddr+i]
	}
	return nil
}

func (s *Sparse) FetchFlag(page uint64) Flag {
	if page >= s.pageCount() {
		return 0
	}
	return s.flags[page]
}

func (s *Sparse) SetFlag(page uint64, flag Flag) error {
	if page >= s.pageCount() {
		return rverr.ErrOutOfBound
	}
	if s.flags[page]&FlagFreezed != 0 {
		return rverr.ErrInvalidPermission
	}
	next := s.flags[page] | flag
	if err := validateFlags(next &^ FlagDirty &^ FlagFreezed); err != nil {
		return err
	}
	s.flags[page] = next
	return nil
}

func (s *Sparse) ClearFlag(page uint64, flag Flag) error {
	if page >= s.pageCount() {
		return rverr.ErrOutOfBound
	}
	if s.flags[page]&FlagFreezed != 0 && flag != FlagDirty {
		return rverr.ErrInvalidPermission
	}
	s.flags[page] &^= flag
	return nil
}

func (s *Sparse) readBytes(addr, n uint64) ([]byte, error) {
	if err := checkBounds(s.size, addr, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i := uint64(0); i < n; i++ {
		a := addr + i
		page, off := a/PageSize, a%PageSize
		if buf := s.allocated(page); buf != nil {
			out[i] = buf[off]
		}
	}
	return out, nil
}

func (s *Sparse) writeBytes(addr uint64, data []byte) error {
	if err := checkBounds(s.size, addr, uint64(len(data))); err != nil {
		return err
	}
	touched := make(map[uint64]bool)
	for i, b := range data {
		a := addr + uint64(i)
		page, off := a/PageSize, a%PageSize
		buf := s.ensure(page)
		buf[off] = b
		touched[page] = true
	}
	for page := range touched {
		s.flags[page] |= FlagDirty
	}
	return nil
}

func (s *Sparse) Load8(addr uint64) (uint8, error) {
	b, err := s.readBytes(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *Sparse) Load16(addr uint64) (uint16, error) {
	b, err := s.readBytes(addr, 2)
	if err != nil {
		return 0, err
	}
	return littleEndianGet16(b), nil
}

func (s *Sparse) Load32(addr uint64) (uint32, error) {
	b, err := s.readBytes(addr, 4)
	if err != nil {
		return 0, err
	}
	return littleEndianGet32(b), nil
}

func (s *Sparse) Load64(addr uint64) (uint64, error) {
	b, err := s.readBytes(addr, 8)
	if err != nil {
		return 0, err
	}
	return littleEndianGet64(b), nil
}

func (s *Sparse) Store8(addr uint64, v uint8) error {
	return s.writeBytes(addr, []byte{v})
}

func (s *Sparse) Store16(addr uint64, v uint16) error {
	var b [2]byte
	littleEndianPut16(b[:], v)
	return s.writeBytes(addr, b[:])
}

func (s *Sparse) Store32(addr uint64, v uint32) error {
	var b [4]byte
	littleEndianPut32(b[:], v)
	return s.writeBytes(addr, b[:])
}

func (s *Sparse) Store64(addr uint64, v uint64) error {
	var b [8]byte
	littleEndianPut64(b[:], v)
	return s.writeBytes(addr, b[:])
}

func (s *Sparse) StoreBytes(addr uint64, data []byte) error {
	return s.writeBytes(addr, data)
}

func (s *Sparse) StoreByte(addr uint64, size uint64, fill uint8) error {
	if size == 0 {
		return nil
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = fill
	}
	return s.writeBytes(addr, data)
}

func (s *Sparse) ExecuteLoad16(addr uint64) (uint16, error) {
	return s.Load16(addr)
}

func (s *Sparse) LoadBytes(addr uint64, size uint64) ([]byte, error) {
	return s.readBytes(addr, size)
}

func (s *Sparse) PageBytes(page uint64) []byte {
	if buf := s.allocated(page); buf != nil {
		out := make([]byte, PageSize)
		copy(out, buf)
		return out
	}
	return make([]byte, PageSize)
}
