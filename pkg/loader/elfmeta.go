package loader

import (
	"fmt"

	"github.com/yalue/elf_reader"

	"github.com/rvsandbox/rvvm/pkg/memory"
	"github.com/rvsandbox/rvvm/pkg/rverr"
)

// progFlagExecute/progFlagWrite are the standard ELF PT_LOAD p_flags
// bits PF_X and PF_W.
const (
	progFlagExecute = 1
	progFlagWrite   = 2
)

// FromELF parses raw as an ELF image via elf_reader and translates its
// PT_LOAD program headers into ProgramMetadata, page-aligning each
// segment's address and size (spec §4.8: init_pages requires page
// alignment) and rejecting any segment whose permission bits would
// violate W^X (invariant 2) once this engine maps it.
//
// The ELF parser itself (elf_reader) is a collaborator, not something
// this package re-implements: FromELF is the one piece of "ELF
// awareness" in scope, translating already-parsed headers into the
// loading-action shape the rest of the engine consumes.
func FromELF(raw []byte) (ProgramMetadata, error) {
	file, err := elf_reader.ParseELFFile(raw)
	if err != nil {
		return ProgramMetadata{}, fmt.Errorf("%w: parsing ELF image: %v", rverr.ErrParse, err)
	}

	count := file.GetProgramHeaderCount()
	actions := make([]LoadingAction, 0, count)
	for i := uint16(0); i < count; i++ {
		ph, err := file.GetProgramHeader(i)
		if err != nil {
			return ProgramMetadata{}, fmt.Errorf("%w: reading program header %d: %v", rverr.ErrParse, i, err)
		}
		if ph.Type != elf_reader.ProgramHeaderTypeLoad {
			continue
		}

		flags, err := segmentFlags(ph.Flags)
		if err != nil {
			return ProgramMetadata{}, err
		}

		addr := ph.Vaddr &^ (memory.PageSize - 1)
		pad := ph.Vaddr - addr
		size := pageRoundUp(ph.Memsz + pad)

		var source []byte
		if ph.Filesz > 0 {
			end := ph.Offset + ph.Filesz
			if end > uint64(len(raw)) {
				return ProgramMetadata{}, fmt.Errorf("%w: segment %d file range exceeds image", rverr.ErrParse, i)
			}
			// InitPages copies the source to the start of the page-aligned
			// region, so pad zero bytes lead it to land the data at Vaddr.
			source = append(make([]byte, pad, pad+ph.Filesz), raw[ph.Offset:end]...)
		}

		actions = append(actions, LoadingAction{
			Addr:           addr,
			Size:           size,
			Flags:          flags,
			SourceRange:    source,
			OffsetFromAddr: 0,
		})
	}

	entry, err := file.GetEntryPoint()
	if err != nil {
		return ProgramMetadata{}, fmt.Errorf("%w: reading entry point: %v", rverr.ErrParse, err)
	}

	return ProgramMetadata{Actions: actions, Entry: entry}, nil
}

// segmentFlags translates ELF p_flags into this engine's page Flag bits,
// rejecting the PF_X|PF_W combination up front rather than letting it
// fail later inside Memory.InitPages's own W^X check — a clearer error
// at the loader boundary than at the memory boundary.
func segmentFlags(pf uint32) (memory.Flag, error) {
	var flags memory.Flag
	if pf&progFlagExecute != 0 {
		flags |= memory.FlagExecutable
	}
	if pf&progFlagWrite != 0 {
		flags |= memory.FlagWritable
	}
	if flags&memory.FlagExecutable != 0 && flags&memory.FlagWritable != 0 {
		return 0, fmt.Errorf("%w: PT_LOAD segment requests both W and X", rverr.ErrInvalidPermission)
	}
	return flags, nil
}

func pageRoundUp(n uint64) uint64 {
	return (n + memory.PageSize - 1) &^ (memory.PageSize - 1)
}
