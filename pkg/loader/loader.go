// Package loader implements spec §4.8's loading-action glue: turning a
// parsed program image into init_pages calls against a Memory, and laying
// out argv/envp on the guest stack.
package loader

import (
	"fmt"

	"github.com/rvsandbox/rvvm/pkg/memory"
	"github.com/rvsandbox/rvvm/pkg/rverr"
)

// LoadingAction is one init_pages call: copy program[offsetFromAddr:] into
// [addr, addr+size) under flags, zero-filling past the end of the source
// slice. Mirrors spec §4.8's LoadingAction record exactly.
type LoadingAction struct {
	Addr           uint64
	Size           uint64
	Flags          memory.Flag
	SourceRange    []byte
	OffsetFromAddr uint64
}

// ProgramMetadata is the loader-facing summary of a parsed program image:
// the loading actions to replay and the entry point to set PC to.
type ProgramMetadata struct {
	Actions []LoadingAction
	Entry   uint64
}

// Load replays every action in meta against mem in order.
func Load(mem memory.Memory, meta ProgramMetadata) error {
	for i, a := range meta.Actions {
		if err := mem.InitPages(a.Addr, a.Size, a.Flags, a.SourceRange, a.OffsetFromAddr); err != nil {
			return fmt.Errorf("%w: loading action %d at 0x%x: %v", rverr.ErrParse, i, a.Addr, err)
		}
	}
	return nil
}

// SetupStack lays out argv and envp on the guest stack below stackTop
// (which must be page-aligned with enough writable headroom below it —
// the caller is expected to have already init_pages'd that region
// WRITABLE), growing down, and returns the resulting stack pointer: a
// word-aligned address holding argc, followed by the argv pointer array
// (NULL-terminated), the envp pointer array (NULL-terminated), and the
// string bytes themselves, all below the original stackTop.
func SetupStack(mem memory.Memory, stackTop uint64, argv, envp []string) (uint64, error) {
	cur := stackTop

	writeString := func(s string) (uint64, error) {
		data := append([]byte(s), 0)
		cur -= uint64(len(data))
		if err := mem.StoreBytes(cur, data); err != nil {
			return 0, fmt.Errorf("%w: writing stack string: %v", rverr.ErrOutOfBound, err)
		}
		return cur, nil
	}

	argvAddrs := make([]uint64, len(argv))
	for i, s := range argv {
		addr, err := writeString(s)
		if err != nil {
			return 0, err
		}
		argvAddrs[i] = addr
	}
	envpAddrs := make([]uint64, len(envp))
	for i, s := range envp {
		addr, err := writeString(s)
		if err != nil {
			return 0, err
		}
		envpAddrs[i] = addr
	}

	cur &^= 7 // word-align before the pointer table

	entries := uint64(1 + len(argvAddrs) + 1 + len(envpAddrs) + 1)
	cur -= entries * 8
	sp := cur

	store := func(v uint64) error {
		if err := mem.Store64(cur, v); err != nil {
			return fmt.Errorf("%w: writing stack word: %v", rverr.ErrOutOfBound, err)
		}
		cur += 8
		return nil
	}

	if err := store(uint64(len(argvAddrs))); err != nil {
		return 0, err
	}
	for _, a := range argvAddrs {
		if err := store(a); err != nil {
			return 0, err
		}
	}
	if err := store(0); err != nil {
		return 0, err
	}
	for _, a := range envpAddrs {
		if err := store(a); err != nil {
			return 0, err
		}
	}
	if err := store(0); err != nil {
		return 0, err
	}

	return sp, nil
}
