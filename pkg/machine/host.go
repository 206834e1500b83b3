package machine

import "github.com/rvsandbox/rvvm/pkg/rverr"

// SyscallContext is handed to a Host's Ecall/Debug hooks. It exposes the
// minimum surface a syscall handler needs: the calling machine's register
// accessors (via the closures below, so the hook never needs a type
// parameter of its own) and a Spawn field for nested-machine
// re-entrancy, which Machine leaves nil (see Spawn).
type SyscallContext struct {
	// GetReg/SetReg address the calling machine's general-purpose
	// registers by RISC-V ABI convention (a0-a7 are x10-x17).
	GetReg func(i uint) uint64
	SetReg func(i uint, v uint64)

	// PC returns the calling machine's current program counter.
	PC func() uint64

	// Spawn starts a fresh, independently-resumable machine on the given
	// ELF-equivalent program image and blocks until it halts, returning
	// its exit code. Machine's ECALL/EBREAK dispatch never sets it, so
	// hooks called by a Machine always see a nil Spawn.
	Spawn func(image []byte, argv []string) (exitCode int32, err error)
}

// Host is the boundary between guest code and the embedding application
// (spec §4.6). Ecall services a RISC-V ECALL; Debug services an EBREAK.
// Both receive the context of the machine that trapped and return an
// error to halt the machine, or nil to resume at the next instruction.
type Host interface {
	Ecall(ctx SyscallContext) error
	Debug(ctx SyscallContext) error
}

// NopHost satisfies Host by treating every ECALL as an invalid-ecall
// fault and every EBREAK as a pause request (Run returns rverr.ErrPause,
// which is resumable); it is the default for
// a Machine constructed without an explicit Host, and a reasonable base
// to embed for hosts that only want to override one hook.
type NopHost struct{}

func (NopHost) Ecall(SyscallContext) error { return rverr.ErrInvalidEcall }
func (NopHost) Debug(SyscallContext) error { return rverr.ErrPause }
