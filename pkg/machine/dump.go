package machine

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// dumpConfig renders registers compactly: two levels deep, no pointer
// chasing into Mem/Host, since those can be arbitrarily large or cyclic.
var dumpConfig = &spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	MaxDepth:                2,
}

// dumpState is the generic backing function for Machine.DumpState,
// grounded on the teacher's VM.String debug dump — generalized from a
// single fmt.Sprintf line into a structured spew.Sdump so the much larger
// RISC-V register set and control-flow state stay readable.
func dumpState[T interface{ ~uint32 | ~uint64 }](m *Machine[T]) string {
	type view struct {
		PC        T
		GPR       [32]T
		Cycles    uint64
		MaxCycles uint64
		Version   uint32
		Running   bool
		Paused    bool
		Suspended bool
	}
	v := view{
		PC:        m.Regs.PC,
		GPR:       m.Regs.GPR,
		Cycles:    m.Cycles,
		MaxCycles: m.MaxCycles,
		Version:   m.Version,
		Running:   m.running,
		Paused:    m.paused,
		Suspended: m.suspended,
	}
	return fmt.Sprintf("machine state:\n%s", dumpConfig.Sdump(v))
}
