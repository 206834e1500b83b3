// Command rvvm is the reference host for the engine implemented under
// pkg/: it loads a guest image, drives a Machine to completion (or
// pause/suspend/cycle-exhaustion), and can disassemble an image or
// resume it from a prior snapshot. Adapted from the teacher's
// cmd/{vm,asm,interp} raw-flag mains into a github.com/spf13/cobra
// command tree, the shape oisee/z80-optimizer's cmd/z80opt uses.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "rvvm",
		Short: "A RISC-V interpreter with snapshot/resume and ELF loading",
	}
	root.AddCommand(newRunCmd(), newDisasmCmd(), newSnapshotCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
