package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rvsandbox/rvvm/pkg/isa"
	"github.com/rvsandbox/rvvm/pkg/rverr"
)

func newDisasmCmd() *cobra.Command {
	var width uint
	cmd := &cobra.Command{
		Use:   "disasm <image>",
		Short: "Decode and print every instruction in a flat image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("%w: reading image %s: %v", rverr.ErrIO, args[0], err)
			}
			if bytes.HasPrefix(raw, elfMagic) {
				return fmt.Errorf("%w: disasm only accepts flat images; use an extracted segment", rverr.ErrParse)
			}

			pc := uint64(0)
			for pc < uint64(len(raw)) {
				chunk := raw[pc:]
				if len(chunk) > 4 {
					chunk = chunk[:4]
				}
				inst, err := isa.Decode(width, chunk)
				if err != nil {
					fmt.Printf("%6x: <decode error: %v>\n", pc, err)
					pc += 2
					continue
				}
				fmt.Printf("%6x: %s\n", pc, isa.Disassemble(inst))
				pc += uint64(inst.Length)
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&width, "width", 64, "register width: 32 or 64")
	return cmd
}
