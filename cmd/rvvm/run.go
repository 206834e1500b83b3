package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/rvsandbox/rvvm/pkg/config"
	"github.com/rvsandbox/rvvm/pkg/hostlog"
	"github.com/rvsandbox/rvvm/pkg/loader"
	"github.com/rvsandbox/rvvm/pkg/machine"
	"github.com/rvsandbox/rvvm/pkg/memory"
	"github.com/rvsandbox/rvvm/pkg/reg"
	"github.com/rvsandbox/rvvm/pkg/rverr"
	"github.com/rvsandbox/rvvm/pkg/snapshot"
	"github.com/rvsandbox/rvvm/pkg/vmhost"
)

// elfMagic is the four-byte ELF identification the run command uses to
// decide between loader.FromELF and a flat single-segment image.
var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		snapOut    string
		tty        string
		maxCycles  uint64
		entry      uint64
		envp       []string
	)

	cmd := &cobra.Command{
		Use:   "run <image> [guest-args...]",
		Short: "Load an ELF or flat image and run it to completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if maxCycles != 0 {
				cfg.MaxCycles = maxCycles
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("%w: reading image %s: %v", rverr.ErrIO, args[0], err)
			}

			logger := hostlog.NewLogger(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})

			host, closeHost, err := buildHost(tty, logger)
			if err != nil {
				return err
			}
			defer closeHost()

			exitCode, err := runImage(cfg, raw, entry, args[1:], envp, host, snapOut, logger)
			if err != nil {
				return err
			}
			if exitCode != 0 {
				os.Exit(int(exitCode))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "TOML machine configuration file")
	cmd.Flags().StringVar(&snapOut, "snapshot-out", "", "write a resumable snapshot here if the run pauses/suspends/exhausts its cycle budget")
	cmd.Flags().StringVar(&tty, "tty", "none", "console device: none, local, or remote")
	cmd.Flags().Uint64Var(&maxCycles, "max-cycles", 0, "override the configured cycle budget (0 keeps the configured value)")
	cmd.Flags().Uint64Var(&entry, "entry", 0, "override the image's entry point for flat (non-ELF) images")
	cmd.Flags().StringArrayVar(&envp, "env", nil, "environment variable to pass the guest (KEY=VALUE, repeatable)")
	return cmd
}

// buildHost constructs the machine.Host for the requested --tty mode and
// returns a cleanup func that is always safe to call (a no-op for "none").
func buildHost(mode string, logger *slog.Logger) (machine.Host, func(), error) {
	switch mode {
	case "", "none":
		return machine.NopHost{}, func() {}, nil
	case "local":
		console, err := vmhost.NewLocalConsole()
		if err != nil {
			return nil, nil, err
		}
		return console, func() { console.Close() }, nil
	case "remote":
		console, addr, err := vmhost.NewRemoteConsole()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("console attached", slog.String("addr", addrString(addr)))
		return console, func() { console.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown --tty mode %q (want none, local, or remote)", rverr.ErrParse, mode)
	}
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}

// loadMetadata builds ProgramMetadata from raw: an ELF image goes through
// loader.FromELF, anything else is treated as a single flat executable
// segment loaded at address 0, entered at --entry (0 by default).
func loadMetadata(raw []byte, entryOverride uint64) (loader.ProgramMetadata, error) {
	if bytes.HasPrefix(raw, elfMagic) {
		return loader.FromELF(raw)
	}
	return loader.ProgramMetadata{
		Entry: entryOverride,
		Actions: []loader.LoadingAction{
			{Addr: 0, Size: pageRoundUp(uint64(len(raw))), Flags: memory.FlagExecutable, SourceRange: raw},
		},
	}, nil
}

func pageRoundUp(n uint64) uint64 {
	return (n + memory.PageSize - 1) &^ (memory.PageSize - 1)
}

// runImage dispatches to the width-specific runWidth instantiation, since
// Machine is generic over reg.Word and the width is only known at
// runtime from cfg.
func runImage(cfg config.MachineConfig, raw []byte, entryOverride uint64, argv, envp []string, host machine.Host, snapOutPath string, logger *slog.Logger) (int32, error) {
	switch cfg.Width {
	case 32:
		return runWidth[uint32](cfg, raw, entryOverride, argv, envp, host, snapOutPath, logger)
	case 64:
		return runWidth[uint64](cfg, raw, entryOverride, argv, envp, host, snapOutPath, logger)
	default:
		return 0, fmt.Errorf("%w: unsupported width %d", rverr.ErrParse, cfg.Width)
	}
}

func newBackend(cfg config.MachineConfig) memory.Memory {
	switch cfg.Backend {
	case "flat":
		return memory.NewFlat(cfg.MemorySize)
	default:
		return memory.NewSparse(cfg.MemorySize)
	}
}

func newCostModel(cfg config.MachineConfig) machine.CostModel {
	switch cfg.CostSchedule {
	case "estimate":
		return machine.EstimateCost{}
	default:
		return machine.ConstantCost{}
	}
}

func runWidth[T reg.Word](cfg config.MachineConfig, raw []byte, entryOverride uint64, argv, envp []string, host machine.Host, snapOutPath string, logger *slog.Logger) (int32, error) {
	meta, err := loadMetadata(raw, entryOverride)
	if err != nil {
		return 0, err
	}

	mem := newBackend(cfg)
	if err := loader.Load(mem, meta); err != nil {
		return 0, err
	}

	m := machine.New[T](mem, newCostModel(cfg), cfg.MaxCycles, host)
	m.Regs.PC = reg.FromUint64[T](meta.Entry)

	sp, err := loader.SetupStack(mem, cfg.MemorySize, argv, envp)
	if err != nil {
		return 0, err
	}
	m.Regs.Set(2, reg.FromUint64[T](sp))

	runErr := m.Run()
	if runErr == nil {
		return int32(reg.ToUint64(m.Regs.Get(10))), nil
	}
	if !rverr.Resumable(runErr) {
		return 0, runErr
	}

	logger.Info("machine stopped resumably", slog.String("reason", runErr.Error()))
	if snapOutPath != "" {
		snap := snapshot.MakeSnapshot(m, snapshot.NewSourceMap())
		data, err := snap.Marshal()
		if err != nil {
			return 0, err
		}
		if err := os.WriteFile(snapOutPath, data, 0o644); err != nil {
			return 0, fmt.Errorf("%w: writing snapshot %s: %v", rverr.ErrIO, snapOutPath, err)
		}
		logger.Info("snapshot written", slog.String("path", snapOutPath))
	}
	return 0, nil
}
