package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rvsandbox/rvvm/pkg/hostlog"
	"github.com/rvsandbox/rvvm/pkg/machine"
	"github.com/rvsandbox/rvvm/pkg/memory"
	"github.com/rvsandbox/rvvm/pkg/reg"
	"github.com/rvsandbox/rvvm/pkg/rverr"
	"github.com/rvsandbox/rvvm/pkg/snapshot"
)

// fileDataSource serves a snapshot's source-backed ranges out of the
// original image file on disk, so a run that never mutated a page can
// resume without having stored that page's bytes twice.
type fileDataSource struct {
	raw map[string][]byte
}

func (d fileDataSource) LoadData(id string, offset, length uint64) ([]byte, uint64, error) {
	raw, ok := d.raw[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown snapshot source %q (pass --image)", rverr.ErrParse, id)
	}
	end := offset + length
	if end > uint64(len(raw)) {
		return nil, 0, fmt.Errorf("%w: source %q range exceeds image", rverr.ErrParse, id)
	}
	return raw[offset:end], uint64(len(raw)), nil
}

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect or resume a machine snapshot",
	}
	cmd.AddCommand(newSnapshotResumeCmd(), newSnapshotInspectCmd())
	return cmd
}

func newSnapshotInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <snapshot-file>",
		Short: "Print a snapshot's register state and memory range summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("%w: reading snapshot %s: %v", rverr.ErrIO, args[0], err)
			}
			s, err := snapshot.Unmarshal(data)
			if err != nil {
				return err
			}
			fmt.Printf("width: %d\n", s.Width)
			fmt.Printf("version: %d\n", s.Version)
			fmt.Printf("pc: 0x%x\n", s.PC)
			fmt.Printf("cycles: %d / %d\n", s.Cycles, s.MaxCycles)
			fmt.Printf("source ranges: %d\n", len(s.SourceRanges))
			fmt.Printf("dirty ranges: %d\n", len(s.DirtyRanges))
			return nil
		},
	}
}

func newSnapshotResumeCmd() *cobra.Command {
	var (
		imagePath string
		snapOut   string
		tty       string
		maxCycles uint64
		memSize   uint64
	)
	cmd := &cobra.Command{
		Use:   "resume <snapshot-file>",
		Short: "Resume a machine from a snapshot and run it to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("%w: reading snapshot %s: %v", rverr.ErrIO, args[0], err)
			}
			snap, err := snapshot.Unmarshal(data)
			if err != nil {
				return err
			}

			ds := fileDataSource{raw: map[string][]byte{}}
			if imagePath != "" {
				raw, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("%w: reading image %s: %v", rverr.ErrIO, imagePath, err)
				}
				ds.raw["program"] = raw
			}

			logger := hostlog.NewLogger(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
			host, closeHost, err := buildHost(tty, logger)
			if err != nil {
				return err
			}
			defer closeHost()

			if memSize == 0 {
				memSize = memory.DefaultSize
			}

			var exitCode int32
			switch snap.Width {
			case 32:
				exitCode, err = resumeWidth[uint32](snap, ds, memSize, maxCycles, host, snapOut, logger)
			case 64:
				exitCode, err = resumeWidth[uint64](snap, ds, memSize, maxCycles, host, snapOut, logger)
			default:
				err = fmt.Errorf("%w: unsupported snapshot width %d", rverr.ErrParse, snap.Width)
			}
			if err != nil {
				return err
			}
			if exitCode != 0 {
				os.Exit(int(exitCode))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&imagePath, "image", "", "original image file backing the snapshot's source-backed ranges, if any")
	cmd.Flags().StringVar(&snapOut, "snapshot-out", "", "write a new snapshot here if the resumed run pauses/suspends/exhausts its cycle budget again")
	cmd.Flags().StringVar(&tty, "tty", "none", "console device: none, local, or remote")
	cmd.Flags().Uint64Var(&maxCycles, "max-cycles", 0, "override the snapshot's cycle budget (0 keeps the snapshotted value)")
	cmd.Flags().Uint64Var(&memSize, "memory-size", 0, "guest address space size for the resumed machine (0 uses the engine default)")
	return cmd
}

func resumeWidth[T reg.Word](snap *snapshot.Snapshot, ds snapshot.DataSource, memSize, maxCycles uint64, host machine.Host, snapOutPath string, logger *slog.Logger) (int32, error) {
	mem := memory.NewSparse(memSize)
	m := machine.New[T](mem, machine.ConstantCost{}, snap.MaxCycles, host)
	sources := snapshot.NewSourceMap()
	if err := snapshot.Resume[T](m, snap, sources, ds); err != nil {
		return 0, err
	}
	if maxCycles != 0 {
		m.MaxCycles = maxCycles
	}

	runErr := m.Run()
	if runErr == nil {
		return int32(reg.ToUint64(m.Regs.Get(10))), nil
	}
	if !rverr.Resumable(runErr) {
		return 0, runErr
	}

	logger.Info("machine stopped resumably", slog.String("reason", runErr.Error()))
	if snapOutPath != "" {
		next := snapshot.MakeSnapshot(m, sources)
		out, err := next.Marshal()
		if err != nil {
			return 0, err
		}
		if err := os.WriteFile(snapOutPath, out, 0o644); err != nil {
			return 0, fmt.Errorf("%w: writing snapshot %s: %v", rverr.ErrIO, snapOutPath, err)
		}
		logger.Info("snapshot written", slog.String("path", snapOutPath))
	}
	return 0, nil
}
