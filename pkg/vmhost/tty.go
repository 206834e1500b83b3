// Package vmhost provides an example machine.Host device: a console
// backed either by the process's own controlling terminal (put into raw
// mode) or by a TCP connection accepted from a separate controlling
// process, generalising the teacher's pkg/vm/tty.go SerialTTY from its
// own polled-interrupt VM into the synchronous ECALL-upcall model of
// pkg/machine.
package vmhost

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/rvsandbox/rvvm/pkg/machine"
	"github.com/rvsandbox/rvvm/pkg/rverr"
)

// Syscall numbers this console recognizes on ECALL (a7). The guest ABI
// leaves syscall numbering host-defined beyond a7/a0-a6/a0 (spec's
// guest ABI note); these are this host's own convention.
const (
	SysConsoleWriteByte = 0x100
	SysConsoleReadByte  = 0x101
)

// consoleEOF is returned in a0 by SysConsoleReadByte once the
// underlying stream is exhausted, so the guest can distinguish
// end-of-input from a real byte without a second register.
const consoleEOF = ^uint64(0)

// Console is a machine.Host that backs console ECALLs with either the
// local terminal or a remote control connection.
type Console struct {
	rw      io.ReadWriter
	restore func() error
}

// NewLocalConsole puts the process's controlling terminal into raw mode
// (no echo, no line buffering, no signal generation from INTR/QUIT) so
// guest reads observe every keystroke exactly as typed, then returns a
// Console reading and writing that terminal directly. Callers must
// defer Close to restore the terminal's prior mode.
func NewLocalConsole() (*Console, error) {
	fd := int(os.Stdin.Fd())
	saved, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("%w: reading terminal attributes: %v", rverr.ErrIO, err)
	}
	raw := *saved
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG
	raw.Iflag &^= unix.IXON
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, fmt.Errorf("%w: setting raw mode: %v", rverr.ErrIO, err)
	}
	return &Console{
		rw:      stdioReadWriter{},
		restore: func() error { return unix.IoctlSetTermios(fd, unix.TCSETS, saved) },
	}, nil
}

// stdioReadWriter adapts the two independent os.Stdin/os.Stdout streams
// to the single io.ReadWriter Console expects.
type stdioReadWriter struct{}

func (stdioReadWriter) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriter) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// NewRemoteConsole waits for a single controlling TCP connection on an
// ephemeral loopback port, then backs console ECALLs with that
// connection — the same handshake as the teacher's TTYAcceptConn, kept
// for a detached controlling process instead of an inline terminal.
func NewRemoteConsole() (*Console, net.Addr, error) {
	nl, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: listening for console: %v", rverr.ErrIO, err)
	}
	addr := nl.Addr()
	conn, err := nl.Accept()
	nl.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: accepting console connection: %v", rverr.ErrIO, err)
	}
	return &Console{rw: conn}, addr, nil
}

// Close restores the local terminal's mode, if this Console owns one,
// and closes the underlying connection, if it has one.
func (c *Console) Close() error {
	var err error
	if c.restore != nil {
		err = c.restore()
	}
	if closer, ok := c.rw.(io.Closer); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Ecall implements machine.Host. It services SysConsoleWriteByte (a0
// holds the byte to write) and SysConsoleReadByte (a0 receives the byte
// read, or consoleEOF at end of stream); any other syscall number is
// left unhandled, matching spec's "first to return Handled wins"
// framing collapsed to a single device here.
func (c *Console) Ecall(ctx machine.SyscallContext) error {
	switch ctx.GetReg(17) {
	case SysConsoleWriteByte:
		b := byte(ctx.GetReg(10))
		if _, err := c.rw.Write([]byte{b}); err != nil {
			return fmt.Errorf("%w: console write: %v", rverr.ErrIO, err)
		}
		ctx.SetReg(10, 0)
		return nil
	case SysConsoleReadByte:
		var buf [1]byte
		if _, err := c.rw.Read(buf[:]); err != nil {
			if errors.Is(err, io.EOF) {
				ctx.SetReg(10, consoleEOF)
				return nil
			}
			return fmt.Errorf("%w: console read: %v", rverr.ErrIO, err)
		}
		ctx.SetReg(10, uint64(buf[0]))
		return nil
	default:
		return rverr.ErrInvalidEcall
	}
}

// Debug implements machine.Host by treating EBREAK as a pause request,
// matching machine.NopHost's default.
func (c *Console) Debug(machine.SyscallContext) error {
	return rverr.ErrPause
}

var _ machine.Host = &Console{}
