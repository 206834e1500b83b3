package vmhost_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvsandbox/rvvm/pkg/machine"
	"github.com/rvsandbox/rvvm/pkg/rverr"
	"github.com/rvsandbox/rvvm/pkg/vmhost"
)

type regsContext struct {
	regs [32]uint64
}

func (r *regsContext) ctx() machine.SyscallContext {
	return machine.SyscallContext{
		GetReg: func(i uint) uint64 { return r.regs[i] },
		SetReg: func(i uint, v uint64) { r.regs[i] = v },
	}
}

func TestConsoleWriteByteWritesToConnection(t *testing.T) {
	server, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	var clientConn net.Conn
	accepted := make(chan struct{})
	go func() {
		c, _ := server.Accept()
		clientConn = c
		close(accepted)
	}()

	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	<-accepted
	require.NotNil(t, clientConn)

	console := vmhost.NewConsoleForTesting(clientConn)
	defer console.Close()

	r := &regsContext{}
	r.regs[17] = vmhost.SysConsoleWriteByte
	r.regs[10] = 'A'
	require.NoError(t, console.Ecall(r.ctx()))
	assert.EqualValues(t, 0, r.regs[10])

	buf := make([]byte, 1)
	_, err = conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, byte('A'), buf[0])
}

func TestConsoleReadByteReadsFromConnection(t *testing.T) {
	server, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	var clientConn net.Conn
	accepted := make(chan struct{})
	go func() {
		c, _ := server.Accept()
		clientConn = c
		close(accepted)
	}()

	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	<-accepted
	require.NotNil(t, clientConn)

	console := vmhost.NewConsoleForTesting(clientConn)
	defer console.Close()

	_, err = conn.Write([]byte{'z'})
	require.NoError(t, err)

	r := &regsContext{}
	r.regs[17] = vmhost.SysConsoleReadByte
	require.NoError(t, console.Ecall(r.ctx()))
	assert.EqualValues(t, 'z', r.regs[10])
}

func TestConsoleEcallRejectsUnknownSyscall(t *testing.T) {
	server, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()
	go func() { server.Accept() }()
	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	console := vmhost.NewConsoleForTesting(conn)
	defer console.Close()

	r := &regsContext{}
	r.regs[17] = 0xdead
	assert.ErrorIs(t, console.Ecall(r.ctx()), rverr.ErrInvalidEcall)
}

func TestConsoleDebugRequestsPause(t *testing.T) {
	server, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()
	go func() { server.Accept() }()
	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	console := vmhost.NewConsoleForTesting(conn)
	defer console.Close()

	assert.ErrorIs(t, console.Debug(machine.SyscallContext{}), rverr.ErrPause)
}
