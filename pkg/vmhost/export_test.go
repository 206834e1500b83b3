package vmhost

import "io"

// NewConsoleForTesting builds a Console around an arbitrary
// io.ReadWriter, bypassing NewLocalConsole's terminal requirement and
// NewRemoteConsole's listen/accept handshake so tests can drive Ecall
// against a plain net.Conn pair.
func NewConsoleForTesting(rw io.ReadWriter) *Console {
	return &Console{rw: rw}
}
