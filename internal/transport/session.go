package transport

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotAttached = errors.New("transport: session has no socket")
	ErrSocketReassigned   = errors.New("transport: session socket already bound")
	ErrSendFailed         = errors.New("transport: send failed")
	ErrShortWrite         = errors.New("transport: transport accepted no bytes")
)

// Session is the client's single UDP peer association.
type Session struct {
	sock Socket
	addr Addr
}

func NewSession(addr Addr) *Session {
	return &Session{addr: addr}
}

// Attach binds the session to the shared listening socket. A session keeps
// its first socket for its whole lifetime.
func (s *Session) Attach(sock Socket) error {
	if sock == nil {
		return ErrSessionNotAttached
	}
	if s.sock != nil && s.sock != sock {
		return ErrSocketReassigned
	}
	s.sock = sock
	return nil
}

func (s *Session) Addr() Addr {
	return s.addr
}

func (s *Session) Socket() Socket {
	return s.sock
}

// Matches reports whether from is the session peer.
func (s *Session) Matches(from Addr) bool {
	return s.addr.Equal(from)
}

// Send offers every byte of buf to the local stack, looping over partial
// writes. Success means accepted locally, not delivered.
func (s *Session) Send(buf []byte) error {
	if s.sock == nil {
		return ErrSessionNotAttached
	}
	offset := 0
	for offset != len(buf) {
		n, err := s.sock.SendTo(buf[offset:], s.addr)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: to %s: %v", ErrSendFailed, s.addr, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: to %s at offset %d", ErrShortWrite, s.addr, offset)
		}
		offset += n
	}
	return nil
}

// Release drops the socket reference. The socket itself is closed by its owner.
func (s *Session) Release() {
	s.sock = nil
}

func (s *Session) String() string {
	return s.addr.String()
}
