package transport

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var ErrSocketClosed = errors.New("transport: socket closed")

// Socket is a connectionless datagram endpoint.
type Socket interface {
	Fd() int
	SendTo(p []byte, to Addr) (int, error)
	RecvFrom(p []byte) (int, Addr, error)
	Close() error
}

type udpSocket struct {
	fd     int
	family int
}

func newUDPSocket(family int) (*udpSocket, error) {
	fd, err := unix.Socket(family, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, unix.IPPROTO_UDP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	return &udpSocket{fd: fd, family: family}, nil
}

func (s *udpSocket) Fd() int {
	return s.fd
}

// SendTo reports the number of bytes the kernel accepted.
func (s *udpSocket) SendTo(p []byte, to Addr) (int, error) {
	if s.fd < 0 {
		return -1, ErrSocketClosed
	}
	sa, err := to.Sockaddr()
	if err != nil {
		return -1, err
	}
	sa = s.mapToFamily(sa)
	n, err := unix.SendmsgN(s.fd, p, nil, sa, 0)
	if err != nil {
		return -1, err
	}
	return n, nil
}

func (s *udpSocket) RecvFrom(p []byte) (int, Addr, error) {
	if s.fd < 0 {
		return -1, Addr{}, ErrSocketClosed
	}
	n, from, err := unix.Recvfrom(s.fd, p, 0)
	if err != nil {
		return -1, Addr{}, err
	}
	addr, err := AddrFromSockaddr(unmapSockaddr(from))
	if err != nil {
		return -1, Addr{}, err
	}
	return n, addr, nil
}

func (s *udpSocket) Close() error {
	if s.fd < 0 {
		return nil
	}
	err := unix.Close(s.fd)
	s.fd = -1
	return err
}

// mapToFamily rewrites IPv4 destinations as v4-mapped IPv6 when the socket
// is a dual-stack IPv6 socket.
func (s *udpSocket) mapToFamily(sa unix.Sockaddr) unix.Sockaddr {
	v4, ok := sa.(*unix.SockaddrInet4)
	if !ok || s.family != unix.AF_INET6 {
		return sa
	}
	mapped := &unix.SockaddrInet6{Port: v4.Port}
	mapped.Addr[10] = 0xff
	mapped.Addr[11] = 0xff
	copy(mapped.Addr[12:], v4.Addr[:])
	return mapped
}

// unmapSockaddr reports v4-mapped IPv6 sources in their IPv4 form so they
// compare equal to peers resolved as IPv4.
func unmapSockaddr(sa unix.Sockaddr) unix.Sockaddr {
	v6, ok := sa.(*unix.SockaddrInet6)
	if !ok {
		return sa
	}
	for _, b := range v6.Addr[:10] {
		if b != 0 {
			return sa
		}
	}
	if v6.Addr[10] != 0xff || v6.Addr[11] != 0xff {
		return sa
	}
	v4 := &unix.SockaddrInet4{Port: v6.Port}
	copy(v4.Addr[:], v6.Addr[12:])
	return v4
}
