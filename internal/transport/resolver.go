package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

var (
	ErrBindFailed    = errors.New("transport: no candidate address could be bound")
	ErrConnectFailed = errors.New("transport: no candidate address could be connected")
	ErrInvalidHost   = errors.New("transport: invalid host")
)

// LookupFunc resolves a host into candidate addresses in preference order.
type LookupFunc func(ctx context.Context, host string) ([]net.IPAddr, error)

// Resolver turns bind and connect requests into sockets and sessions.
type Resolver struct {
	Lookup LookupFunc
}

// DefaultResolver uses the system resolver.
func DefaultResolver() *Resolver {
	return &Resolver{Lookup: net.DefaultResolver.LookupIPAddr}
}

// BindAny opens a datagram socket bound to port on every local interface,
// preferring a dual-stack IPv6 socket and falling back to IPv4.
func BindAny(port uint16) (Socket, error) {
	return DefaultResolver().BindAny(port)
}

// ConnectSession resolves host:port into a Session using the system resolver.
func ConnectSession(ctx context.Context, host string, port uint16) (*Session, error) {
	return DefaultResolver().ConnectSession(ctx, host, port)
}

func (r *Resolver) BindAny(port uint16) (Socket, error) {
	candidates := []unix.Sockaddr{
		&unix.SockaddrInet6{Port: int(port)},
		&unix.SockaddrInet4{Port: int(port)},
	}
	var errs []error
	for _, sa := range candidates {
		sock, err := bindCandidate(sa)
		if err != nil {
			errs = append(errs, err)
			log.Debug().Err(err).Uint16("port", port).Msg("transport.Resolver.BindAny candidate rejected")
			continue
		}
		return sock, nil
	}
	return nil, fmt.Errorf("%w: port %d: %w", ErrBindFailed, port, errors.Join(errs...))
}

// ConnectSession tries each resolved candidate in order and keeps the first
// address a datagram socket can connect to. The probing socket is closed.
func (r *Resolver) ConnectSession(ctx context.Context, host string, port uint16) (*Session, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, ErrInvalidHost
	}
	lookup := r.Lookup
	if lookup == nil {
		lookup = net.DefaultResolver.LookupIPAddr
	}
	ips, err := lookup(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", ErrConnectFailed, host, err)
	}

	var errs []error
	for _, ip := range ips {
		sa, err := sockaddrFromIP(ip.IP, ip.Zone, port)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := probeConnect(sa); err != nil {
			errs = append(errs, err)
			log.Debug().Err(err).Str("candidate", ip.String()).Msg("transport.Resolver.ConnectSession candidate rejected")
			continue
		}
		addr, err := AddrFromSockaddr(sa)
		if err != nil {
			return nil, err
		}
		return NewSession(addr), nil
	}
	return nil, fmt.Errorf("%w: %s:%d: %w", ErrConnectFailed, host, port, errors.Join(errs...))
}

func bindCandidate(sa unix.Sockaddr) (Socket, error) {
	family := unix.AF_INET
	if _, ok := sa.(*unix.SockaddrInet6); ok {
		family = unix.AF_INET6
	}
	sock, err := newUDPSocket(family)
	if err != nil {
		return nil, err
	}
	if family == unix.AF_INET6 {
		_ = unix.SetsockoptInt(sock.fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0)
	}
	if err := unix.Bind(sock.fd, sa); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("bind: %w", err)
	}
	return sock, nil
}

func probeConnect(sa unix.Sockaddr) error {
	family := unix.AF_INET
	if _, ok := sa.(*unix.SockaddrInet6); ok {
		family = unix.AF_INET6
	}
	sock, err := newUDPSocket(family)
	if err != nil {
		return err
	}
	defer sock.Close()
	if err := unix.Connect(sock.fd, sa); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}
