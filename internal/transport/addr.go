package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/sys/unix"
)

// AddrStorageLen fits the largest supported family (IPv6: family, port,
// flowinfo, address, scope id).
const AddrStorageLen = 28

var (
	ErrAddrTooLong       = errors.New("transport: address exceeds storage")
	ErrUnsupportedFamily = errors.New("transport: unsupported address family")
)

// Addr is an opaque peer address compared byte for byte.
type Addr struct {
	storage [AddrStorageLen]byte
	n       int
}

// NewAddr copies raw into address storage.
func NewAddr(raw []byte) (Addr, error) {
	var a Addr
	if len(raw) > AddrStorageLen {
		return Addr{}, fmt.Errorf("%w: %d > %d", ErrAddrTooLong, len(raw), AddrStorageLen)
	}
	a.n = copy(a.storage[:], raw)
	return a, nil
}

// AddrFromSockaddr encodes an AF_INET or AF_INET6 socket address.
func AddrFromSockaddr(sa unix.Sockaddr) (Addr, error) {
	var a Addr
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		binary.BigEndian.PutUint16(a.storage[0:2], unix.AF_INET)
		binary.BigEndian.PutUint16(a.storage[2:4], uint16(v.Port))
		copy(a.storage[4:8], v.Addr[:])
		a.n = 16
	case *unix.SockaddrInet6:
		binary.BigEndian.PutUint16(a.storage[0:2], unix.AF_INET6)
		binary.BigEndian.PutUint16(a.storage[2:4], uint16(v.Port))
		copy(a.storage[8:24], v.Addr[:])
		binary.BigEndian.PutUint32(a.storage[24:28], v.ZoneId)
		a.n = 28
	default:
		return Addr{}, fmt.Errorf("%w: %T", ErrUnsupportedFamily, sa)
	}
	return a, nil
}

// AddrFromIP builds the address of ip:port in the family ip naturally belongs to.
func AddrFromIP(ip net.IP, zone string, port uint16) (Addr, error) {
	sa, err := sockaddrFromIP(ip, zone, port)
	if err != nil {
		return Addr{}, err
	}
	return AddrFromSockaddr(sa)
}

func (a Addr) Len() int {
	return a.n
}

func (a Addr) Bytes() []byte {
	return a.storage[:a.n]
}

func (a Addr) IsZero() bool {
	return a.n == 0
}

// Equal requires identical length and identical raw bytes.
func (a Addr) Equal(b Addr) bool {
	return a.n == b.n && bytes.Equal(a.Bytes(), b.Bytes())
}

func (a Addr) Family() int {
	if a.n < 2 {
		return unix.AF_UNSPEC
	}
	return int(binary.BigEndian.Uint16(a.storage[0:2]))
}

func (a Addr) Port() uint16 {
	if a.n < 4 {
		return 0
	}
	return binary.BigEndian.Uint16(a.storage[2:4])
}

// Sockaddr decodes the storage back into a unix socket address.
func (a Addr) Sockaddr() (unix.Sockaddr, error) {
	switch a.Family() {
	case unix.AF_INET:
		sa := &unix.SockaddrInet4{Port: int(a.Port())}
		copy(sa.Addr[:], a.storage[4:8])
		return sa, nil
	case unix.AF_INET6:
		sa := &unix.SockaddrInet6{Port: int(a.Port()), ZoneId: binary.BigEndian.Uint32(a.storage[24:28])}
		copy(sa.Addr[:], a.storage[8:24])
		return sa, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFamily, a.Family())
	}
}

func (a Addr) String() string {
	switch a.Family() {
	case unix.AF_INET:
		var ip [4]byte
		copy(ip[:], a.storage[4:8])
		return netip.AddrPortFrom(netip.AddrFrom4(ip), a.Port()).String()
	case unix.AF_INET6:
		var ip [16]byte
		copy(ip[:], a.storage[8:24])
		return netip.AddrPortFrom(netip.AddrFrom16(ip), a.Port()).String()
	default:
		return "<unknown>"
	}
}

func sockaddrFromIP(ip net.IP, zone string, port uint16) (unix.Sockaddr, error) {
	if ip4 := ip.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: int(port)}
		copy(sa.Addr[:], ip4)
		return sa, nil
	}
	if ip16 := ip.To16(); ip16 != nil {
		sa := &unix.SockaddrInet6{Port: int(port)}
		copy(sa.Addr[:], ip16)
		if zone != "" {
			if ifi, err := net.InterfaceByName(zone); err == nil {
				sa.ZoneId = uint32(ifi.Index)
			}
		}
		return sa, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedFamily, ip)
}
