//go:build linux

package poll

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// Poller is an epoll(7) readiness wait over two descriptors plus a wake eventfd.
type Poller struct {
	epfd    int
	wakefd  int
	netfd   int
	inputfd int
	events  [3]unix.EpollEvent
	closed  atomic.Bool
}

// New registers netFd and inputFd for level-triggered read readiness.
func New(netFd, inputFd int) (*Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	p := &Poller{epfd: epfd, wakefd: wakefd, netfd: netFd, inputfd: inputFd}
	for _, fd := range []int{netFd, inputFd, wakefd} {
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("epoll ctl add fd=%d: %w", fd, err)
		}
	}
	return p, nil
}

// Wait blocks until a descriptor is readable or timeout elapses. A zero
// Readiness with a nil error means the timeout elapsed.
func (p *Poller) Wait(timeout time.Duration) (Readiness, error) {
	if p.closed.Load() {
		return Readiness{}, ErrClosed
	}
	n, err := unix.EpollWait(p.epfd, p.events[:], timeoutMillis(timeout))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return Readiness{}, ErrInterrupted
		}
		return Readiness{}, fmt.Errorf("epoll wait: %w", err)
	}

	var ready Readiness
	woken := false
	for i := 0; i < n; i++ {
		ev := p.events[i]
		if ev.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) == 0 {
			continue
		}
		switch int(ev.Fd) {
		case p.netfd:
			ready.Network = true
		case p.inputfd:
			ready.Input = true
		case p.wakefd:
			woken = true
		}
	}
	if woken {
		p.drainWake()
		if !ready.Any() {
			return Readiness{}, ErrInterrupted
		}
	}
	return ready, nil
}

// Wake ends the current or next Wait early. Safe to call from any goroutine.
func (p *Poller) Wake() error {
	if p.closed.Load() {
		return ErrClosed
	}
	var one [8]byte
	binary.NativeEndian.PutUint64(one[:], 1)
	_, err := unix.Write(p.wakefd, one[:])
	if errors.Is(err, unix.EAGAIN) {
		return nil
	}
	return err
}

func (p *Poller) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(p.wakefd, buf[:])
}

// Close releases the epoll and wake descriptors. The watched descriptors are
// owned by the caller and stay open.
func (p *Poller) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return errors.Join(unix.Close(p.epfd), unix.Close(p.wakefd))
}
