package client

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/danmuck/edgeclient/internal/engine"
	"github.com/danmuck/edgeclient/internal/poll"
	"github.com/danmuck/edgeclient/internal/transport"
	"github.com/stretchr/testify/require"
)

// stubEngine counts calls and optionally lowers the tick timeout.
type stubEngine struct {
	shrinkTo   time.Duration
	stepErr    error
	steps      int
	inbound    [][]byte
	sessions   []engine.Session
	closeCalls int
	servers    []engine.ServerStatus
	objects    []engine.Object
	changed    []engine.URI
}

func (e *stubEngine) Step(timeout *time.Duration) error {
	e.steps++
	if e.stepErr != nil {
		return e.stepErr
	}
	if e.shrinkTo > 0 && e.shrinkTo < *timeout {
		*timeout = e.shrinkTo
	}
	return nil
}

func (e *stubEngine) HandlePacket(packet []byte, sess engine.Session) {
	e.inbound = append(e.inbound, append([]byte(nil), packet...))
	e.sessions = append(e.sessions, sess)
}

func (e *stubEngine) Close()                              { e.closeCalls++ }
func (e *stubEngine) Servers() []engine.ServerStatus      { return e.servers }
func (e *stubEngine) Objects() []engine.Object            { return e.objects }
func (e *stubEngine) ResourceValueChanged(uri engine.URI) { e.changed = append(e.changed, uri) }

type waitResult struct {
	ready poll.Readiness
	err   error
	// before runs inside Wait, as an asynchronous event would.
	before func()
}

// scriptedWaiter replays results and records every timeout it was given.
// Once the script runs out it interrupts the loop.
type scriptedWaiter struct {
	script   []waitResult
	timeouts []time.Duration
	loop     *Loop
	wakes    int
}

func (w *scriptedWaiter) Wait(timeout time.Duration) (poll.Readiness, error) {
	w.timeouts = append(w.timeouts, timeout)
	if len(w.script) == 0 {
		w.loop.Interrupt()
		return poll.Readiness{}, poll.ErrInterrupted
	}
	next := w.script[0]
	w.script = w.script[1:]
	if next.before != nil {
		next.before()
	}
	return next.ready, next.err
}

func (w *scriptedWaiter) Wake() error {
	w.wakes++
	return nil
}

type datagram struct {
	payload []byte
	from    transport.Addr
}

type fakeSocket struct {
	inbox  []datagram
	sent   bytes.Buffer
	closed int
	recvs  int
}

func (s *fakeSocket) Fd() int { return 3 }

func (s *fakeSocket) SendTo(p []byte, _ transport.Addr) (int, error) {
	s.sent.Write(p)
	return len(p), nil
}

func (s *fakeSocket) RecvFrom(p []byte) (int, transport.Addr, error) {
	s.recvs++
	if len(s.inbox) == 0 {
		return -1, transport.Addr{}, errors.New("would block")
	}
	d := s.inbox[0]
	s.inbox = s.inbox[1:]
	return copy(p, d.payload), d.from, nil
}

func (s *fakeSocket) Close() error {
	s.closed++
	return nil
}

// lineInput returns one queued chunk per Read, then io.EOF.
type lineInput struct {
	chunks []string
	reads  int
}

func (in *lineInput) Read(p []byte) (int, error) {
	in.reads++
	if len(in.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, in.chunks[0])
	in.chunks = in.chunks[1:]
	return n, nil
}

type harness struct {
	engine *stubEngine
	waiter *scriptedWaiter
	socket *fakeSocket
	sess   *transport.Session
	input  *lineInput
	out    *bytes.Buffer
	trace  *bytes.Buffer
	loop   *Loop
}

func peerAddr(t *testing.T, port uint16) transport.Addr {
	t.Helper()
	addr, err := transport.AddrFromIP(net.IPv6loopback, "", port)
	require.NoError(t, err)
	return addr
}

func newHarness(t *testing.T, eng *stubEngine, script ...waitResult) *harness {
	t.Helper()
	h := &harness{
		engine: eng,
		waiter: &scriptedWaiter{script: script},
		socket: &fakeSocket{},
		input:  &lineInput{},
		out:    &bytes.Buffer{},
		trace:  &bytes.Buffer{},
	}
	h.sess = transport.NewSession(peerAddr(t, 5684))
	require.NoError(t, h.sess.Attach(h.socket))

	loop, err := NewLoop(LoopConfig{
		Engine:   eng,
		Waiter:   h.waiter,
		Listener: h.socket,
		Session:  h.sess,
		Input:    h.input,
		Output:   h.out,
		Trace:    h.trace,
		MaxWait:  60 * time.Second,
	})
	require.NoError(t, err)
	h.waiter.loop = loop
	h.loop = loop
	return h
}

func inputReady() waitResult {
	return waitResult{ready: poll.Readiness{Input: true}}
}

func networkReady() waitResult {
	return waitResult{ready: poll.Readiness{Network: true}}
}
