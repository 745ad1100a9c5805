package client

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/edgeclient/internal/poll"
	"github.com/danmuck/edgeclient/internal/testutil/testlog"
	"github.com/danmuck/edgeclient/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopShrunkTimeoutBoundsWaitAndReticks(t *testing.T) {
	testlog.Start(t)

	eng := &stubEngine{shrinkTo: 5 * time.Second}
	h := newHarness(t, eng, waitResult{}, waitResult{})

	require.NoError(t, h.loop.Run())
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, h.waiter.timeouts)
	assert.Equal(t, 3, eng.steps)
	assert.Zero(t, h.socket.recvs)
	assert.Zero(t, h.input.reads)
}

func TestLoopTimeoutNeverExceedsMaxWait(t *testing.T) {
	testlog.Start(t)

	h := newHarness(t, &stubEngine{})
	require.NoError(t, h.loop.Run())
	require.NotEmpty(t, h.waiter.timeouts)
	assert.Equal(t, 60*time.Second, h.waiter.timeouts[0])
}

func TestLoopAbruptInterruptSkipsTeardown(t *testing.T) {
	testlog.Start(t)

	eng := &stubEngine{}
	var h *harness
	h = newHarness(t, eng, waitResult{
		err:    poll.ErrInterrupted,
		before: func() { h.loop.Interrupt() },
	})

	require.NoError(t, h.loop.Run())
	assert.Equal(t, StopAbrupt, h.loop.State().Reason())
	assert.Equal(t, 1, eng.steps)
	assert.Zero(t, eng.closeCalls)
	assert.Equal(t, 1, h.socket.closed)
	assert.Nil(t, h.sess.Socket())
	assert.GreaterOrEqual(t, h.waiter.wakes, 1)
}

func TestLoopGracefulQuitTearsDownEngine(t *testing.T) {
	testlog.Start(t)

	eng := &stubEngine{}
	h := newHarness(t, eng, inputReady())
	h.input.chunks = []string{"quit\n"}

	require.NoError(t, h.loop.Run())
	assert.Equal(t, StopGraceful, h.loop.State().Reason())
	assert.Equal(t, 1, eng.closeCalls)
	assert.Equal(t, 1, h.socket.closed)
	assert.Nil(t, h.sess.Socket())
	assert.Equal(t, "> \r\n", h.out.String())
}

func TestLoopStepFailureIsFatal(t *testing.T) {
	testlog.Start(t)

	eng := &stubEngine{stepErr: errors.New("transaction table corrupt")}
	h := newHarness(t, eng)

	err := h.loop.Run()
	require.ErrorIs(t, err, ErrStepFailed)
	assert.Empty(t, h.waiter.timeouts)
	assert.Zero(t, eng.closeCalls)
	assert.Equal(t, 1, h.socket.closed)
}

func TestLoopDropsForeignDatagrams(t *testing.T) {
	testlog.Start(t)

	eng := &stubEngine{}
	h := newHarness(t, eng, networkReady(), networkReady())
	h.socket.inbox = []datagram{
		{payload: []byte("spoofed"), from: peerAddr(t, 9999)},
		{payload: []byte("genuine"), from: peerAddr(t, 5684)},
	}

	require.NoError(t, h.loop.Run())
	require.Len(t, eng.inbound, 1)
	assert.Equal(t, "genuine", string(eng.inbound[0]))
	assert.Same(t, h.sess, eng.sessions[0])
	assert.Contains(t, h.out.String(), "7 bytes received from [::1]:9999\r\n")
	assert.Contains(t, h.out.String(), "7 bytes received from [::1]:5684\r\n")
	assert.Contains(t, h.trace.String(), "67 65 6E 75 69 6E 65")
}

func TestLoopNetworkTakesPriority(t *testing.T) {
	testlog.Start(t)

	eng := &stubEngine{}
	h := newHarness(t, eng, waitResult{ready: poll.Readiness{Network: true, Input: true}})
	h.socket.inbox = []datagram{{payload: []byte{0x01}, from: peerAddr(t, 5684)}}
	h.input.chunks = []string{"quit\n"}

	require.NoError(t, h.loop.Run())
	assert.Len(t, eng.inbound, 1)
	assert.Zero(t, h.input.reads)
	assert.Equal(t, StopAbrupt, h.loop.State().Reason())
}

func TestLoopTransientFailuresAreNotFatal(t *testing.T) {
	testlog.Start(t)

	eng := &stubEngine{}
	h := newHarness(t, eng,
		waitResult{err: errors.New("epoll wait: bad file descriptor")},
		networkReady(),
		inputReady(),
	)
	h.input.chunks = []string{"quit\n"}

	require.NoError(t, h.loop.Run())
	assert.Equal(t, 3, eng.steps)
	assert.Equal(t, 1, h.socket.recvs)
	assert.Empty(t, eng.inbound)
	assert.Equal(t, StopGraceful, h.loop.State().Reason())
}

func TestLoopRepromptsAfterEachLine(t *testing.T) {
	testlog.Start(t)

	eng := &stubEngine{}
	h := newHarness(t, eng, inputReady(), inputReady(), inputReady())
	h.input.chunks = []string{"\n", "bogus\n", "list\n"}

	require.NoError(t, h.loop.Run())
	out := h.out.String()
	assert.True(t, strings.HasPrefix(out, "> \r\n> "))
	assert.Contains(t, out, "Unknown command. Type 'help' for help.\r\n\r\n> ")
	assert.Contains(t, out, "No server.\r\n\r\n> ")
}

func TestLoopInputEOFStopsGracefully(t *testing.T) {
	testlog.Start(t)

	eng := &stubEngine{}
	h := newHarness(t, eng, inputReady())

	require.NoError(t, h.loop.Run())
	assert.Equal(t, StopGraceful, h.loop.State().Reason())
	assert.Equal(t, 1, eng.closeCalls)
}

func TestLoopRunsOnce(t *testing.T) {
	testlog.Start(t)

	h := newHarness(t, &stubEngine{})
	require.NoError(t, h.loop.Run())
	require.ErrorIs(t, h.loop.Run(), ErrLoopAlreadyRun)
	assert.Equal(t, 1, h.socket.closed)
}

func TestNewLoopRequiresBoundSession(t *testing.T) {
	testlog.Start(t)

	sess := transport.NewSession(peerAddr(t, 5684))
	_, err := NewLoop(LoopConfig{
		Engine:   &stubEngine{},
		Waiter:   &scriptedWaiter{},
		Listener: &fakeSocket{},
		Session:  sess,
		Input:    &lineInput{},
		Output:   &strings.Builder{},
	})
	require.ErrorIs(t, err, ErrSessionNotBound)

	_, err = NewLoop(LoopConfig{})
	require.ErrorIs(t, err, ErrInvalidLoop)

	sock := &fakeSocket{}
	unaddressed := transport.NewSession(transport.Addr{})
	require.NoError(t, unaddressed.Attach(sock))
	_, err = NewLoop(LoopConfig{
		Engine:   &stubEngine{},
		Waiter:   &scriptedWaiter{},
		Listener: sock,
		Session:  unaddressed,
		Input:    &lineInput{},
		Output:   &strings.Builder{},
	})
	require.ErrorIs(t, err, ErrInvalidLoop)
}

func TestLoopReusesBuffersAcrossReads(t *testing.T) {
	testlog.Start(t)

	eng := &stubEngine{}
	h := newHarness(t, eng, networkReady(), networkReady(), inputReady(), inputReady())
	h.socket.inbox = []datagram{
		{payload: []byte("a longer first datagram"), from: peerAddr(t, 5684)},
		{payload: []byte("ok"), from: peerAddr(t, 5684)},
	}
	h.input.chunks = []string{"change /3/0/13 2026-01-01\n", "list\n"}

	require.NoError(t, h.loop.Run())
	require.Len(t, eng.inbound, 2)
	assert.Equal(t, "ok", string(eng.inbound[1]))
	assert.Contains(t, h.out.String(), "No server.\r\n")
	assert.NotContains(t, h.out.String(), "Unknown command")
}
