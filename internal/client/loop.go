package client

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/danmuck/edgeclient/internal/command"
	"github.com/danmuck/edgeclient/internal/engine"
	"github.com/danmuck/edgeclient/internal/poll"
	"github.com/danmuck/edgeclient/internal/transport"
	"github.com/rs/zerolog/log"
)

// DefaultMaxWait is the upper bound handed to every engine tick.
const DefaultMaxWait = 60 * time.Second

const prompt = "> "

var (
	ErrStepFailed      = errors.New("client: engine step failed")
	ErrInvalidLoop     = errors.New("client: invalid loop config")
	ErrSessionNotBound = errors.New("client: session not bound to listener")
	ErrLoopAlreadyRun  = errors.New("client: loop already ran")
)

// Engine is the protocol engine as seen by the loop and its verbs.
type Engine interface {
	PacketHandler
	Step(timeout *time.Duration) error
	Close()
	Servers() []engine.ServerStatus
	Objects() []engine.Object
	ResourceValueChanged(uri engine.URI)
}

// Waiter is the bounded readiness wait over the network and input descriptors.
type Waiter interface {
	Wait(timeout time.Duration) (poll.Readiness, error)
}

type waker interface {
	Wake() error
}

// LoopConfig wires one Loop. Trace receives packet dumps and may be nil.
type LoopConfig struct {
	Engine   Engine
	Waiter   Waiter
	Listener transport.Socket
	Session  *transport.Session
	Input    io.Reader
	Output   io.Writer
	Trace    io.Writer
	MaxWait  time.Duration
}

// Loop multiplexes datagrams, interactive input and engine ticks.
type Loop struct {
	engine     Engine
	waiter     Waiter
	listener   transport.Socket
	session    *transport.Session
	input      io.Reader
	out        io.Writer
	trace      io.Writer
	maxWait    time.Duration
	registry   *command.Registry
	dispatcher *PacketDispatcher
	rx         transport.Buffer
	line       transport.Buffer

	state       State
	interrupted atomic.Bool
	ran         bool
	released    bool
}

func NewLoop(cfg LoopConfig) (*Loop, error) {
	switch {
	case cfg.Engine == nil:
		return nil, fmt.Errorf("%w: missing engine", ErrInvalidLoop)
	case cfg.Waiter == nil:
		return nil, fmt.Errorf("%w: missing waiter", ErrInvalidLoop)
	case cfg.Listener == nil:
		return nil, fmt.Errorf("%w: missing listener", ErrInvalidLoop)
	case cfg.Session == nil:
		return nil, fmt.Errorf("%w: missing session", ErrInvalidLoop)
	case cfg.Input == nil || cfg.Output == nil:
		return nil, fmt.Errorf("%w: missing interactive streams", ErrInvalidLoop)
	}
	if cfg.Session.Addr().IsZero() {
		return nil, fmt.Errorf("%w: session has no peer address", ErrInvalidLoop)
	}
	if cfg.Session.Socket() != cfg.Listener {
		return nil, ErrSessionNotBound
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	l := &Loop{
		engine:     cfg.Engine,
		waiter:     cfg.Waiter,
		listener:   cfg.Listener,
		session:    cfg.Session,
		input:      cfg.Input,
		out:        cfg.Output,
		trace:      cfg.Trace,
		maxWait:    cfg.MaxWait,
		dispatcher: NewPacketDispatcher(cfg.Session, cfg.Engine),
	}
	reg, err := command.NewRegistry(cfg.Output, l.commands()...)
	if err != nil {
		return nil, err
	}
	l.registry = reg
	return l, nil
}

// Interrupt requests an abrupt stop. It is the only Loop method safe to
// call from another goroutine; the loop observes it on its next iteration.
func (l *Loop) Interrupt() {
	l.interrupted.Store(true)
	if w, ok := l.waiter.(waker); ok {
		if err := w.Wake(); err != nil {
			log.Debug().Err(err).Msg("client.Loop.Interrupt wake failed")
		}
	}
}

func (l *Loop) State() State {
	return l.state
}

// Run blocks until a stop trigger fires or the engine reports a step error.
// Sockets are released on every exit path.
func (l *Loop) Run() error {
	if l.ran {
		return ErrLoopAlreadyRun
	}
	l.ran = true

	io.WriteString(l.out, prompt)
	for {
		if l.interrupted.Load() {
			l.state.stop(StopAbrupt)
		}
		if !l.state.Running() {
			break
		}
		if err := l.iterate(); err != nil {
			log.Error().Err(err).Msg("client.Loop.Run stopping on engine failure")
			l.release()
			return err
		}
	}
	log.Info().Str("reason", l.state.Reason().String()).Msg("client.Loop.Run stopping")
	if l.state.Reason() == StopGraceful {
		l.engine.Close()
	}
	l.release()
	return nil
}

func (l *Loop) iterate() error {
	timeout := l.maxWait
	if err := l.engine.Step(&timeout); err != nil {
		return fmt.Errorf("%w: %w", ErrStepFailed, err)
	}
	if timeout > l.maxWait {
		timeout = l.maxWait
	}

	ready, err := l.waiter.Wait(timeout)
	switch {
	case errors.Is(err, poll.ErrInterrupted):
	case err != nil:
		log.Error().Err(err).Msg("client.Loop.iterate wait failed")
	case ready.Network:
		l.handleNetwork()
	case ready.Input:
		l.handleInput()
	}
	return nil
}

func (l *Loop) handleNetwork() {
	buf := &l.rx
	buf.Reset()
	n, from, err := l.listener.RecvFrom(buf.Space())
	if err != nil {
		log.Error().Err(err).Msg("client.Loop.handleNetwork receive failed")
		return
	}
	if err := buf.SetLen(n); err != nil {
		log.Error().Err(err).Msg("client.Loop.handleNetwork receive overflow")
		return
	}
	fmt.Fprintf(l.out, "%d bytes received from %s\r\n", buf.Len(), from)
	if l.trace != nil {
		transport.Dump(l.trace, buf.Bytes())
	}
	l.dispatcher.Dispatch(buf.Bytes(), from)
}

func (l *Loop) handleInput() {
	buf := &l.line
	buf.Reset()
	n, err := l.input.Read(buf.Space())
	if n > 0 {
		if serr := buf.SetLen(n); serr != nil {
			log.Error().Err(serr).Msg("client.Loop.handleInput read overflow")
			return
		}
	}
	if errors.Is(err, io.EOF) && n == 0 {
		log.Info().Msg("client.Loop.handleInput input closed")
		l.state.stop(StopGraceful)
	} else if err != nil {
		log.Error().Err(err).Msg("client.Loop.handleInput read failed")
		return
	}

	if buf.Len() > 1 {
		l.registry.Execute(buf.Line())
	}
	if l.state.Running() {
		io.WriteString(l.out, "\r\n"+prompt)
	} else {
		io.WriteString(l.out, "\r\n")
	}
}

func (l *Loop) release() {
	if l.released {
		return
	}
	l.released = true
	l.session.Release()
	if err := l.listener.Close(); err != nil {
		log.Warn().Err(err).Msg("client.Loop.release listener close failed")
	}
}
