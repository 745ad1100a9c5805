package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/danmuck/edgeclient/internal/engine"
	"github.com/danmuck/edgeclient/internal/engine/objects"
	"github.com/danmuck/edgeclient/internal/poll"
	"github.com/danmuck/edgeclient/internal/transport"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidPort     = errors.New("client: invalid port")
	ErrInvalidHost     = errors.New("client: invalid server host")
	ErrInvalidEndpoint = errors.New("client: invalid endpoint name")
	ErrInvalidDuration = errors.New("client: invalid duration")
)

// ServiceConfig configures one client process.
type ServiceConfig struct {
	ListenPort     uint16
	ServerHost     string
	ServerPort     uint16
	ServerShortID  uint16
	Endpoint       string
	Lifetime       time.Duration
	MaxWait        time.Duration
	ResolveTimeout time.Duration
	DumpPackets    bool
	TestInstances  []uint16
	Latitude       float64
	Longitude      float64
	Retransmission engine.BackoffConfig
}

// DefaultServiceConfig is a client on the protocol default port talking to
// a local server.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ListenPort:     5683,
		ServerHost:     "::1",
		ServerPort:     5684,
		ServerShortID:  123,
		Endpoint:       "testlwm2mclient",
		Lifetime:       engine.DefaultLifetime,
		MaxWait:        DefaultMaxWait,
		ResolveTimeout: 5 * time.Second,
		DumpPackets:    true,
		TestInstances:  []uint16{0},
		Latitude:       27.986065,
		Longitude:      86.922623,
		Retransmission: engine.DefaultBackoffConfig(),
	}
}

func (c ServiceConfig) Validate() error {
	if c.ListenPort == 0 {
		return fmt.Errorf("%w: listen port 0", ErrInvalidPort)
	}
	if c.ServerPort == 0 {
		return fmt.Errorf("%w: server port 0", ErrInvalidPort)
	}
	if strings.TrimSpace(c.ServerHost) == "" {
		return ErrInvalidHost
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return ErrInvalidEndpoint
	}
	if c.Lifetime <= 0 {
		return fmt.Errorf("%w: lifetime %v", ErrInvalidDuration, c.Lifetime)
	}
	if c.MaxWait <= 0 {
		return fmt.Errorf("%w: max wait %v", ErrInvalidDuration, c.MaxWait)
	}
	if c.ResolveTimeout <= 0 {
		return fmt.Errorf("%w: resolve timeout %v", ErrInvalidDuration, c.ResolveTimeout)
	}
	return nil
}

// Service runs the client lifecycle as a standalone process.
type Service struct {
	cfg    ServiceConfig
	stdin  *os.File
	stdout io.Writer
	stderr io.Writer
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{cfg: cfg, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

// Run bootstraps sockets and the engine, then blocks in the event loop.
// Every error before the loop starts is fatal to the process.
func (s *Service) Run() error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	listener, err := transport.BindAny(s.cfg.ListenPort)
	if err != nil {
		return fmt.Errorf("open socket: %w", err)
	}
	closeListener := true
	defer func() {
		if closeListener {
			_ = listener.Close()
		}
	}()

	eng, err := engine.New(engine.Options{
		Endpoint: s.cfg.Endpoint,
		Lifetime: s.cfg.Lifetime,
		Objects:  s.objects(),
		Backoff:  s.cfg.Retransmission,
	})
	if err != nil {
		return fmt.Errorf("engine init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ResolveTimeout)
	sess, err := transport.ConnectSession(ctx, s.cfg.ServerHost, s.cfg.ServerPort)
	cancel()
	if err != nil {
		return fmt.Errorf("connection creation: %w", err)
	}
	if err := sess.Attach(listener); err != nil {
		return err
	}
	if err := eng.AddServer(s.cfg.ServerShortID, sess); err != nil {
		return fmt.Errorf("add server: %w", err)
	}
	if err := eng.Register(); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	poller, err := poll.New(listener.Fd(), int(s.stdin.Fd()))
	if err != nil {
		return fmt.Errorf("poller: %w", err)
	}
	defer poller.Close()

	var trace io.Writer
	if s.cfg.DumpPackets {
		trace = s.stderr
	}
	loop, err := NewLoop(LoopConfig{
		Engine:   eng,
		Waiter:   poller,
		Listener: listener,
		Session:  sess,
		Input:    s.stdin,
		Output:   s.stdout,
		Trace:    trace,
		MaxWait:  s.cfg.MaxWait,
	})
	if err != nil {
		return err
	}
	closeListener = false

	// Runs before the deferred poller.Close; the relay must be gone before the wake fd closes.
	stopInterrupts := notifyInterrupts(loop)
	defer stopInterrupts()

	log.Info().
		Str("endpoint", s.cfg.Endpoint).
		Uint16("listen_port", s.cfg.ListenPort).
		Str("peer", sess.String()).
		Uint16("server_id", s.cfg.ServerShortID).
		Msg("client.Service.Run ready")
	return loop.Run()
}

func (s *Service) objects() []engine.Object {
	return []engine.Object{
		objects.NewDevice(nil),
		objects.NewFirmware(),
		objects.NewLocation(s.cfg.Latitude, s.cfg.Longitude, nil),
		objects.NewTestObject(s.cfg.TestInstances...),
	}
}
