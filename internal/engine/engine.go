package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Options configures one Engine.
type Options struct {
	Endpoint string
	Lifetime time.Duration
	Objects  []Object
	Backoff  BackoffConfig
	Now      func() time.Time
	Rand     *rand.Rand
}

const DefaultLifetime = 300 * time.Second

// Engine tracks registration, retransmission and resource objects for a
// set of servers. It is not safe for concurrent use; the event loop owns it.
type Engine struct {
	endpoint string
	lifetime time.Duration
	backoff  BackoffConfig
	now      func() time.Time
	rng      *rand.Rand

	servers []*Server
	objects []Object
	pending *transactionQueue
	nextID  uint16
	closed  bool
}

func New(opts Options) (*Engine, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	seen := make(map[uint16]struct{}, len(opts.Objects))
	objects := make([]Object, 0, len(opts.Objects))
	for _, obj := range opts.Objects {
		if _, ok := seen[obj.ID()]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateObject, obj.ID())
		}
		seen[obj.ID()] = struct{}{}
		objects = append(objects, obj)
	}
	lifetime := opts.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		endpoint: endpoint,
		lifetime: lifetime,
		backoff:  opts.Backoff.WithDefaults(),
		now:      now,
		rng:      opts.Rand,
		objects:  objects,
		pending:  newTransactionQueue(),
		nextID:   uint16(now().UnixNano()),
	}, nil
}

func (e *Engine) AddServer(shortID uint16, sess Session) error {
	if sess == nil {
		return ErrNilSession
	}
	for _, s := range e.servers {
		if s.ShortID == shortID {
			return fmt.Errorf("%w: %d", ErrDuplicateServer, shortID)
		}
	}
	e.servers = append(e.servers, &Server{ShortID: shortID, Session: sess})
	return nil
}

// Register starts registration with every configured server.
func (e *Engine) Register() error {
	if e.closed {
		return ErrClosed
	}
	if len(e.servers) == 0 {
		return ErrNoServer
	}
	links := registrationLinks(e.objects)
	for _, s := range e.servers {
		msg := Message{
			Type:     MessageRegister,
			ID:       e.newID(),
			Endpoint: e.endpoint,
			Lifetime: uint32(e.lifetime / time.Second),
			Links:    links,
		}
		if err := e.sendConfirmable(s, msg); err != nil {
			return err
		}
		s.Status = StatusRegPending
	}
	return nil
}

// Step performs due work and lowers *timeout to the next engine deadline.
// It never raises *timeout.
func (e *Engine) Step(timeout *time.Duration) error {
	if e.closed {
		return ErrClosed
	}
	if len(e.servers) == 0 {
		return ErrNoServer
	}
	now := e.now()

	for _, s := range e.servers {
		if s.Status != StatusRegistered || s.updatePending || now.Before(s.updateAt) {
			continue
		}
		msg := Message{Type: MessageUpdate, ID: e.newID(), Location: s.Location}
		if err := e.sendConfirmable(s, msg); err != nil {
			return err
		}
		s.updatePending = true
	}

	e.pending.each(func(tx *transaction) {
		if now.Before(tx.deadline) {
			return
		}
		if tx.attempts >= e.backoff.MaxAttempts {
			tx.done = true
			e.expire(tx)
			return
		}
		tx.attempts++
		tx.deadline = now.Add(NextBackoffDelay(e.backoff, tx.attempts, e.rng))
		e.transmit(tx.server, tx.msg.Type, tx.packet)
	})
	e.pending.Compact()

	next, ok := e.pending.Earliest()
	for _, s := range e.servers {
		if s.Status == StatusRegistered && !s.updatePending && (!ok || s.updateAt.Before(next)) {
			next = s.updateAt
			ok = true
		}
	}
	if ok {
		wait := next.Sub(now)
		if wait < 0 {
			wait = 0
		}
		if wait < *timeout {
			*timeout = wait
		}
	}
	return nil
}

// HandlePacket processes one datagram received from sess.
func (e *Engine) HandlePacket(packet []byte, sess Session) {
	if e.closed {
		return
	}
	server := e.serverFor(sess)
	if server == nil {
		log.Debug().Msg("engine.Engine.HandlePacket unknown session dropped")
		return
	}
	msg, err := DecodeMessage(packet)
	if err != nil {
		log.Debug().Err(err).Uint16("server", server.ShortID).Msg("engine.Engine.HandlePacket undecodable packet dropped")
		return
	}

	switch msg.Type {
	case MessageAck:
		e.handleAck(server, msg)
	case MessageRead:
		value, code := e.read(msg.URI)
		e.reply(server, Message{Type: MessageAck, ID: msg.ID, Code: code, URI: msg.URI, Payload: value})
	case MessageWrite:
		code := e.write(msg.URI, msg.Payload)
		e.reply(server, Message{Type: MessageAck, ID: msg.ID, Code: code, URI: msg.URI})
	default:
		log.Debug().Str("type", msg.Type.String()).Msg("engine.Engine.HandlePacket unexpected message ignored")
	}
}

// Close deregisters from every registered server and stops the engine.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	for _, s := range e.servers {
		if s.Status == StatusRegistered {
			msg := Message{Type: MessageDeregister, ID: e.newID(), Location: s.Location}
			if packet, err := msg.Encode(); err == nil {
				e.transmit(s, msg.Type, packet)
			}
		}
		e.pending.Drop(s)
		s.Status = StatusUnknown
		s.updatePending = false
	}
	e.pending.Compact()
	e.closed = true
}

func (e *Engine) Servers() []ServerStatus {
	out := make([]ServerStatus, 0, len(e.servers))
	for _, s := range e.servers {
		out = append(out, ServerStatus{ShortID: s.ShortID, Status: s.Status, Location: s.Location})
	}
	return out
}

// Objects returns the registered objects in registration order.
func (e *Engine) Objects() []Object {
	out := make([]Object, len(e.objects))
	copy(out, e.objects)
	return out
}

// ResourceValueChanged notifies every registered server of the current value at uri.
func (e *Engine) ResourceValueChanged(uri URI) {
	if e.closed {
		return
	}
	value, code := e.read(uri.String())
	if code != CodeContent {
		log.Debug().Str("uri", uri.String()).Str("code", code.String()).Msg("engine.Engine.ResourceValueChanged unreadable resource")
		return
	}
	for _, s := range e.servers {
		if s.Status != StatusRegistered {
			continue
		}
		msg := Message{Type: MessageNotify, ID: e.newID(), URI: uri.String(), Payload: value, Code: CodeContent}
		if err := e.sendConfirmable(s, msg); err != nil {
			log.Warn().Err(err).Str("uri", uri.String()).Msg("engine.Engine.ResourceValueChanged notify failed")
		}
	}
}

func (e *Engine) handleAck(server *Server, msg Message) {
	tx := e.pending.Ack(server, msg.ID)
	if tx == nil {
		log.Debug().Uint16("id", msg.ID).Msg("engine.Engine.handleAck no matching transaction")
		return
	}
	e.pending.Compact()
	now := e.now()
	switch tx.msg.Type {
	case MessageRegister:
		if msg.Code != CodeCreated {
			server.Status = StatusUnknown
			log.Warn().Uint16("server", server.ShortID).Str("code", msg.Code.String()).Msg("engine.Engine.handleAck registration rejected")
			return
		}
		server.Status = StatusRegistered
		server.Location = msg.Location
		server.updateAt = now.Add(e.lifetime / 2)
		log.Info().Uint16("server", server.ShortID).Str("location", server.Location).Msg("engine.Engine.handleAck registered")
	case MessageUpdate:
		server.updatePending = false
		if msg.Code != CodeChanged {
			server.Status = StatusUnknown
			log.Warn().Uint16("server", server.ShortID).Str("code", msg.Code.String()).Msg("engine.Engine.handleAck update rejected")
			return
		}
		server.updateAt = now.Add(e.lifetime / 2)
	}
}

func (e *Engine) expire(tx *transaction) {
	server := tx.server
	switch tx.msg.Type {
	case MessageRegister, MessageUpdate:
		server.Status = StatusUnknown
		server.updatePending = false
	}
	log.Warn().
		Uint16("server", server.ShortID).
		Str("type", tx.msg.Type.String()).
		Int("attempts", tx.attempts).
		Msg("engine.Engine.Step transaction expired")
}

func (e *Engine) sendConfirmable(server *Server, msg Message) error {
	packet, err := msg.Encode()
	if err != nil {
		return err
	}
	tx := &transaction{
		msg:      msg,
		packet:   packet,
		server:   server,
		attempts: 1,
		deadline: e.now().Add(NextBackoffDelay(e.backoff, 1, e.rng)),
	}
	e.pending.Add(tx)
	e.transmit(server, msg.Type, packet)
	return nil
}

func (e *Engine) reply(server *Server, msg Message) {
	packet, err := msg.Encode()
	if err != nil {
		log.Warn().Err(err).Msg("engine.Engine.reply encode failed")
		return
	}
	e.transmit(server, msg.Type, packet)
}

// transmit hands packet to the server session. A failed send is left to
// retransmission; it never stops the engine.
func (e *Engine) transmit(server *Server, t MessageType, packet []byte) {
	if err := server.Session.Send(packet); err != nil {
		log.Warn().Err(err).Uint16("server", server.ShortID).Str("type", t.String()).Msg("engine.Engine.transmit send failed")
		return
	}
	log.Debug().Uint16("server", server.ShortID).Str("type", t.String()).Int("bytes", len(packet)).Msg("engine.Engine.transmit sent")
}

func (e *Engine) read(rawURI string) ([]byte, Code) {
	uri, err := StringToURI(rawURI)
	if err != nil {
		return nil, CodeBadRequest
	}
	obj, ok := FindObject(e.objects, uri.ObjectID)
	if !ok {
		return nil, CodeNotFound
	}
	return obj.Read(uri)
}

func (e *Engine) write(rawURI string, value []byte) Code {
	uri, err := StringToURI(rawURI)
	if err != nil {
		return CodeBadRequest
	}
	obj, ok := FindObject(e.objects, uri.ObjectID)
	if !ok {
		return CodeNotFound
	}
	w, ok := obj.(Writer)
	if !ok {
		return CodeMethodNotAllowed
	}
	return w.Write(uri, value)
}

func (e *Engine) serverFor(sess Session) *Server {
	for _, s := range e.servers {
		if s.Session == sess {
			return s
		}
	}
	return nil
}

func (e *Engine) newID() uint16 {
	e.nextID++
	return e.nextID
}
