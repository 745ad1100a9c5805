package client

import (
	"github.com/danmuck/edgeclient/internal/engine"
	"github.com/danmuck/edgeclient/internal/transport"
	"github.com/rs/zerolog/log"
)

// PacketHandler is the engine's inbound side.
type PacketHandler interface {
	HandlePacket(packet []byte, sess engine.Session)
}

// PacketDispatcher forwards datagrams from the session peer to the engine.
type PacketDispatcher struct {
	session *transport.Session
	handler PacketHandler
}

func NewPacketDispatcher(sess *transport.Session, handler PacketHandler) *PacketDispatcher {
	return &PacketDispatcher{session: sess, handler: handler}
}

// Dispatch reports whether the packet reached the engine. Datagrams from any
// other sender are dropped silently.
func (d *PacketDispatcher) Dispatch(packet []byte, from transport.Addr) bool {
	if !d.session.Matches(from) {
		log.Debug().
			Str("from", from.String()).
			Str("peer", d.session.String()).
			Msg("client.PacketDispatcher.Dispatch foreign sender dropped")
		return false
	}
	d.handler.HandlePacket(packet, d.session)
	return true
}
