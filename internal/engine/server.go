package engine

import "time"

// Status is a server's registration state.
type Status int

const (
	StatusUnknown Status = iota
	StatusRegPending
	StatusRegistered
)

func (s Status) String() string {
	switch s {
	case StatusRegPending:
		return "REGISTRATION PENDING"
	case StatusRegistered:
		return "REGISTERED"
	default:
		return "UNKNOWN"
	}
}

// Session is the transport context of one server. The engine hands every
// outbound packet to it and receives it back with inbound packets.
type Session interface {
	Send(packet []byte) error
}

// Server is one configured management server.
type Server struct {
	ShortID       uint16
	Session       Session
	Status        Status
	Location      string
	updateAt      time.Time
	updatePending bool
}

// ServerStatus is a read-only snapshot for interactive listing.
type ServerStatus struct {
	ShortID  uint16
	Status   Status
	Location string
}
