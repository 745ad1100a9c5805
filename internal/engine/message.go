package engine

import (
	"fmt"

	"github.com/danmuck/edgeclient/internal/engine/tlv"
)

// MessageType identifies one engine wire message.
type MessageType uint8

const (
	MessageRegister   MessageType = 1
	MessageUpdate     MessageType = 2
	MessageDeregister MessageType = 3
	MessageNotify     MessageType = 4
	MessageAck        MessageType = 5
	MessageRead       MessageType = 6
	MessageWrite      MessageType = 7
)

func (t MessageType) String() string {
	switch t {
	case MessageRegister:
		return "register"
	case MessageUpdate:
		return "update"
	case MessageDeregister:
		return "deregister"
	case MessageNotify:
		return "notify"
	case MessageAck:
		return "ack"
	case MessageRead:
		return "read"
	case MessageWrite:
		return "write"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Field ids.
const (
	fieldType     uint8 = 1
	fieldID       uint8 = 2
	fieldCode     uint8 = 3
	fieldURI      uint8 = 4
	fieldPayload  uint8 = 5
	fieldEndpoint uint8 = 6
	fieldLifetime uint8 = 7
	fieldLocation uint8 = 8
	fieldLinks    uint8 = 9
)

// Message is one datagram exchanged with a server.
type Message struct {
	Type     MessageType
	ID       uint16
	Code     Code
	URI      string
	Payload  []byte
	Endpoint string
	Lifetime uint32
	Location string
	Links    string
}

func (m Message) Encode() ([]byte, error) {
	fields := []tlv.Field{
		tlv.U8(fieldType, uint8(m.Type)),
		tlv.U16(fieldID, m.ID),
	}
	if m.Code != CodeNone {
		fields = append(fields, tlv.U8(fieldCode, uint8(m.Code)))
	}
	if m.URI != "" {
		fields = append(fields, tlv.String(fieldURI, m.URI))
	}
	if len(m.Payload) > 0 {
		fields = append(fields, tlv.Bytes(fieldPayload, m.Payload))
	}
	if m.Endpoint != "" {
		fields = append(fields, tlv.String(fieldEndpoint, m.Endpoint))
	}
	if m.Lifetime != 0 {
		fields = append(fields, tlv.U32(fieldLifetime, m.Lifetime))
	}
	if m.Location != "" {
		fields = append(fields, tlv.String(fieldLocation, m.Location))
	}
	if m.Links != "" {
		fields = append(fields, tlv.String(fieldLinks, m.Links))
	}
	return tlv.EncodeFields(fields)
}

// DecodeMessage requires the type and id fields; unknown fields are ignored.
func DecodeMessage(b []byte) (Message, error) {
	fields, err := tlv.DecodeFields(b)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	var m Message
	if _, ok := tlv.GetField(fields, fieldType); !ok {
		return Message{}, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	if _, ok := tlv.GetField(fields, fieldID); !ok {
		return Message{}, fmt.Errorf("%w: missing id", ErrInvalidMessage)
	}
	for _, f := range fields {
		switch f.ID {
		case fieldType:
			v, err := decodeU8(f)
			if err != nil {
				return Message{}, err
			}
			m.Type = MessageType(v)
		case fieldID:
			if err := tlv.MustType(f, tlv.TypeU16); err != nil {
				return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
			}
			v, err := tlv.U16FromBytes(f.Value)
			if err != nil {
				return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
			}
			m.ID = v
		case fieldCode:
			v, err := decodeU8(f)
			if err != nil {
				return Message{}, err
			}
			m.Code = Code(v)
		case fieldURI:
			m.URI = string(f.Value)
		case fieldPayload:
			m.Payload = f.Value
		case fieldEndpoint:
			m.Endpoint = string(f.Value)
		case fieldLifetime:
			if err := tlv.MustType(f, tlv.TypeU32); err != nil {
				return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
			}
			v, err := tlv.U32FromBytes(f.Value)
			if err != nil {
				return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
			}
			m.Lifetime = v
		case fieldLocation:
			m.Location = string(f.Value)
		case fieldLinks:
			m.Links = string(f.Value)
		}
	}
	return m, nil
}

func decodeU8(f tlv.Field) (uint8, error) {
	if err := tlv.MustType(f, tlv.TypeU8); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	v, err := tlv.U8FromBytes(f.Value)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return v, nil
}
