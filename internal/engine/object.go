package engine

import (
	"fmt"
	"strings"
)

// Code is a CoAP-style result code: class in the top three bits, detail below.
type Code uint8

const (
	CodeNone             Code = 0x00
	CodeCreated          Code = 0x41
	CodeDeleted          Code = 0x42
	CodeChanged          Code = 0x44
	CodeContent          Code = 0x45
	CodeBadRequest       Code = 0x80
	CodeNotFound         Code = 0x84
	CodeMethodNotAllowed Code = 0x85
	CodeInternalError    Code = 0xA0
)

func (c Code) String() string {
	return fmt.Sprintf("%d.%02d", uint8(c)>>5, uint8(c)&0x1F)
}

// Object is one resource object exposed to servers.
type Object interface {
	ID() uint16
	Instances() []uint16
	Read(uri URI) ([]byte, Code)
}

// Writer is the optional write capability of an Object.
type Writer interface {
	Write(uri URI, value []byte) Code
}

// FindObject returns the first object with id.
func FindObject(objects []Object, id uint16) (Object, bool) {
	for _, obj := range objects {
		if obj.ID() == id {
			return obj, true
		}
	}
	return nil, false
}

// registrationLinks renders "</obj/inst>,..." for the registration payload.
func registrationLinks(objects []Object) string {
	links := make([]string, 0, len(objects))
	for _, obj := range objects {
		instances := obj.Instances()
		if len(instances) == 0 {
			links = append(links, fmt.Sprintf("</%d>", obj.ID()))
			continue
		}
		for _, inst := range instances {
			links = append(links, fmt.Sprintf("</%d/%d>", obj.ID(), inst))
		}
	}
	return strings.Join(links, ",")
}
