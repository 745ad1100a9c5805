package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxID is reserved and never a valid object, instance or resource id.
const MaxID = 0xFFFF

// URI addresses an object, an object instance, or a single resource.
type URI struct {
	ObjectID    uint16
	InstanceID  uint16
	ResourceID  uint16
	HasInstance bool
	HasResource bool
}

func ObjectURI(obj uint16) URI {
	return URI{ObjectID: obj}
}

func InstanceURI(obj, inst uint16) URI {
	return URI{ObjectID: obj, InstanceID: inst, HasInstance: true}
}

func ResourceURI(obj, inst, res uint16) URI {
	return URI{ObjectID: obj, InstanceID: inst, ResourceID: res, HasInstance: true, HasResource: true}
}

// StringToURI parses "/obj", "/obj/inst" or "/obj/inst/res".
func StringToURI(s string) (URI, error) {
	if !strings.HasPrefix(s, "/") {
		return URI{}, fmt.Errorf("%w: %q missing leading slash", ErrInvalidURI, s)
	}
	parts := strings.Split(s[1:], "/")
	if len(parts) > 3 {
		return URI{}, fmt.Errorf("%w: %q too many segments", ErrInvalidURI, s)
	}
	ids := make([]uint16, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 16)
		if err != nil || v >= MaxID {
			return URI{}, fmt.Errorf("%w: %q segment %d", ErrInvalidURI, s, i)
		}
		ids[i] = uint16(v)
	}
	switch len(ids) {
	case 1:
		return ObjectURI(ids[0]), nil
	case 2:
		return InstanceURI(ids[0], ids[1]), nil
	default:
		return ResourceURI(ids[0], ids[1], ids[2]), nil
	}
}

func (u URI) String() string {
	switch {
	case u.HasResource:
		return fmt.Sprintf("/%d/%d/%d", u.ObjectID, u.InstanceID, u.ResourceID)
	case u.HasInstance:
		return fmt.Sprintf("/%d/%d", u.ObjectID, u.InstanceID)
	default:
		return fmt.Sprintf("/%d", u.ObjectID)
	}
}
