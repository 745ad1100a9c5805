package objects

import (
	"strconv"

	"github.com/danmuck/edgeclient/internal/engine"
)

const TestObjectID uint16 = 1024

// TestValueResource holds each instance's integer value.
const TestValueResource uint16 = 1

// NewTestObject returns an object with one writable 0-255 integer per instance.
func NewTestObject(instanceIDs ...uint16) engine.Object {
	if len(instanceIDs) == 0 {
		instanceIDs = []uint16{0}
	}
	t := &table{id: TestObjectID}
	for _, id := range instanceIDs {
		value := int(id) + 1
		t.instances = append(t.instances, &instance{
			id: id,
			resources: []resource{{
				id:   TestValueResource,
				read: func() string { return strconv.Itoa(value) },
				write: func(raw string) engine.Code {
					v, err := strconv.Atoi(raw)
					if err != nil || v < 0 || v > 255 {
						return engine.CodeBadRequest
					}
					value = v
					return engine.CodeChanged
				},
			}},
		})
	}
	return writableTable{t}
}
