package objects

import (
	"strconv"
	"strings"

	"github.com/danmuck/edgeclient/internal/engine"
)

// resource is one readable value; write is nil for read-only resources.
type resource struct {
	id    uint16
	read  func() string
	write func(value string) engine.Code
}

type instance struct {
	id        uint16
	resources []resource
}

func (in *instance) find(id uint16) (resource, bool) {
	for _, r := range in.resources {
		if r.id == id {
			return r, true
		}
	}
	return resource{}, false
}

// table is the shared read/write plumbing of every object here.
type table struct {
	id        uint16
	instances []*instance
}

func (t *table) ID() uint16 {
	return t.id
}

func (t *table) Instances() []uint16 {
	out := make([]uint16, 0, len(t.instances))
	for _, in := range t.instances {
		out = append(out, in.id)
	}
	return out
}

func (t *table) instance(id uint16) (*instance, bool) {
	for _, in := range t.instances {
		if in.id == id {
			return in, true
		}
	}
	return nil, false
}

// Read renders one resource, or "id=value" pairs for a whole instance.
func (t *table) Read(uri engine.URI) ([]byte, engine.Code) {
	if uri.ObjectID != t.id || !uri.HasInstance {
		return nil, engine.CodeBadRequest
	}
	in, ok := t.instance(uri.InstanceID)
	if !ok {
		return nil, engine.CodeNotFound
	}
	if !uri.HasResource {
		pairs := make([]string, 0, len(in.resources))
		for _, r := range in.resources {
			pairs = append(pairs, strconv.Itoa(int(r.id))+"="+r.read())
		}
		return []byte(strings.Join(pairs, ",")), engine.CodeContent
	}
	r, ok := in.find(uri.ResourceID)
	if !ok {
		return nil, engine.CodeNotFound
	}
	return []byte(r.read()), engine.CodeContent
}

func (t *table) write(uri engine.URI, value []byte) engine.Code {
	if uri.ObjectID != t.id || !uri.HasResource {
		return engine.CodeBadRequest
	}
	in, ok := t.instance(uri.InstanceID)
	if !ok {
		return engine.CodeNotFound
	}
	r, ok := in.find(uri.ResourceID)
	if !ok {
		return engine.CodeNotFound
	}
	if r.write == nil {
		return engine.CodeMethodNotAllowed
	}
	return r.write(strings.TrimSpace(string(value)))
}

// writableTable adds the write capability.
type writableTable struct {
	*table
}

func (w writableTable) Write(uri engine.URI, value []byte) engine.Code {
	return w.write(uri, value)
}

func constant(v string) func() string {
	return func() string { return v }
}
