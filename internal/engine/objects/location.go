package objects

import (
	"strconv"
	"time"

	"github.com/danmuck/edgeclient/internal/engine"
)

const LocationObjectID uint16 = 6

// NewLocation returns a fixed-position, read-only location object.
func NewLocation(latitude, longitude float64, now func() time.Time) engine.Object {
	if now == nil {
		now = time.Now
	}
	return &table{
		id: LocationObjectID,
		instances: []*instance{{
			id: 0,
			resources: []resource{
				{id: 0, read: constant(strconv.FormatFloat(latitude, 'f', 6, 64))},
				{id: 1, read: constant(strconv.FormatFloat(longitude, 'f', 6, 64))},
				{id: 5, read: func() string { return strconv.FormatInt(now().Unix(), 10) }},
			},
		}},
	}
}
