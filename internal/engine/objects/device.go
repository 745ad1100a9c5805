package objects

import (
	"strconv"
	"time"

	"github.com/danmuck/edgeclient/internal/engine"
)

const DeviceObjectID uint16 = 3

// Device resource ids.
const (
	DeviceManufacturer    uint16 = 0
	DeviceModelNumber     uint16 = 1
	DeviceSerialNumber    uint16 = 2
	DeviceFirmwareVersion uint16 = 3
	DeviceCurrentTime     uint16 = 13
	DeviceUTCOffset       uint16 = 14
	DeviceTimezone        uint16 = 15
)

type deviceState struct {
	now       func() time.Time
	timeDelta time.Duration
	utcOffset string
	timezone  string
}

// NewDevice returns the device object. now may be nil.
func NewDevice(now func() time.Time) engine.Object {
	if now == nil {
		now = time.Now
	}
	st := &deviceState{now: now, utcOffset: "+01:00", timezone: "Europe/Berlin"}
	return writableTable{&table{
		id: DeviceObjectID,
		instances: []*instance{{
			id: 0,
			resources: []resource{
				{id: DeviceManufacturer, read: constant("Open Mobile Alliance")},
				{id: DeviceModelNumber, read: constant("Lightweight M2M Client")},
				{id: DeviceSerialNumber, read: constant("345000123")},
				{id: DeviceFirmwareVersion, read: constant("1.0")},
				{id: DeviceCurrentTime, read: st.readTime, write: st.writeTime},
				{id: DeviceUTCOffset, read: func() string { return st.utcOffset }, write: st.writeUTCOffset},
				{id: DeviceTimezone, read: func() string { return st.timezone }, write: st.writeTimezone},
			},
		}},
	}}
}

func (st *deviceState) readTime() string {
	return strconv.FormatInt(st.now().Add(st.timeDelta).Unix(), 10)
}

func (st *deviceState) writeTime(value string) engine.Code {
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return engine.CodeBadRequest
	}
	st.timeDelta = time.Unix(secs, 0).Sub(st.now())
	return engine.CodeChanged
}

func (st *deviceState) writeUTCOffset(value string) engine.Code {
	if _, err := time.Parse("-07:00", value); err != nil {
		return engine.CodeBadRequest
	}
	st.utcOffset = value
	return engine.CodeChanged
}

func (st *deviceState) writeTimezone(value string) engine.Code {
	if value == "" {
		return engine.CodeBadRequest
	}
	st.timezone = value
	return engine.CodeChanged
}
