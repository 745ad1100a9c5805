package objects

import (
	"net/url"
	"strconv"

	"github.com/danmuck/edgeclient/internal/engine"
)

const FirmwareObjectID uint16 = 5

// Firmware resource ids.
const (
	FirmwarePackageURI   uint16 = 1
	FirmwareState        uint16 = 3
	FirmwareUpdateResult uint16 = 5
)

// Firmware update states.
const (
	FirmwareStateIdle        = 0
	FirmwareStateDownloading = 1
)

type firmwareState struct {
	packageURI string
	state      int
	result     int
}

func NewFirmware() engine.Object {
	st := &firmwareState{}
	return writableTable{&table{
		id: FirmwareObjectID,
		instances: []*instance{{
			id: 0,
			resources: []resource{
				{id: FirmwarePackageURI, read: func() string { return st.packageURI }, write: st.writePackageURI},
				{id: FirmwareState, read: func() string { return strconv.Itoa(st.state) }},
				{id: FirmwareUpdateResult, read: func() string { return strconv.Itoa(st.result) }},
			},
		}},
	}}
}

// writePackageURI accepts an absolute URI (starting a download) or an empty
// value (cancelling it).
func (st *firmwareState) writePackageURI(value string) engine.Code {
	if value == "" {
		st.packageURI = ""
		st.state = FirmwareStateIdle
		return engine.CodeChanged
	}
	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() {
		return engine.CodeBadRequest
	}
	st.packageURI = value
	st.state = FirmwareStateDownloading
	st.result = 0
	return engine.CodeChanged
}
