package client

import (
	"bytes"
	"testing"
	"time"

	"github.com/danmuck/edgeclient/internal/engine"
	"github.com/danmuck/edgeclient/internal/engine/objects"
	"github.com/danmuck/edgeclient/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
)

func fixedNow() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestChangeResource(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name    string
		args    string
		out     string
		changed []engine.URI
	}{
		{name: "missing uri", args: "", out: "Syntax error !"},
		{name: "malformed uri", args: "not-a-uri 7", out: "Syntax error !"},
		{name: "notify only", args: "/3/0/13", changed: []engine.URI{engine.ResourceURI(3, 0, 13)}},
		{name: "unknown object", args: "/42/0/1 7", out: "Object not found !"},
		{name: "read only resource", args: "/3/0/2 hello", out: "Failed to change value !"},
		{name: "object without writer", args: "/6/0/0 1.0", out: "Failed to change value !"},
		{name: "rejected value", args: "/1024/0/1 300", out: "Failed to change value !"},
		{
			name:    "accepted value",
			args:    "/1024/0/1 42",
			changed: []engine.URI{engine.ResourceURI(objects.TestObjectID, 0, objects.TestValueResource)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng := &stubEngine{objects: []engine.Object{
				objects.NewDevice(fixedNow),
				objects.NewLocation(1.5, 2.5, fixedNow),
				objects.NewTestObject(0),
			}}
			var out bytes.Buffer
			changeResource(eng)(&out, tc.args)

			assert.Equal(t, tc.out, out.String())
			assert.Equal(t, tc.changed, eng.changed)
		})
	}
}

func TestChangeResourceStoresAcceptedValue(t *testing.T) {
	testlog.Start(t)

	obj := objects.NewTestObject(0)
	eng := &stubEngine{objects: []engine.Object{obj}}
	changeResource(eng)(&bytes.Buffer{}, "/1024/0/1   99")

	value, code := obj.Read(engine.ResourceURI(objects.TestObjectID, 0, objects.TestValueResource))
	assert.Equal(t, engine.CodeContent, code)
	assert.Equal(t, "99", string(value))
}

func TestListServers(t *testing.T) {
	testlog.Start(t)

	var out bytes.Buffer
	listServers(&stubEngine{})(&out, "")
	assert.Equal(t, "No server.\r\n", out.String())

	out.Reset()
	listServers(&stubEngine{servers: []engine.ServerStatus{
		{ShortID: 123, Status: engine.StatusRegistered, Location: "/rd/5a3f"},
		{ShortID: 7, Status: engine.StatusRegPending},
	}})(&out, "")
	assert.Equal(t,
		"Server ID 123:\r\n\tstatus: REGISTERED location: \"/rd/5a3f\"\r\n\r\n"+
			"Server ID 7:\r\n\tstatus: REGISTRATION PENDING\r\n\r\n",
		out.String())
}

func TestHelpListsClientVerbs(t *testing.T) {
	testlog.Start(t)

	h := newHarness(t, &stubEngine{})
	h.loop.registry.Execute("help")

	out := h.out.String()
	for _, verb := range []string{"help", "list", "change", "quit", "^C"} {
		assert.Contains(t, out, verb)
	}

	h.out.Reset()
	h.loop.registry.Execute("help change")
	assert.Equal(t, changeLongHelp, h.out.String())
}

func TestInterruptVerbIsDocumentationOnly(t *testing.T) {
	testlog.Start(t)

	h := newHarness(t, &stubEngine{})
	cmd, ok := h.loop.registry.Execute("^C")
	assert.True(t, ok)
	assert.Nil(t, cmd.Handler)
	assert.True(t, h.loop.State().Running())
	assert.Empty(t, h.out.String())
}
