package client

import (
	"fmt"
	"io"

	"github.com/danmuck/edgeclient/internal/command"
	"github.com/danmuck/edgeclient/internal/engine"
)

const changeLongHelp = " change URI [DATA]\r\n" +
	"   URI: uri of the resource such as /3/0, /3/0/2\r\n" +
	"   DATA: (optional) new value\r\n"

// ServerLister is what the list verb reads.
type ServerLister interface {
	Servers() []engine.ServerStatus
}

// ResourceController is what the change verb drives.
type ResourceController interface {
	Objects() []engine.Object
	ResourceValueChanged(uri engine.URI)
}

func (l *Loop) commands() []command.Descriptor {
	return []command.Descriptor{
		{Name: "list", Short: "List known servers.", Handler: listServers(l.engine)},
		{Name: "change", Short: "Change the value of resource.", Long: changeLongHelp, Handler: changeResource(l.engine)},
		{Name: "quit", Short: "Quit the client gracefully.", Handler: func(io.Writer, string) {
			l.state.stop(StopGraceful)
		}},
		{Name: "^C", Short: "Quit the client abruptly (without sending a de-register message)."},
	}
}

func listServers(lister ServerLister) command.Handler {
	return func(out io.Writer, _ string) {
		servers := lister.Servers()
		if len(servers) == 0 {
			io.WriteString(out, "No server.\r\n")
			return
		}
		for _, s := range servers {
			fmt.Fprintf(out, "Server ID %d:\r\n", s.ShortID)
			io.WriteString(out, "\tstatus: ")
			if s.Status == engine.StatusRegistered {
				fmt.Fprintf(out, "%s location: %q\r\n", s.Status, s.Location)
			} else {
				fmt.Fprintf(out, "%s\r\n", s.Status)
			}
			io.WriteString(out, "\r\n")
		}
	}
}

// changeResource handles "URI [DATA]". Without DATA the engine is told the
// value changed elsewhere; with DATA the owning object's write capability
// must report the value changed before the engine is notified.
func changeResource(ctl ResourceController) command.Handler {
	return func(out io.Writer, args string) {
		path, value := command.Split(args)
		if path == "" {
			io.WriteString(out, "Syntax error !")
			return
		}
		uri, err := engine.StringToURI(path)
		if err != nil {
			io.WriteString(out, "Syntax error !")
			return
		}
		if value == "" {
			ctl.ResourceValueChanged(uri)
			return
		}

		obj, ok := engine.FindObject(ctl.Objects(), uri.ObjectID)
		if !ok {
			io.WriteString(out, "Object not found !")
			return
		}
		if w, ok := obj.(engine.Writer); ok && w.Write(uri, []byte(value)) == engine.CodeChanged {
			ctl.ResourceValueChanged(uri)
			return
		}
		io.WriteString(out, "Failed to change value !")
	}
}
