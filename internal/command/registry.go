package command

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

const (
	HelpName           = "help"
	unknownCommandText = "Unknown command. Type 'help' for help.\r\n"
)

var (
	ErrInvalidCommandName = errors.New("command: invalid command name")
	ErrDuplicateCommand   = errors.New("command: duplicate command name")
)

// Handler executes one verb. args is the line remainder after the verb and
// its following whitespace; out is the interactive output.
type Handler func(out io.Writer, args string)

// Descriptor is one registered verb. A nil Handler documents a verb that is
// handled outside the dispatcher (for example an interrupt key).
type Descriptor struct {
	Name    string
	Short   string
	Long    string
	Handler Handler
}

// Registry maps verbs to handlers in table order.
type Registry struct {
	out      io.Writer
	commands []Descriptor
}

// NewRegistry validates the table and freezes it.
func NewRegistry(out io.Writer, commands ...Descriptor) (*Registry, error) {
	seen := make(map[string]struct{}, len(commands))
	table := make([]Descriptor, 0, len(commands))
	for i, cmd := range commands {
		if cmd.Name == "" || strings.IndexFunc(cmd.Name, unicode.IsSpace) >= 0 {
			return nil, fmt.Errorf("%w: entry %d %q", ErrInvalidCommandName, i, cmd.Name)
		}
		if _, ok := seen[cmd.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCommand, cmd.Name)
		}
		seen[cmd.Name] = struct{}{}
		table = append(table, cmd)
	}
	return &Registry{out: out, commands: table}, nil
}

// Lookup is a case-sensitive exact match; the first entry wins.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	for _, cmd := range r.commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return Descriptor{}, false
}

// Split separates line into its verb and the text after the first
// whitespace run following the verb.
func Split(line string) (verb, rest string) {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	end := strings.IndexFunc(line, unicode.IsSpace)
	if end < 0 {
		return line, ""
	}
	return line[:end], strings.TrimLeftFunc(line[end:], unicode.IsSpace)
}

// Execute dispatches one input line. It reports the matched descriptor, or
// false when nothing registered matched.
func (r *Registry) Execute(line string) (Descriptor, bool) {
	verb, rest := Split(line)
	if verb == "" {
		return Descriptor{}, false
	}
	cmd, ok := r.Lookup(verb)
	if ok {
		if cmd.Handler != nil {
			cmd.Handler(r.out, rest)
		}
		return cmd, true
	}
	if verb == HelpName {
		r.help(rest)
		return Descriptor{}, false
	}
	io.WriteString(r.out, unknownCommandText)
	return Descriptor{}, false
}

func (r *Registry) help(args string) {
	name, _ := Split(args)
	if name == "" {
		fmt.Fprintf(r.out, "%s\tType '%s [COMMAND]' for more details on a command.\r\n", HelpName, HelpName)
		for _, cmd := range r.commands {
			fmt.Fprintf(r.out, "%s\t%s\r\n", cmd.Name, cmd.Short)
		}
		return
	}
	cmd, ok := r.Lookup(name)
	if !ok {
		fmt.Fprintf(r.out, "Unknown command %q.\r\n", name)
		return
	}
	if cmd.Long != "" {
		io.WriteString(r.out, cmd.Long)
		return
	}
	fmt.Fprintf(r.out, "%s\r\n", cmd.Short)
}
