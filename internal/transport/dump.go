package transport

import (
	"fmt"
	"io"
	"strings"
)

const dumpRowLen = 16

// Dump writes buf as rows of hex bytes followed by their printable ASCII form.
func Dump(w io.Writer, buf []byte) {
	for i := 0; i < len(buf); i += dumpRowLen {
		end := i + dumpRowLen
		if end > len(buf) {
			end = len(buf)
		}
		row := buf[i:end]

		var b strings.Builder
		b.WriteString("  ")
		for _, c := range row {
			fmt.Fprintf(&b, "%02X ", c)
		}
		b.WriteString(strings.Repeat("   ", dumpRowLen-len(row)))
		b.WriteString("  ")
		for _, c := range row {
			if c >= 0x20 && c < 0x7f {
				fmt.Fprintf(&b, "%c ", c)
			} else {
				b.WriteString(". ")
			}
		}
		b.WriteString("\n")
		io.WriteString(w, b.String())
	}
}
