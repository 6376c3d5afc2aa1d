// Package agentlog is a tiny, allocation-lean logger in the same shape as
// the teacher's root Logger in main.go: a Print/Println pair that formats a
// handful of known value kinds directly, no fmt.Sprintf, no third-party
// logging framework (the teacher's own stack has none).
//
// Unlike the teacher's Logger, this one never mirrors onto a UART — the
// protocol UART carries only framed replies (spec.md §6); mixing log text
// into it would corrupt the wire protocol. The platform constructors pass no
// mirror, so log text goes only to the console via the builtin print.
package agentlog

import "wasmnode-go/x/strconvx"

// Sink receives raw log bytes, for example a second UART. A nil Sink means
// console output only.
type Sink interface {
	Write(p []byte) (int, error)
}

type Logger struct {
	mirror Sink
}

// New returns a Logger that writes to the console and, if mirror is
// non-nil, also to mirror.
func New(mirror Sink) *Logger { return &Logger{mirror: mirror} }

func (l *Logger) writeString(s string) {
	if s == "" {
		return
	}
	print(s)
	if l.mirror != nil {
		_, _ = l.mirror.Write([]byte(s))
	}
}

func (l *Logger) writePart(v any) {
	switch x := v.(type) {
	case string:
		l.writeString(x)
	case []byte:
		if len(x) == 0 {
			return
		}
		print(string(x))
		if l.mirror != nil {
			_, _ = l.mirror.Write(x)
		}
	case int:
		l.writeString(strconvx.Itoa(x))
	case int32:
		l.writeString(strconvx.Itoa(int(x)))
	case uint32:
		l.writeString(strconvx.FormatUint(uint64(x), 10))
	case bool:
		if x {
			l.writeString("true")
		} else {
			l.writeString("false")
		}
	case error:
		l.writeString(x.Error())
	default:
		l.writeString("?")
	}
}

// Print writes parts with no separators and no trailing newline.
func (l *Logger) Print(parts ...any) {
	for _, p := range parts {
		l.writePart(p)
	}
}

// Println writes parts followed by a newline.
func (l *Logger) Println(parts ...any) {
	l.Print(parts...)
	l.writeString("\n")
}
