// Package cmdline tokenizes one received command line into a verb, its
// key=value parameters, and (for the quoted args="k1=v1,k2=v2" form) up to
// four decimal integer call arguments.
//
// Parameter lookup is an unanchored substring scan over the line's tail,
// mirroring the original agent's find_param: a key matches wherever it is
// immediately followed by '=', even inside a longer token (so "size" matches
// the "size" in "modsize=7"). This is deliberate fidelity to the protocol,
// not an oversight — see spec.md §4.3.
package cmdline

import (
	"strings"

	"wasmnode-go/x/strconvx"
)

// MaxArgs is the most call arguments a single args="..." clause may carry.
const MaxArgs = 4

// Command is one parsed line: a verb plus whatever the raw tail turns up
// when scanned for a given key.
type Command struct {
	Verb string
	tail string // the line's content after the verb, scanned on demand

	// Args holds up to MaxArgs decimal integers parsed from args="...",
	// in textual order. Extra entries beyond MaxArgs are silently dropped,
	// per spec.
	Args []int32
}

// Param scans the line's tail for key immediately followed by '=' and
// returns the value run up to (not including) the first space, CR, LF, or
// end of string. Per spec.md §4.3 this is a substring scan, not a per-token
// lookup: key may appear as a suffix of an unrelated token and still match,
// as long as the byte right after it is '='.
func (c Command) Param(key string) (string, bool) {
	return findParam(c.tail, key)
}

// Parse tokenizes a single command line (without its trailing terminator).
func Parse(line string) Command {
	line = strings.TrimRight(line, "\r\n")
	verb, tail := splitVerb(line)

	cmd := Command{Verb: verb, tail: tail}
	if body, ok := findArgsClause(tail); ok {
		cmd.Args = parseArgsBody(body)
	}
	return cmd
}

// splitVerb splits line at its first run of whitespace: everything before
// is the verb, everything after is the tail Param scans.
func splitVerb(line string) (verb, tail string) {
	line = strings.TrimLeft(line, " \t")
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimLeft(line[i+1:], " \t")
}

// findParam scans s for the first occurrence of key followed immediately by
// '=', matching find_param's strstr-based suffix-tolerant behavior, and
// returns the value up to the first space, CR, LF, or end of s.
func findParam(s, key string) (string, bool) {
	for p := s; ; {
		i := strings.Index(p, key)
		if i < 0 {
			return "", false
		}
		after := i + len(key)
		if after < len(p) && p[after] == '=' {
			return valueAt(p[after+1:]), true
		}
		p = p[i+1:]
	}
}

// valueAt returns s truncated at the first space, CR, or LF.
func valueAt(s string) string {
	i := strings.IndexAny(s, " \r\n")
	if i < 0 {
		return s
	}
	return s[:i]
}

// findArgsClause locates args="..." in s (key match is suffix-tolerant like
// findParam) and returns the content between the quotes.
func findArgsClause(s string) (string, bool) {
	const key = "args"
	for p := s; ; {
		i := strings.Index(p, key)
		if i < 0 {
			return "", false
		}
		after := i + len(key)
		if after < len(p) && p[after] == '=' {
			rest := p[after+1:]
			if rest == "" || rest[0] != '"' {
				p = p[i+1:]
				continue
			}
			rest = rest[1:]
			end := strings.IndexByte(rest, '"')
			if end < 0 {
				return "", false
			}
			return rest[:end], true
		}
		p = p[i+1:]
	}
}

// parseArgsBody splits "k1=v1,k2=v2,..." on commas, parses the right side
// of each comma-separated entry's first '=' as a signed decimal integer,
// and keeps at most MaxArgs of them in textual order.
func parseArgsBody(body string) []int32 {
	var out []int32
	for _, tok := range strings.Split(body, ",") {
		if len(out) >= MaxArgs {
			break
		}
		i := strings.IndexByte(tok, '=')
		if i < 0 {
			continue
		}
		n, err := strconvx.Atoi(strings.TrimSpace(tok[i+1:]))
		if err != nil {
			continue
		}
		out = append(out, int32(n))
	}
	return out
}
