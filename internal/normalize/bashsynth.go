package normalize

import (
	"strings"
	"time"

	"github.com/kdlbs/agentsup/internal/canonical"
)

// synthesizeFileEvents implements the "Synthesis from bash" requirement of
// §4.2: for any bash event, also emit file_read/file_write/file_delete
// events for paths inferred from common shell patterns (cat, >/>>, rm, mv,
// cp, heredocs). It is intentionally heuristic — a best-effort projection,
// not a shell parser — and never errors; a command it cannot make sense of
// simply yields no synthesized events beyond the bash event itself.
func synthesizeFileEvents(agent, command string, ts time.Time) []canonical.Event {
	var events []canonical.Event

	fields := tokenize(command)
	if len(fields) == 0 {
		return events
	}

	if path, ok := redirectTarget(fields); ok {
		events = append(events, fileEvent(agent, canonical.TypeFileWrite, path, command, ts))
	}

	switch baseCommand(fields[0]) {
	case "cat":
		for _, f := range fields[1:] {
			if isFlag(f) || isRedirectToken(f) || strings.HasPrefix(f, "<<") {
				break
			}
			events = append(events, fileEvent(agent, canonical.TypeFileRead, f, command, ts))
		}
	case "rm":
		for _, f := range fields[1:] {
			if isFlag(f) {
				continue
			}
			events = append(events, fileEvent(agent, canonical.TypeFileDelete, f, command, ts))
		}
	case "mv":
		args := nonFlagArgs(fields[1:])
		if len(args) >= 2 {
			events = append(events, fileEvent(agent, canonical.TypeFileDelete, args[0], command, ts))
			events = append(events, fileEvent(agent, canonical.TypeFileWrite, args[len(args)-1], command, ts))
		}
	case "cp":
		args := nonFlagArgs(fields[1:])
		if len(args) >= 2 {
			events = append(events, fileEvent(agent, canonical.TypeFileRead, args[0], command, ts))
			events = append(events, fileEvent(agent, canonical.TypeFileWrite, args[len(args)-1], command, ts))
		}
	}

	return events
}

func fileEvent(agent string, typ canonical.Type, path, command string, ts time.Time) canonical.Event {
	return canonical.Event{
		Type:      typ,
		Agent:     agent,
		Timestamp: ts,
		Tool:      "bash",
		Path:      path,
		Command:   command,
	}
}

// tokenize is a minimal whitespace/quote-aware tokenizer — good enough for
// the common patterns above, not a full shell grammar.
func tokenize(command string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := rune(0)
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for _, r := range command {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			inQuote = r
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return fields
}

func baseCommand(token string) string {
	if idx := strings.LastIndex(token, "/"); idx >= 0 {
		return token[idx+1:]
	}
	return token
}

func isFlag(token string) bool {
	return strings.HasPrefix(token, "-")
}

func isRedirectToken(token string) bool {
	return token == ">" || token == ">>" || strings.HasPrefix(token, ">")
}

func nonFlagArgs(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if isFlag(t) || isRedirectToken(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// redirectTarget looks for a `>` or `>>` token (optionally glued to its
// target, e.g. ">out.txt") and returns the path that follows it.
func redirectTarget(fields []string) (string, bool) {
	for i, f := range fields {
		switch {
		case f == ">" || f == ">>":
			if i+1 < len(fields) {
				return fields[i+1], true
			}
		case strings.HasPrefix(f, ">>") && len(f) > 2:
			return f[2:], true
		case strings.HasPrefix(f, ">") && len(f) > 1:
			return f[1:], true
		}
	}
	return "", false
}
