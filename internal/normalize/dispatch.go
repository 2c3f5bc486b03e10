package normalize

import (
	"time"

	"github.com/kdlbs/agentsup/internal/canonical"
)

// Normalizer is the pure-function contract of §4.2: one raw JSON record in,
// zero or more canonical events out. It is stateful only in the narrow
// sense the spec allows — an in-normalizer tool-id pairing table (§9,
// "Cyclic/dynamic references") — so a fresh Normalizer must be constructed
// per running agent; normalizers are never shared across agents.
//
// now is injected so tests can supply a fixed clock; production callers
// pass time.Now.
type Normalizer interface {
	Normalize(raw map[string]any, now func() time.Time) []canonical.Event
}

// Constructor builds a fresh, zero-state Normalizer instance.
type Constructor func() Normalizer

var constructors = map[string]Constructor{
	"claude":   func() Normalizer { return newClaudeNormalizer() },
	"codex":    func() Normalizer { return newCodexNormalizer() },
	"gemini":   func() Normalizer { return newGeminiNormalizer() },
	"cursor":   func() Normalizer { return newCursorNormalizer() },
	"opencode": func() Normalizer { return newOpencodeNormalizer() },
}

// New constructs the Normalizer registered under key (the registry's
// KindConfig.Normalizer field), or false if key names no registered
// normalizer. This is the dispatch table of §9's "Polymorphism over agent
// kinds" design note: a new kind is a new map entry here plus a new
// kinds.yaml row, nothing else.
func New(key string) (Normalizer, bool) {
	ctor, ok := constructors[key]
	if !ok {
		return nil, false
	}
	return ctor(), true
}
