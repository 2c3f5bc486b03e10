package registry

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed kinds.yaml
var kindsYAML []byte

// KindConfig is one row of the embedded dispatch table: a command
// template plus the per-mode/per-effort flag sets layered on top of it.
type KindConfig struct {
	ID          string              `yaml:"id"`
	DisplayName string              `yaml:"displayName"`
	Program     string              `yaml:"program"`
	Args        []string            `yaml:"args"`
	Normalizer  string              `yaml:"normalizer"`
	ModeFlags   map[string][]string `yaml:"modeFlags"`
	EffortFlags map[string][]string `yaml:"effortFlags"`
}

type kindsFile struct {
	Version int          `yaml:"version"`
	Kinds   []KindConfig `yaml:"kinds"`
}

// Registry is the closed dispatch table from AgentKind to KindConfig.
type Registry struct {
	byID map[Kind]KindConfig
}

// Load parses the embedded kinds.yaml into a Registry. An implementer
// adding a new kind only ever needs to edit that file (and register a
// matching normalizer) — this function, and every caller of it, is closed
// over the data, not the specific kinds.
func Load() (*Registry, error) {
	var f kindsFile
	if err := yaml.Unmarshal(kindsYAML, &f); err != nil {
		return nil, fmt.Errorf("registry: parse kinds.yaml: %w", err)
	}
	r := &Registry{byID: make(map[Kind]KindConfig, len(f.Kinds))}
	for _, k := range f.Kinds {
		r.byID[Kind(k.ID)] = k
	}
	return r, nil
}

// Lookup returns the KindConfig for k, or false if k is not a supported kind.
func (r *Registry) Lookup(k Kind) (KindConfig, bool) {
	cfg, ok := r.byID[k]
	return cfg, ok
}

// Kinds returns every supported kind, in map iteration order; the order of
// kinds.yaml is not preserved.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.byID))
	for k := range r.byID {
		out = append(out, k)
	}
	return out
}

// BuildArgs substitutes {prompt} into the kind's base argument vector and
// appends the mode- and effort-specific flags, implementing step 3 of the
// Spawn algorithm (§4.4).
func (c KindConfig) BuildArgs(prompt string, mode Mode, effort Effort) []string {
	args := make([]string, 0, len(c.Args)+4)
	for _, a := range c.Args {
		args = append(args, strings.ReplaceAll(a, "{prompt}", prompt))
	}
	args = append(args, c.ModeFlags[string(mode)]...)
	args = append(args, c.EffortFlags[string(effort)]...)
	return args
}
