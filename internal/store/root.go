package store

import (
	"os"
	"path/filepath"
)

const (
	envStoreDirOverride = "AGENT_STORE_DIR"
	envStateHome        = "XDG_STATE_HOME"
	envHome             = "HOME"
)

// ResolveRoot implements the root-resolution order of §4.1: an explicit
// override always wins; otherwise the canonical path is preferred unless
// a later candidate already holds agent records, in which case that one
// is used instead (so a supervisor restarted under a different HOME
// never silently loses sight of agents a previous run already wrote).
func ResolveRoot() (string, error) {
	if dir := os.Getenv(envStoreDirOverride); dir != "" {
		return dir, nil
	}

	home, _ := os.UserHomeDir()
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	var candidates []string
	if home != "" {
		candidates = append(candidates, filepath.Join(home, ".agentsup", "agents"))
		candidates = append(candidates, filepath.Join(home, ".agent-supervisor", "agents"))
	}
	if stateHome := os.Getenv(envStateHome); stateHome != "" {
		candidates = append(candidates, filepath.Join(stateHome, "agentsup", "agents"))
	} else if home != "" {
		candidates = append(candidates, filepath.Join(home, ".local", "state", "agentsup", "agents"))
	}
	candidates = append(candidates, filepath.Join(cwd, ".agentsup", "agents"))
	candidates = append(candidates, filepath.Join(os.TempDir(), "agentsup-agents"))

	if len(candidates) == 0 {
		return filepath.Join(os.TempDir(), "agentsup-agents"), nil
	}

	canonical := candidates[0]
	for _, c := range candidates[1:] {
		if hasExistingRecords(c) {
			return c, nil
		}
	}
	return canonical, nil
}

func hasExistingRecords(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), "meta.json")); err == nil {
			return true
		}
	}
	return false
}
