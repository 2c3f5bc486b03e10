package process

import (
	"os"
	"path/filepath"

	"github.com/kdlbs/agentsup/internal/agenterr"
)

// dangerousDirs are working directories ralph mode must never be pointed
// at: the operator's home, and filesystem roots that would let a
// full-autonomy agent wander into system state.
var dangerousDirs = map[string]bool{
	"/":    true,
	"/etc": true,
	"/usr": true,
	"/bin": true,
	"/sbin": true,
	"/root": true,
}

// checkRalphSafety implements step 2 of Spawn (§4.4): ralph mode requires
// an explicit cwd that is neither $HOME nor a system directory, and a
// loop file must already exist there.
func checkRalphSafety(cwd, loopFileName string) error {
	if cwd == "" {
		return agenterr.Preconditionf("%w: ralph mode requires cwd", agenterr.ErrPrecondition)
	}

	clean := filepath.Clean(cwd)
	if home, err := os.UserHomeDir(); err == nil && home != "" && clean == filepath.Clean(home) {
		return agenterr.Preconditionf("%w: ralph mode refuses to run directly in the home directory", agenterr.ErrPrecondition)
	}
	if dangerousDirs[clean] {
		return agenterr.Preconditionf("%w: ralph mode refuses to run in %s", agenterr.ErrPrecondition, clean)
	}

	loopPath := filepath.Join(clean, loopFileName)
	if _, err := os.Stat(loopPath); err != nil {
		return agenterr.Preconditionf("%w: loop file %s not found in %s", agenterr.ErrPrecondition, loopFileName, clean)
	}
	return nil
}

// ralphPreamble wraps the user prompt with a stereotyped autonomy notice
// referencing the loop file, per step 2 of Spawn.
func ralphPreamble(prompt, loopFileName string) string {
	return "You are running in full-autonomy (ralph) mode. Consult and maintain " +
		loopFileName + " in the working directory as your running plan/journal. " +
		"Keep working through it until the task is complete.\n\n" + prompt
}
