package toolapi

import (
	"errors"

	"github.com/kdlbs/agentsup/internal/registry"
)

func kindOf(s string) registry.Kind     { return registry.Kind(s) }
func modeOf(s string) registry.Mode     { return registry.Mode(s) }
func effortOf(s string) registry.Effort { return registry.Effort(s) }

func isErr(err, target error) bool {
	return err != nil && errors.Is(err, target)
}
