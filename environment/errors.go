package environment

import (
	"fmt"
	"strings"
)

// ProfileCycleError reports a cycle in profile include directives.
type ProfileCycleError struct {
	// Chain is the include path that closed the cycle, ending with the
	// profile that was already being expanded.
	Chain []string
}

func (e *ProfileCycleError) Error() string {
	return fmt.Sprintf("environment: profile include cycle: %s", strings.Join(e.Chain, " -> "))
}
