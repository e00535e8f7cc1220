package environment

// expandProfiles expands the given profiles with any profiles.include
// directives found in their profile documents, depth-first, keeping
// activation order. Re-including an already expanded profile is idempotent;
// an include chain that reaches a profile still being expanded is a cycle.
func expandProfiles(profiles []string, configName string, loader *fileLoader) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	var stack []string

	var visit func(p string) error
	visit = func(p string) error {
		for _, inProgress := range stack {
			if inProgress == p {
				chain := append(append([]string(nil), stack...), p)
				return &ProfileCycleError{Chain: chain}
			}
		}
		if seen[p] {
			return nil
		}
		seen[p] = true
		out = append(out, p)

		stack = append(stack, p)
		defer func() { stack = stack[:len(stack)-1] }()

		for _, inc := range loader.includesFor(configName, p) {
			if err := visit(inc); err != nil {
				return err
			}
		}
		return nil
	}

	for _, p := range profiles {
		if err := visit(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}
