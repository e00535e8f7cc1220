package extension

import "fmt"

// DiscoveryError reports a declaration or instantiation failure for an
// extension implementation.
type DiscoveryError struct {
	Contract       ContractKey
	Implementation string
	Reason         string
	Err            error
}

func (e *DiscoveryError) Error() string {
	msg := fmt.Sprintf("extension: %s", e.Reason)
	if e.Contract != "" {
		msg += fmt.Sprintf(" (contract %s", e.Contract)
		if e.Implementation != "" {
			msg += fmt.Sprintf(", implementation %s", e.Implementation)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DiscoveryError) Unwrap() error { return e.Err }
