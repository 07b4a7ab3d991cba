package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement is an external binary the pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Optional requirements never block startup; stages degrade instead.
	Optional bool
}

// Status is a Requirement after lookup. Command holds the resolved path when
// the binary was found.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// Check resolves the requirement against PATH.
func (r Requirement) Check() Status {
	r.Command = strings.TrimSpace(r.Command)
	r.Description = strings.TrimSpace(r.Description)
	st := Status{Requirement: r}
	if r.Command == "" {
		st.Detail = "command not configured"
		return st
	}
	path, err := exec.LookPath(r.Command)
	if err != nil {
		st.Detail = fmt.Sprintf("binary %q not found", r.Command)
		return st
	}
	st.Command = path
	st.Available = true
	return st
}

// CheckBinaries checks each requirement in order.
func CheckBinaries(requirements []Requirement) []Status {
	out := make([]Status, len(requirements))
	for i, req := range requirements {
		out[i] = req.Check()
	}
	return out
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, st := range statuses {
		if !st.Available && !st.Optional {
			missing = append(missing, st)
		}
	}
	return missing
}
