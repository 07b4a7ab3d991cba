package stage

// Health reports whether a stage can run: credentials present, binaries
// found, provider reachable.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy records why the stage cannot run. The stage still executes when
// it has a fallback; the detail is shown in status output.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}

// Summary is the one-line form used by status output.
func (h Health) Summary() string {
	switch {
	case h.Ready && h.Detail != "":
		return "ready (" + h.Detail + ")"
	case h.Ready:
		return "ready"
	case h.Detail != "":
		return h.Detail
	default:
		return "not ready"
	}
}
