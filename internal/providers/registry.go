package providers

import "sort"

// Registry holds the set of configured adapters and exposes the enabled
// subset in a deterministic (lexicographic) iteration order, grounded in the
// teacher's buildProviders map construction but trimmed to the fixed set of
// six names this gateway dispatches to.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a Registry from a name→Adapter map. Only non-nil
// adapters are retained.
func NewRegistry(adapters map[string]Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for name, a := range adapters {
		if a != nil {
			r.adapters[name] = a
		}
	}
	return r
}

// Get returns the adapter registered under name, if any.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Enabled returns the names of all registered adapters in lexicographic order.
func (r *Registry) Enabled() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of enabled providers.
func (r *Registry) Len() int { return len(r.adapters) }

// FailoverCandidates returns the enabled provider names other than primary,
// in deterministic lexicographic order — the order the dispatcher tries them
// after the primary fails (§4.7: "Failover order iterates the set of enabled
// providers (excluding primary) in a deterministic order").
func (r *Registry) FailoverCandidates(primary string) []string {
	all := r.Enabled()
	out := make([]string, 0, len(all))
	for _, name := range all {
		if name != primary {
			out = append(out, name)
		}
	}
	return out
}

// FailoverEnabled reports whether at least two providers are enabled overall
// (§4.7: "Failover enabled iff ≥2 providers are enabled overall").
func (r *Registry) FailoverEnabled() bool {
	return len(r.adapters) >= 2
}
