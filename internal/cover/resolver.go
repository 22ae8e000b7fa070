package cover

import "strings"

// Key carries the entry fields cover resolution looks at.
type Key struct {
	Console string
	Title   string
	Serial  string
	ID      string
}

// Resolver maps entries to cover paths. A nil index means the cover index
// never loaded: everything resolves to the placeholder, yet HasCover stays
// true so the grid is not emptied.
type Resolver struct {
	index  *Index
	policy Policy
}

func NewResolver(index *Index, policy Policy) *Resolver {
	if policy.Placeholder == "" {
		policy.Placeholder = DefaultPlaceholder
	}
	return &Resolver{index: index, policy: policy}
}

func (r *Resolver) Placeholder() string { return r.policy.Placeholder }

// Loaded reports whether a cover index is backing this resolver.
func (r *Resolver) Loaded() bool { return r.index != nil }

// Resolve returns the cover path for k, trying serial (on serial-first
// consoles), then normalized title, then the placeholder.
func (r *Resolver) Resolve(k Key) string {
	if r.index == nil {
		return r.policy.Placeholder
	}
	consoleKey, ok := r.policy.ConsoleKey(k.Console)
	if !ok {
		return r.policy.Placeholder
	}

	if r.policy.SerialFirst[consoleKey] {
		for _, code := range [...]string{k.ID, k.Serial} {
			code = strings.ToUpper(strings.TrimSpace(code))
			if code == "" || r.policy.GenericSerials[code] {
				continue
			}
			if p, ok := r.index.serial(consoleKey, code); ok {
				return p
			}
		}
	}

	if t := NormalizeTitle(k.Title); t != "" {
		if p, ok := r.index.title(consoleKey, t); ok {
			return p
		}
	}
	return r.policy.Placeholder
}

func (r *Resolver) HasCover(k Key) bool {
	if r.index == nil {
		return true
	}
	return r.Resolve(k) != r.policy.Placeholder
}
