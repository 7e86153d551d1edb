package watch

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// matcher decides which relative paths are never reported.
type matcher struct {
	names    map[string]struct{}
	patterns []string
}

// newMatcher returns the matcher and any patterns it had to drop.
func newMatcher(names, patterns []string) (*matcher, []string) {
	m := &matcher{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		m.names[name] = struct{}{}
	}

	var invalid []string
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			invalid = append(invalid, p)
			continue
		}
		m.patterns = append(m.patterns, p)
	}
	return m, invalid
}

// ignoredName reports whether a single path component is ignored.
func (m *matcher) ignoredName(name string) bool {
	_, ok := m.names[name]
	return ok
}

// match reports whether a slash-separated relative path is ignored.
func (m *matcher) match(rel string) bool {
	if rel == "" {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if m.ignoredName(part) {
			return true
		}
	}
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
