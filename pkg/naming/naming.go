// Package naming resolves tool name collisions and sanitizes tool names.
package naming

import (
	"regexp"
	"strconv"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Sanitize replaces every character that is not allowed in a function name
// (^[a-zA-Z0-9_-]+$) with an underscore.
func Sanitize(raw string) string {
	return unsafeChars.ReplaceAllString(raw, "_")
}

// Resolve returns candidate if it is not taken,
// otherwise the first of candidate_2, candidate_3, ... that is not taken.
// The suffix is always appended to the original candidate.
func Resolve(candidate string, taken func(string) bool) string {
	if !taken(candidate) {
		return candidate
	}
	for i := 2; ; i++ {
		name := candidate + "_" + strconv.Itoa(i)
		if !taken(name) {
			return name
		}
	}
}

// Set tracks names already used by a single producer.
// The zero value is ready to use.
type Set struct {
	used map[string]struct{}
}

// Has reports whether the name is used.
func (s *Set) Has(name string) bool {
	_, ok := s.used[name]
	return ok
}

// Unique resolves the candidate against the set and reserves the result.
func (s *Set) Unique(candidate string) string {
	if s.used == nil {
		s.used = make(map[string]struct{})
	}
	name := Resolve(candidate, s.Has)
	s.used[name] = struct{}{}
	return name
}

// Len returns the number of used names.
func (s *Set) Len() int {
	return len(s.used)
}
