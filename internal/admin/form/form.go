// Package form holds the editable values of one dialog. Each dialog owns its
// own State; there is no shared registry.
package form

import (
	"sort"
	"strings"
	"sync"
)

type Values map[string]any

func (v Values) clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

type State struct {
	mu       sync.RWMutex
	values   Values
	seeded   bool
	touched  map[string]bool
	required map[string]bool
}

func New() *State {
	s := &State{}
	s.Reset()
	return s
}

func (s *State) Seeded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seeded
}

// SetInitialValues seeds the state unless it already holds values. It
// reports whether the seed was applied.
func (s *State) SetInitialValues(v Values) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seeded {
		return false
	}
	s.values = v.clone()
	s.seeded = true
	return true
}

func (s *State) Values() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.clone()
}

func (s *State) Value(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *State) String(key string) string {
	v, _ := s.Value(key).(string)
	return v
}

func (s *State) Bool(key string) bool {
	v, _ := s.Value(key).(bool)
	return v
}

// OnChange applies an edit made by the user and remembers that the key was
// touched.
func (s *State) OnChange(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = v
	s.touched[key] = true
	delete(s.required, key)
}

// SetValue changes a value on the user's behalf, for example a derived one.
func (s *State) SetValue(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = v
	if !isEmpty(v) {
		delete(s.required, key)
	}
}

func (s *State) Touched(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.touched[key]
}

// EmptyValues returns, in the given order, the keys whose value is missing
// or a blank string.
func (s *State) EmptyValues(keys ...string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, k := range keys {
		if isEmpty(s.values[k]) {
			out = append(out, k)
		}
	}
	return out
}

func (s *State) MarkRequired(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.required[k] = true
	}
}

// Required lists the keys currently flagged as required, sorted.
func (s *State) Required() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.required))
	for k := range s.required {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = Values{}
	s.seeded = false
	s.touched = map[string]bool{}
	s.required = map[string]bool{}
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}
