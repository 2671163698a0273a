package shared

import "sort"

// VariableStore is the single namespace shared by all three dialects.
// Keys are normalized to upper case; X and X$ are distinct keys.
type VariableStore struct {
	vars map[string]Value
}

// NewVariableStore creates an empty store
func NewVariableStore() *VariableStore {
	return &VariableStore{vars: make(map[string]Value)}
}

// Get returns the value bound to name
func (s *VariableStore) Get(name string) (Value, bool) {
	v, ok := s.vars[NormalizeName(name)]
	return v, ok
}

// Number returns the numeric value of name; unknown or text variables read as 0
func (s *VariableStore) Number(name string) float64 {
	v, ok := s.Get(name)
	if !ok || v.IsText() {
		return 0
	}
	return v.Num
}

// Set binds name to value
func (s *VariableStore) Set(name string, value Value) {
	s.vars[NormalizeName(name)] = value
}

// SetNumber binds name to a number
func (s *VariableStore) SetNumber(name string, n float64) {
	s.Set(name, Number(n))
}

// SetText binds name to a text string
func (s *VariableStore) SetText(name string, str string) {
	s.Set(name, Text(str))
}

// Delete removes name from the store
func (s *VariableStore) Delete(name string) {
	delete(s.vars, NormalizeName(name))
}

// Has reports whether name is bound
func (s *VariableStore) Has(name string) bool {
	_, ok := s.vars[NormalizeName(name)]
	return ok
}

// Len returns the number of bound variables
func (s *VariableStore) Len() int {
	return len(s.vars)
}

// Names returns the bound names in sorted order
func (s *VariableStore) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the store contents
func (s *VariableStore) Snapshot() map[string]Value {
	out := make(map[string]Value, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Lookup satisfies the evaluator's variable source: numeric values only, unknown reads as 0
func (s *VariableStore) Lookup(name string) (float64, bool) {
	v, ok := s.Get(name)
	if !ok || v.IsText() {
		return 0, false
	}
	return v.Num, true
}
