package policy

import (
	"encoding/json"
	"slices"
	"strings"

	"golang.org/x/exp/maps"
)

// LabelPair is one key/value requirement of a selector.
type LabelPair struct {
	Key   string
	Value string
}

// Selector is a label-match predicate held as key-sorted pairs with unique
// keys, so matching never depends on map iteration order.
type Selector []LabelPair

// NewSelector builds a selector from a label map.
func NewSelector(labels map[string]string) Selector {
	if len(labels) == 0 {
		return nil
	}
	keys := maps.Keys(labels)
	slices.Sort(keys)
	s := make(Selector, len(keys))
	for i, k := range keys {
		s[i] = LabelPair{Key: k, Value: labels[k]}
	}
	return s
}

// Len returns the number of requirements.
func (s Selector) Len() int { return len(s) }

// IsEmpty reports whether the selector has no requirements.
func (s Selector) IsEmpty() bool { return len(s) == 0 }

// Matches reports whether every pair in s is present, with an equal value,
// in labels. An empty selector matches any label set.
func (s Selector) Matches(labels map[string]string) bool {
	for _, p := range s {
		v, ok := labels[p.Key]
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}

// Common returns the pairs present in both selectors, in key order.
func (s Selector) Common(other Selector) []LabelPair {
	var out []LabelPair
	i, j := 0, 0
	for i < len(s) && j < len(other) {
		switch strings.Compare(s[i].Key, other[j].Key) {
		case -1:
			i++
		case 1:
			j++
		default:
			if s[i].Value == other[j].Value {
				out = append(out, s[i])
			}
			i++
			j++
		}
	}
	return out
}

// Map returns the selector as a fresh label map.
func (s Selector) Map() map[string]string {
	m := make(map[string]string, len(s))
	for _, p := range s {
		m[p.Key] = p.Value
	}
	return m
}

// String renders the selector as "k1=v1,k2=v2".
func (s Selector) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.Key + "=" + p.Value
	}
	return strings.Join(parts, ",")
}

// MarshalJSON encodes the selector as a label object.
func (s Selector) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

// UnmarshalJSON decodes a label object.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = NewSelector(m)
	return nil
}
