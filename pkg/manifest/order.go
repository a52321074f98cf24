package manifest

import (
	"cmp"
	"slices"
)

// ApplyOrder returns docs sorted for kubectl apply. Documents with equal
// priority keep their input order.
func ApplyOrder(docs []Document) []Document {
	out := slices.Clone(docs)
	slices.SortStableFunc(out, func(a, b Document) int {
		return cmp.Compare(Priority(a.Kind), Priority(b.Kind))
	})
	return out
}

// IsOrdered reports whether docs are already in apply order.
func IsOrdered(docs []Document) bool {
	return slices.IsSortedFunc(docs, func(a, b Document) int {
		return cmp.Compare(Priority(a.Kind), Priority(b.Kind))
	})
}
