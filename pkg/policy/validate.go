package policy

import (
	"fmt"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/validation"
)

// ValidateRecords rejects the first record with a missing or invalid
// identity field, or whose id repeats an earlier record's id.
func ValidateRecords(records []Record) error {
	sv := validation.NewStructValidator()
	seen := make(map[string]int, len(records))

	for i, r := range records {
		if fe := sv.Check(r); fe != nil {
			return graph.Malformed(i, fe.Field, fe.Reason)
		}
		id := r.ID()
		if first, dup := seen[id]; dup {
			return graph.Malformed(i, "name", fmt.Sprintf("duplicate id %q (first seen at index %d)", id, first))
		}
		seen[id] = i
	}
	return nil
}

// ValidateSnapshot applies the same identity checks to every object list
// of a cluster snapshot. The error's Field names the list.
func ValidateSnapshot(snap ClusterSnapshot) error {
	sv := validation.NewStructValidator()

	for i, p := range snap.Pods {
		if fe := sv.Check(p); fe != nil {
			return graph.Malformed(i, "pods."+fe.Field, fe.Reason)
		}
	}
	for i, s := range snap.Services {
		if fe := sv.Check(s); fe != nil {
			return graph.Malformed(i, "services."+fe.Field, fe.Reason)
		}
	}
	for i, np := range snap.NetworkPolicies {
		if fe := sv.Check(np); fe != nil {
			return graph.Malformed(i, "networkPolicies."+fe.Field, fe.Reason)
		}
	}
	return nil
}
