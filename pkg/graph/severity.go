package graph

// Severity ranks, lowest first. Unknown values rank with "none".
var severityOrder = [...]string{"none", "low", "medium", "high", "critical"}

// SeverityRank returns the position of s in the severity order.
func SeverityRank(s string) int {
	for i, v := range severityOrder {
		if v == s {
			return i
		}
	}
	return 0
}

// MaxSeverity returns the higher ranked of the given severities.
func MaxSeverity(values ...string) string {
	best := 0
	for _, v := range values {
		if r := SeverityRank(v); r > best {
			best = r
		}
	}
	return severityOrder[best]
}

// BumpSeverity raises s by one rank, capped at critical.
func BumpSeverity(s string) string {
	r := SeverityRank(s)
	if r < len(severityOrder)-1 {
		r++
	}
	return severityOrder[r]
}
