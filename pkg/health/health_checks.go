package health

// ReportState is what ReportCheck needs from a loaded analysis report.
type ReportState struct {
	Loaded    bool
	Policies  int
	Conflicts int
	Cycles    int
	Warnings  int
}

// ReportCheck is ready once a report is loaded. Conflicts, cycles or
// warning diagnostics degrade it.
func ReportCheck(state func() ReportState) CheckFunc {
	return func() Check {
		s := state()
		check := Check{
			Details: map[string]any{
				"policies":  s.Policies,
				"conflicts": s.Conflicts,
				"cycles":    s.Cycles,
				"warnings":  s.Warnings,
			},
		}
		switch {
		case !s.Loaded:
			check.Status = StatusUnhealthy
			check.Message = "no report loaded"
		case s.Conflicts > 0 || s.Cycles > 0 || s.Warnings > 0:
			check.Status = StatusDegraded
			check.Message = "policy set has conflicts, cycles or warnings"
		default:
			check.Status = StatusHealthy
			check.Message = "report loaded"
		}
		return check
	}
}
