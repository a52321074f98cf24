package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestCheckReadiness_WorstStatusWins(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"none", nil, StatusHealthy},
		{"healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy", []Status{StatusUnhealthy, StatusDegraded}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := newHealthChecker(fixedClock())
			for i, s := range tt.statuses {
				hc.RegisterReadinessCheck(string(rune('a'+i)), func() Check { return Check{Status: s} })
			}
			r := hc.CheckReadiness()
			assert.Equal(t, tt.want, r.Status)
			assert.Len(t, r.Checks, len(tt.statuses))
			assert.Positive(t, r.Uptime)
		})
	}
}

func TestReportCheck(t *testing.T) {
	tests := []struct {
		name  string
		state ReportState
		want  Status
	}{
		{"not loaded", ReportState{}, StatusUnhealthy},
		{"clean", ReportState{Loaded: true, Policies: 3}, StatusHealthy},
		{"conflicts", ReportState{Loaded: true, Policies: 3, Conflicts: 1}, StatusDegraded},
		{"cycles", ReportState{Loaded: true, Cycles: 2}, StatusDegraded},
		{"warnings", ReportState{Loaded: true, Warnings: 4}, StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ReportCheck(func() ReportState { return tt.state })()
			assert.Equal(t, tt.want, c.Status)
			assert.Equal(t, tt.state.Policies, c.Details["policies"])
		})
	}
}

func TestHandlers(t *testing.T) {
	hc := newHealthChecker(fixedClock())
	state := ReportState{}
	hc.RegisterReadinessCheck("report", ReportCheck(func() ReportState { return state }))

	rec := httptest.NewRecorder()
	hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	state = ReportState{Loaded: true, Conflicts: 1}
	rec = httptest.NewRecorder()
	hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, "report", resp.Checks["report"].Name)

	rec = httptest.NewRecorder()
	hc.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
