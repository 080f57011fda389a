package agent

import "testing"

func TestUrgencyFor(t *testing.T) {
	cases := []struct {
		days int
		want Urgency
	}{
		{0, UrgencyLow},
		{1, UrgencyLow},
		{2, UrgencyMedium},
		{3, UrgencyMedium},
		{4, UrgencyHigh},
		{7, UrgencyHigh},
		{8, UrgencyCritical},
		{30, UrgencyCritical},
	}
	for _, tc := range cases {
		if got := UrgencyFor(tc.days); got != tc.want {
			t.Errorf("UrgencyFor(%d) = %q, want %q", tc.days, got, tc.want)
		}
	}
}

func TestUrgencyLabelAndColor(t *testing.T) {
	cases := []struct {
		u     Urgency
		label string
		color string
	}{
		{UrgencyLow, "Reminder", "#3b82f6"},
		{UrgencyMedium, "Action Required", "#eab308"},
		{UrgencyHigh, "Urgent", "#f97316"},
		{UrgencyCritical, "CRITICAL — Immediate Action Required", "#ef4444"},
	}
	for _, tc := range cases {
		if got := tc.u.Label(); got != tc.label {
			t.Errorf("%s.Label() = %q, want %q", tc.u, got, tc.label)
		}
		if got := tc.u.Color(); got != tc.color {
			t.Errorf("%s.Color() = %q, want %q", tc.u, got, tc.color)
		}
	}
}
