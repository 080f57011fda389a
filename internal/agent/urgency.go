package agent

// Urgency tiers a nudge by how many days an approval is overdue. The
// tier drives the email subject prefix and heading color.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// UrgencyFor tiers days overdue: 0-1 low, 2-3 medium, 4-7 high, 8+ critical.
func UrgencyFor(daysOverdue int) Urgency {
	switch {
	case daysOverdue > 7:
		return UrgencyCritical
	case daysOverdue > 3:
		return UrgencyHigh
	case daysOverdue > 1:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Label returns the subject-line prefix for the tier.
func (u Urgency) Label() string {
	switch u {
	case UrgencyCritical:
		return "CRITICAL — Immediate Action Required"
	case UrgencyHigh:
		return "Urgent"
	case UrgencyMedium:
		return "Action Required"
	default:
		return "Reminder"
	}
}

// Color returns the heading color for the tier.
func (u Urgency) Color() string {
	switch u {
	case UrgencyCritical:
		return "#ef4444"
	case UrgencyHigh:
		return "#f97316"
	case UrgencyMedium:
		return "#eab308"
	default:
		return "#3b82f6"
	}
}
