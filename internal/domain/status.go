package domain

// Status is the three-color CASA compliance status.
type Status string

const (
	StatusGreen  Status = "green"
	StatusYellow Status = "yellow"
	StatusRed    Status = "red"
)

// rank orders statuses by severity. Higher is worse.
func (s Status) rank() int {
	switch s {
	case StatusRed:
		return 2
	case StatusYellow:
		return 1
	default:
		return 0
	}
}

// Worst returns the more severe of the two statuses.
func (s Status) Worst(other Status) Status {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusGreen, StatusYellow, StatusRed:
		return true
	}
	return false
}

// ValidSeverity reports whether s may be used as a rule severity.
// A failing rule contributes its severity to the aggregate, so a
// severity of green would make the rule unable to affect anything.
func (s Status) ValidSeverity() bool {
	return s == StatusYellow || s == StatusRed
}
