package domain

import "time"

// Defect is a technical log defect entry against an aircraft. A defect with
// no rectified date is open and counts toward the aircraft's open_defects
// collection. Aircraft is a loaded relation.
type Defect struct {
	ID             string     `json:"id" db:"id"`
	AircraftID     string     `json:"aircraftId" db:"aircraft_id"`
	Description    string     `json:"description" db:"description"`
	SeverityClass  string     `json:"severityClass" db:"severity_class"` // "minor" or "major"
	DiscoveredDate time.Time  `json:"discoveredDate" db:"discovered_date"`
	RectifiedDate  *time.Time `json:"rectifiedDate,omitempty" db:"rectified_date"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`

	Aircraft *Aircraft `json:"aircraft,omitempty" db:"-"`
}

// RecordType implements Record.
func (d *Defect) RecordType() string { return RecordTypeDefect }

// RecordID implements Record.
func (d *Defect) RecordID() string { return d.ID }

// ComplianceField implements Record.
func (d *Defect) ComplianceField(name string) (any, bool) {
	switch name {
	case "description":
		return d.Description, true
	case "severity_class":
		return d.SeverityClass, true
	case "discovered_date":
		return d.DiscoveredDate, true
	case "rectified_date":
		if d.RectifiedDate == nil {
			return nil, true
		}
		return *d.RectifiedDate, true
	case "aircraft":
		if d.Aircraft == nil {
			return nil, true
		}
		return d.Aircraft, true
	}
	return nil, false
}

// CreateDefectRequest is the request body for logging a defect.
type CreateDefectRequest struct {
	Description    string    `json:"description"`
	SeverityClass  string    `json:"severityClass"`
	DiscoveredDate time.Time `json:"discoveredDate"`
}

// UpdateDefectRequest is the request body for updating a defect.
type UpdateDefectRequest struct {
	Description   *string    `json:"description,omitempty"`
	SeverityClass *string    `json:"severityClass,omitempty"`
	RectifiedDate *time.Time `json:"rectifiedDate,omitempty"`
}
