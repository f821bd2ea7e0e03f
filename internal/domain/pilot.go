package domain

import "time"

// Pilot is a remote pilot profile. Operator is a loaded relation.
type Pilot struct {
	ID                string     `json:"id" db:"id"`
	OperatorID        *string    `json:"operatorId,omitempty" db:"operator_id"`
	Name              string     `json:"name" db:"name"`
	ArnNumber         string     `json:"arnNumber,omitempty" db:"arn_number"`
	LicenceExpiryDate time.Time  `json:"licenceExpiryDate" db:"licence_expiry_date"`
	MedicalExpiryDate *time.Time `json:"medicalExpiryDate,omitempty" db:"medical_expiry_date"`
	IsCurrent         bool       `json:"isCurrent" db:"is_current"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`

	Operator *Operator `json:"operator,omitempty" db:"-"`
}

// RecordType implements Record.
func (p *Pilot) RecordType() string { return RecordTypePilot }

// RecordID implements Record.
func (p *Pilot) RecordID() string { return p.ID }

// ComplianceField implements Record.
func (p *Pilot) ComplianceField(name string) (any, bool) {
	switch name {
	case "name":
		return p.Name, true
	case "arn_number":
		return p.ArnNumber, true
	case "licence_expiry_date":
		return p.LicenceExpiryDate, true
	case "medical_expiry_date":
		if p.MedicalExpiryDate == nil {
			return nil, true
		}
		return *p.MedicalExpiryDate, true
	case "is_current":
		return p.IsCurrent, true
	case "operator":
		if p.Operator == nil {
			return nil, true
		}
		return p.Operator, true
	}
	return nil, false
}

// CreatePilotRequest is the request body for creating a pilot.
type CreatePilotRequest struct {
	OperatorID        *string    `json:"operatorId,omitempty"`
	Name              string     `json:"name"`
	ArnNumber         string     `json:"arnNumber,omitempty"`
	LicenceExpiryDate time.Time  `json:"licenceExpiryDate"`
	MedicalExpiryDate *time.Time `json:"medicalExpiryDate,omitempty"`
	IsCurrent         *bool      `json:"isCurrent,omitempty"`
}

// UpdatePilotRequest is the request body for updating a pilot.
type UpdatePilotRequest struct {
	OperatorID        *string    `json:"operatorId,omitempty"`
	Name              *string    `json:"name,omitempty"`
	ArnNumber         *string    `json:"arnNumber,omitempty"`
	LicenceExpiryDate *time.Time `json:"licenceExpiryDate,omitempty"`
	MedicalExpiryDate *time.Time `json:"medicalExpiryDate,omitempty"`
	IsCurrent         *bool      `json:"isCurrent,omitempty"`
}
