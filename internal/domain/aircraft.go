package domain

import "time"

// Aircraft is an RPAS airframe on an operator's register. Operator and
// OpenDefects are loaded relations; both are db:"-" and populated by the
// record loader before evaluation.
type Aircraft struct {
	ID                     string     `json:"id" db:"id"`
	OperatorID             *string    `json:"operatorId,omitempty" db:"operator_id"`
	Registration           string     `json:"registration" db:"registration"`
	Make                   string     `json:"make" db:"make"`
	Model                  string     `json:"model" db:"model"`
	SerialNumber           string     `json:"serialNumber" db:"serial_number"`
	WeightKg               float64    `json:"weightKg" db:"weight_kg"`
	IsServiceable          bool       `json:"isServiceable" db:"is_serviceable"`
	RegistrationExpiryDate time.Time  `json:"registrationExpiryDate" db:"registration_expiry_date"`
	InsuranceExpiryDate    *time.Time `json:"insuranceExpiryDate,omitempty" db:"insurance_expiry_date"`
	CreatedAt              time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time  `json:"updatedAt" db:"updated_at"`

	Operator    *Operator `json:"operator,omitempty" db:"-"`
	OpenDefects []*Defect `json:"openDefects,omitempty" db:"-"`
}

// RecordType implements Record.
func (a *Aircraft) RecordType() string { return RecordTypeAircraft }

// RecordID implements Record.
func (a *Aircraft) RecordID() string { return a.ID }

// ComplianceField implements Record.
func (a *Aircraft) ComplianceField(name string) (any, bool) {
	switch name {
	case "registration":
		return a.Registration, true
	case "make":
		return a.Make, true
	case "model":
		return a.Model, true
	case "serial_number":
		return a.SerialNumber, true
	case "weight_kg":
		return a.WeightKg, true
	case "is_serviceable":
		return a.IsServiceable, true
	case "registration_expiry_date":
		return a.RegistrationExpiryDate, true
	case "insurance_expiry_date":
		if a.InsuranceExpiryDate == nil {
			return nil, true
		}
		return *a.InsuranceExpiryDate, true
	case "operator":
		if a.Operator == nil {
			return nil, true
		}
		return a.Operator, true
	case "open_defects":
		defects := make([]Record, len(a.OpenDefects))
		for i, d := range a.OpenDefects {
			defects[i] = d
		}
		return defects, true
	}
	return nil, false
}

// CreateAircraftRequest is the request body for creating an aircraft.
type CreateAircraftRequest struct {
	OperatorID             *string    `json:"operatorId,omitempty"`
	Registration           string     `json:"registration"`
	Make                   string     `json:"make"`
	Model                  string     `json:"model"`
	SerialNumber           string     `json:"serialNumber"`
	WeightKg               float64    `json:"weightKg"`
	IsServiceable          *bool      `json:"isServiceable,omitempty"`
	RegistrationExpiryDate time.Time  `json:"registrationExpiryDate"`
	InsuranceExpiryDate    *time.Time `json:"insuranceExpiryDate,omitempty"`
}

// UpdateAircraftRequest is the request body for updating an aircraft.
type UpdateAircraftRequest struct {
	OperatorID             *string    `json:"operatorId,omitempty"`
	Registration           *string    `json:"registration,omitempty"`
	Make                   *string    `json:"make,omitempty"`
	Model                  *string    `json:"model,omitempty"`
	SerialNumber           *string    `json:"serialNumber,omitempty"`
	WeightKg               *float64   `json:"weightKg,omitempty"`
	IsServiceable          *bool      `json:"isServiceable,omitempty"`
	RegistrationExpiryDate *time.Time `json:"registrationExpiryDate,omitempty"`
	InsuranceExpiryDate    *time.Time `json:"insuranceExpiryDate,omitempty"`
}
