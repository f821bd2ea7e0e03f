package domain

import "time"

// Operator is a certified RPAS operator (ReOC holder).
type Operator struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	ReocNumber     string    `json:"reocNumber" db:"reoc_number"`
	ReocExpiryDate time.Time `json:"reocExpiryDate" db:"reoc_expiry_date"`
	IsActive       bool      `json:"isActive" db:"is_active"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// RecordType implements Record.
func (o *Operator) RecordType() string { return RecordTypeOperator }

// RecordID implements Record.
func (o *Operator) RecordID() string { return o.ID }

// ComplianceField implements Record.
func (o *Operator) ComplianceField(name string) (any, bool) {
	switch name {
	case "name":
		return o.Name, true
	case "reoc_number":
		return o.ReocNumber, true
	case "reoc_expiry_date":
		return o.ReocExpiryDate, true
	case "is_active":
		return o.IsActive, true
	}
	return nil, false
}

// CreateOperatorRequest is the request body for creating an operator.
type CreateOperatorRequest struct {
	Name           string    `json:"name"`
	ReocNumber     string    `json:"reocNumber"`
	ReocExpiryDate time.Time `json:"reocExpiryDate"`
	IsActive       *bool     `json:"isActive,omitempty"`
}

// UpdateOperatorRequest is the request body for updating an operator.
type UpdateOperatorRequest struct {
	Name           *string    `json:"name,omitempty"`
	ReocNumber     *string    `json:"reocNumber,omitempty"`
	ReocExpiryDate *time.Time `json:"reocExpiryDate,omitempty"`
	IsActive       *bool      `json:"isActive,omitempty"`
}
