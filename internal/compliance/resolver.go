// Package compliance implements the three-color CASA compliance evaluation
// core: dotted field-path resolution against target records, evaluation-type
// dispatch, and worst-case aggregation into a record-level summary.
package compliance

import (
	"strings"

	"github.com/flightline/casa-compliance/internal/domain"
)

// FieldValue is the outcome of resolving a field path. Absent means the
// path led to missing data (a null relation or unset value); that is a
// data-quality outcome, not an error.
type FieldValue struct {
	Value  any
	Absent bool
}

// Resolve walks a dotted field path against a record, dereferencing one
// relation per segment. A null intermediate relation stops resolution and
// returns an absent value. An unknown field name at any segment is a
// ConfigurationError: the rule references a field that does not exist,
// which must surface to the administrator rather than read as missing data.
func Resolve(rec domain.Record, path string) (FieldValue, error) {
	if strings.TrimSpace(path) == "" {
		return FieldValue{}, &domain.ConfigurationError{Reason: "empty field path"}
	}

	segments := strings.Split(path, ".")
	var current any = rec

	for i, segment := range segments {
		r, ok := current.(domain.Record)
		if !ok {
			return FieldValue{}, &domain.ConfigurationError{
				Field:  strings.Join(segments[:i], "."),
				Reason: "path continues past a scalar field",
			}
		}

		value, known := r.ComplianceField(segment)
		if !known {
			return FieldValue{}, &domain.ConfigurationError{
				Field:  segment,
				Reason: "record type " + r.RecordType() + " has no such field",
			}
		}
		if value == nil {
			return FieldValue{Absent: true}, nil
		}
		current = value
	}

	return FieldValue{Value: current}, nil
}

// Empty reports whether the resolved value is absent or empty: nil, an
// empty string, or an empty collection. Most evaluation types treat empty
// data as non-compliant.
func (fv FieldValue) Empty() bool {
	if fv.Absent || fv.Value == nil {
		return true
	}
	switch v := fv.Value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []domain.Record:
		return len(v) == 0
	}
	return false
}
