package domain

// Record type identifiers for every entity that can be the target of a
// compliance rule. Rules reference these in target_record_type and checks
// store them as the polymorphic record reference.
const (
	RecordTypeOperator = "operator"
	RecordTypeAircraft = "aircraft"
	RecordTypePilot    = "pilot"
	RecordTypeDefect   = "defect"
)

// RecordTypes lists every record type rules can target.
var RecordTypes = []string{
	RecordTypeOperator,
	RecordTypeAircraft,
	RecordTypePilot,
	RecordTypeDefect,
}

// KnownRecordType reports whether t names a compliance-capable record type.
func KnownRecordType(t string) bool {
	for _, rt := range RecordTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// RecordRef is a polymorphic reference to one target record.
type RecordRef struct {
	RecordType string `json:"recordType" db:"record_type"`
	RecordID   string `json:"recordId" db:"record_id"`
}

// Record is the capability interface implemented by every entity that
// compliance rules can be evaluated against. ComplianceField resolves one
// path segment: it returns the field value and true for a known field name,
// or false for a name the type does not expose. A nil value with ok=true
// means the field is known but absent (a null relation or unset value).
//
// Values returned are one of: string, bool, float64, int, time.Time,
// Record (a relation), []Record (a related collection), or nil.
type Record interface {
	RecordType() string
	RecordID() string
	ComplianceField(name string) (any, bool)
}
