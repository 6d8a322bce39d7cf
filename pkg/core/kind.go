package core

import "fmt"

// ErrorKind is a finite classification of validation-failure causes.
type ErrorKind string

// ErrorKind values.
const (
	KindUndefinedTable       ErrorKind = "UndefinedTable"
	KindUndefinedColumn      ErrorKind = "UndefinedColumn"
	KindSyntaxError          ErrorKind = "SyntaxError"
	KindTypeMismatch         ErrorKind = "TypeMismatch"
	KindAmbiguousColumn      ErrorKind = "AmbiguousColumn"
	KindMissingGroupByColumn ErrorKind = "MissingGroupByColumn"
	KindTransactionAborted   ErrorKind = "TransactionAborted"
	KindUnknown              ErrorKind = "Unknown"
)

// AllKinds lists every ErrorKind in declaration order.
func AllKinds() []ErrorKind {
	return []ErrorKind{
		KindUndefinedTable,
		KindUndefinedColumn,
		KindSyntaxError,
		KindTypeMismatch,
		KindAmbiguousColumn,
		KindMissingGroupByColumn,
		KindTransactionAborted,
		KindUnknown,
	}
}

// ParseErrorKind converts a string to an ErrorKind.
// Matching is exact; an unrecognized name returns an error.
func ParseErrorKind(s string) (ErrorKind, error) {
	for _, k := range AllKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown error kind %q", s)
}

// Locus points at the part of a query an engine error refers to.
type Locus struct {
	// Identifier is the table, column, function or token named by the error.
	Identifier string `json:"identifier,omitempty"`
	// Line is the 1-based line within the statement, 0 when unknown.
	Line int `json:"line,omitempty"`
	// Position is the 1-based character offset reported by the engine, 0 when unknown.
	Position int `json:"position,omitempty"`
}

// IsZero reports whether no locus information is present.
func (l Locus) IsZero() bool {
	return l.Identifier == "" && l.Line == 0 && l.Position == 0
}

// ErrorRecord is the typed form of one failed validation attempt.
// Engine payloads are wrapped into this shape at the validator boundary;
// everything downstream works on it exclusively.
type ErrorRecord struct {
	Kind       ErrorKind `json:"kind"`
	RawMessage string    `json:"raw_message"`
	Locus      Locus     `json:"locus,omitempty"`
}

func (r ErrorRecord) String() string {
	if r.Locus.Identifier != "" {
		return fmt.Sprintf("%s(%s): %s", r.Kind, r.Locus.Identifier, r.RawMessage)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.RawMessage)
}
