package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord matches every MalformedRecordError.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrUnsupportedSource is returned for a source URI with an unknown scheme.
	ErrUnsupportedSource = errors.New("unsupported source")
	// ErrNoHeader is returned when the log has no header row.
	ErrNoHeader = errors.New("log has no header row")
)

// MalformedRecordError describes a present cell that could not be parsed.
// The field is treated as absent; the rest of the row is kept.
type MalformedRecordError struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("row %d: %s %q: %s", e.Row, e.Field, e.Value, e.Reason)
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}
