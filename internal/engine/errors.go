package engine

import (
	"errors"
	"fmt"
)

// ErrNoFilter is returned by the export-count path when no filter at all was
// supplied. Counting the whole fact store is never what the caller wants.
var ErrNoFilter = errors.New("at least one filter must be supplied")

// InvalidParameterError reports a malformed request parameter. It is raised
// at the boundary, before any store access, and carries enough detail to
// identify the offending field and value.
type InvalidParameterError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// DownloadTooLargeError reports that a projected export exceeds the row
// ceiling. Both the computed count and the ceiling are surfaced so the
// caller can narrow its filters.
type DownloadTooLargeError struct {
	Count   int
	Ceiling int
}

func (e *DownloadTooLargeError) Error() string {
	return fmt.Sprintf("download of %d rows exceeds the maximum of %d; narrow the filters", e.Count, e.Ceiling)
}
