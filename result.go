package linewrap

import (
	"errors"
	"fmt"
	"strings"
)

// ErrResourceExhausted is the sentinel wrapped by [IncompleteError] when one
// or more leaf partitions aborted their wrap search (spec §7, "Search
// aborted"). Test with errors.Is.
var ErrResourceExhausted = errors.New("linewrap: one or more partitions exceeded the search-state limit")

// IncompleteError is returned by [driver.Format] when formatting succeeded
// (text was emitted) but one or more leaf Unwrapped Lines hit
// Style-independent max-search-states during the wrap search and were
// completed greedily instead of optimally (spec §4.2 "Stopping", §7 "Search
// aborted", §6 "Exit condition"). The formatted output is still usable; this
// is a quality signal, not a failure to produce output.
type IncompleteError struct {
	// Partitions names the offending partitions, in the order the driver
	// encountered them, for a human-readable diagnostic (spec §7: "carrying a
	// human-readable list of offending partitions").
	Partitions []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("linewrap: %d partition(s) hit the search-state limit and were greedily completed: %s",
		len(e.Partitions), strings.Join(e.Partitions, ", "))
}

func (e *IncompleteError) Unwrap() error { return ErrResourceExhausted }

// Is reports whether target is ErrResourceExhausted, so that
// errors.Is(err, ErrResourceExhausted) works without needing Unwrap to be
// consulted transitively by callers that only hold an *IncompleteError.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrResourceExhausted
}
