package dataset

import (
	"fmt"
	"strings"
)

// MalformedError reports a source table that lacks required columns
type MalformedError struct {
	Source   string
	Missing  []string
	Expected []string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed input %q: missing columns [%s]", e.Source, strings.Join(e.Missing, ", "))
}
