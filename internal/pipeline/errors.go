package pipeline

import "fmt"

// NoPathError reports that two tables are not connected in the relationship
// graph. Callers generating datasets in bulk treat it as recoverable; an
// explicitly requested pipeline fails with it.
type NoPathError struct {
	From string
	To   string
}

func (e *NoPathError) Error() string {
	return fmt.Sprintf("no join path between %q and %q", e.From, e.To)
}
