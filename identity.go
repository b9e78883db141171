package solver

import "github.com/google/uuid"

// instanceID opaquely identifies one Solver for diagnostics (it prefixes
// the lines of the Solver's default logger) when a process runs more than
// one solver at once.
type instanceID = uuid.UUID

func newInstanceID() instanceID {
	return uuid.New()
}
