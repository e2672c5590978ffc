package common

import (
	"github.com/google/uuid"
)

// NewCycleID generates a correlation ID for one parse cycle.
// Format: cycle_<uuid>
func NewCycleID() string {
	return "cycle_" + uuid.New().String()
}
