package utils

import (
	"github.com/google/uuid"
)

// NewID returns a random UUID string used to correlate a session across logs and the journal.
func NewID() string {
	return uuid.NewString()
}
