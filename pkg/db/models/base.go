package models

import "github.com/google/uuid"

// ensureID assigns a client-side UUID so rows carry their id before INSERT
// on every dialect.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
