package models

import "github.com/google/uuid"

// ensureID assigns a fresh identifier when the caller left it unset so rows
// carry their id before the INSERT regardless of the dialect's defaults.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
