package session

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// NewID returns a random version 4 UUID in its canonical 36 character form.
func NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return id.String(), nil
}

// Valid reports whether id has the canonical version 4 layout with an RFC 4122 variant.
func Valid(id string) bool {
	return idPattern.MatchString(id)
}

// Ensure returns the session identifier held in storage, generating and storing a new
// one when none is present. Calling it again on the same storage returns the same id.
func Ensure(storage Storage) (string, error) {
	if id, ok := storage.Get(Key); ok && id != "" {
		return id, nil
	}

	id, err := NewID()
	if err != nil {
		return "", err
	}
	storage.Set(Key, id)
	return id, nil
}
