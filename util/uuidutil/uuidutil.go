package uuidutil

import (
	"github.com/gofrs/uuid"
)

type UUIDGenerator interface {
	Generate() (string, error)
}

// UUIDRandomGenerator returns version 4 UUIDs.
type UUIDRandomGenerator struct{}

func (UUIDRandomGenerator) Generate() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// FixedUUIDGenerator always returns the same id. Useful in tests.
type FixedUUIDGenerator string

func (g FixedUUIDGenerator) Generate() (string, error) {
	return string(g), nil
}
