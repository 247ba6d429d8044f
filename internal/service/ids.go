package service

import "github.com/google/uuid"

// UUIDGenerator abstracts id generation so tests can use stable ids.
type UUIDGenerator interface {
	NewID() string
}

// DefaultUUIDGenerator generates random UUIDv4 identifiers.
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) NewID() string {
	return uuid.NewString()
}
