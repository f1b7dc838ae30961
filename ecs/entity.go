package ecs

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityId encodes the slot generation (upper 32 bits) and the slot index (lower 32 bits).
// Generations start at 1, so the zero EntityId never refers to a live entity.
type EntityId uint64

// NewEntityId creates an EntityId from a slot index and generation
func NewEntityId(index uint32, generation uint32) EntityId {
	return EntityId(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index from the entity ID
func (e EntityId) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// Generation extracts the slot generation from the entity ID
func (e EntityId) Generation() uint32 {
	return uint32(e >> 32)
}

// IsZero reports whether e is the zero handle.
func (e EntityId) IsZero() bool {
	return e == 0
}

func (e EntityId) String() string {
	return fmt.Sprintf("%d:%d", e.Index(), e.Generation())
}

// ParseEntityId parses the "index:generation" form produced by String.
func ParseEntityId(s string) (EntityId, error) {
	idx, gen, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("parse entity id %q: missing ':'", s)
	}
	i, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse entity id %q: %w", s, err)
	}
	g, err := strconv.ParseUint(gen, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse entity id %q: %w", s, err)
	}
	return NewEntityId(uint32(i), uint32(g)), nil
}
