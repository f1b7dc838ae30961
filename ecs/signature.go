package ecs

import "math/bits"

const signatureWords = MaxComponentTypes / 64

// Signature is a set of component types. An entity's signature is derived from the
// components it currently holds; a system's signature selects the entities it runs over.
type Signature [signatureWords]uint64

// NewSignature builds a signature holding the given component types.
func NewSignature(types ...ComponentType) Signature {
	var s Signature
	for _, ct := range types {
		s = s.With(ct)
	}
	return s
}

// With returns a copy of s that includes ct.
func (s Signature) With(ct ComponentType) Signature {
	s[ct/64] |= 1 << (ct % 64)
	return s
}

// Without returns a copy of s that excludes ct.
func (s Signature) Without(ct ComponentType) Signature {
	s[ct/64] &^= 1 << (ct % 64)
	return s
}

// Has reports whether ct is part of the signature.
func (s Signature) Has(ct ComponentType) bool {
	return s[ct/64]&(1<<(ct%64)) != 0
}

// Contains reports whether s is a superset of other.
func (s Signature) Contains(other Signature) bool {
	for i := range s {
		if s[i]&other[i] != other[i] {
			return false
		}
	}
	return true
}

// Union returns the set of types present in either signature.
func (s Signature) Union(other Signature) Signature {
	for i := range s {
		s[i] |= other[i]
	}
	return s
}

// Len returns the number of component types in the signature.
func (s Signature) Len() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

func (s Signature) IsEmpty() bool {
	return s == Signature{}
}

// Types returns the component types in ascending order.
func (s Signature) Types() []ComponentType {
	types := make([]ComponentType, 0, s.Len())
	for word, w := range s {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			types = append(types, ComponentType(word*64+bit))
			w &^= 1 << bit
		}
	}
	return types
}
