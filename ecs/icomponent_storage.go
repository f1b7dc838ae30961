package ecs

// iComponentStorage is a type-erased table holding one component type, keyed by entity slot index.
type iComponentStorage interface {
	Set(index uint32, item any) bool
	Delete(index uint32) bool
	Get(index uint32) any
	Has(index uint32) bool
	Len() int
	Clear()
}
