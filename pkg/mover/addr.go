package mover

import "unsafe"

// uintptrOf returns a stable ordering key for a Mover's address, used
// only to pick a deterministic lock-acquisition order in SwapData so
// that two movers are never locked in opposite orders by concurrent
// callers.
func uintptrOf[T any](m *Mover[T]) uintptr {
	return uintptr(unsafe.Pointer(m))
}
