package dataset

// Broadcast is a write-once, read-many handle for values shared across
// parallel row computations, mirroring a dataframe engine's broadcast
// variable. The value is set at construction and never mutated after,
// so concurrent readers need no synchronization.
type Broadcast[T any] struct {
	value T
}

// NewBroadcast wraps a value for read-only distribution to workers.
// Callers must not mutate the wrapped value after this point.
func NewBroadcast[T any](v T) *Broadcast[T] {
	return &Broadcast[T]{value: v}
}

// Value returns the shared value.
func (b *Broadcast[T]) Value() T { return b.value }
