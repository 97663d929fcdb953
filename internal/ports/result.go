package ports

// LookupState discriminates the three outcomes of a source lookup.
// "Not found" is a successful lookup with no data, NOT a failure;
// downstream error typing depends on keeping the two apart.
type LookupState int

const (
	// LookupFound: the source returned data.
	LookupFound LookupState = iota
	// LookupNotFound: the source answered, the key does not exist.
	LookupNotFound
	// LookupFailed: the lookup itself failed (transport, parse, ...).
	LookupFailed
)

// Result is the tri-state outcome of a source lookup.
type Result[T any] struct {
	state LookupState
	value T
	err   error
}

// Found wraps data returned by a source.
func Found[T any](v T) Result[T] {
	return Result[T]{state: LookupFound, value: v}
}

// NotFound marks a successful lookup that matched nothing.
func NotFound[T any]() Result[T] {
	return Result[T]{state: LookupNotFound}
}

// Failed marks a lookup that could not be completed.
func Failed[T any](err error) Result[T] {
	return Result[T]{state: LookupFailed, err: err}
}

func (r Result[T]) State() LookupState { return r.state }

// Value is meaningful only when State is LookupFound.
func (r Result[T]) Value() T { return r.value }

// Err is meaningful only when State is LookupFailed.
func (r Result[T]) Err() error { return r.err }
