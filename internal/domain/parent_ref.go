package domain

// ParentRef points at the record a child inherits from. It starts
// unresolved, holding only the relative path written in the child's
// document, and is resolved once when the child is loaded.
type ParentRef[T any] struct {
	path     string
	record   T
	resolved bool
}

func UnresolvedParent[T any](path string) ParentRef[T] {
	return ParentRef[T]{path: path}
}

func ResolvedParent[T any](path string, record T) ParentRef[T] {
	return ParentRef[T]{path: path, record: record, resolved: true}
}

func (r ParentRef[T]) Path() string {
	return r.path
}

func (r ParentRef[T]) Resolved() bool {
	return r.resolved
}

// Record returns the resolved parent.
func (r ParentRef[T]) Record() (T, bool) {
	return r.record, r.resolved
}

// Resolve binds the parent record. A reference resolves at most once.
func (r *ParentRef[T]) Resolve(record T) error {
	if r.resolved {
		return ErrParentResolved
	}
	r.record = record
	r.resolved = true
	return nil
}
