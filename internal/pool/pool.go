package pool

// Resettable is implemented by values that can be cleared for reuse.
type Resettable interface {
	Reset()
}

// Poolable values can be reset and compared against their zero value.
type Poolable interface {
	Resettable
	comparable
}

// Pool is a bounded free list of reusable values.
// Get falls back to the constructor when the list is empty.
type Pool[T Poolable] struct {
	items   chan T
	newItem func() T
}

// New creates a Pool holding at most capacity idle values.
func New[T Poolable](capacity int, newItem func() T) *Pool[T] {
	return &Pool[T]{
		items:   make(chan T, capacity),
		newItem: newItem,
	}
}

// Get takes an idle value or builds a fresh one.
func (p *Pool[T]) Get() T {
	select {
	case item := <-p.items:
		return item
	default:
		return p.newItem()
	}
}

// Put resets item and keeps it for reuse. Zero values and values that
// do not fit into a full pool are dropped.
func (p *Pool[T]) Put(item T) {
	var zero T
	if item == zero {
		return
	}
	item.Reset()

	select {
	case p.items <- item:
	default:
	}
}

// Idle returns the number of values waiting for reuse.
func (p *Pool[T]) Idle() int {
	return len(p.items)
}
