package terminal

// Ring is a fixed-capacity double-ended queue. It never grows, so pushing
// from the keyboard path does not allocate.
type Ring[T any] struct {
	buf  []T
	head int
	n    int
}

func NewRing[T any](capacity int) *Ring[T] {
	return &Ring[T]{buf: make([]T, capacity)}
}

func (r *Ring[T]) Len() int { return r.n }
func (r *Ring[T]) Cap() int { return len(r.buf) }
func (r *Ring[T]) Empty() bool { return r.n == 0 }
func (r *Ring[T]) Full() bool { return r.n == len(r.buf) }

// PushBack appends v and reports false when the ring is full.
func (r *Ring[T]) PushBack(v T) bool {
	if r.Full() {
		return false
	}
	r.buf[(r.head+r.n)%len(r.buf)] = v
	r.n++
	return true
}

// PopFront removes the oldest element.
func (r *Ring[T]) PopFront() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	v := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.n--
	return v, true
}

// PopBack removes the newest element.
func (r *Ring[T]) PopBack() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	i := (r.head + r.n - 1) % len(r.buf)
	v := r.buf[i]
	r.buf[i] = zero
	r.n--
	return v, true
}

// Back returns the newest element without removing it.
func (r *Ring[T]) Back() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	return r.buf[(r.head+r.n-1)%len(r.buf)], true
}

func (r *Ring[T]) Reset() {
	clear(r.buf)
	r.head = 0
	r.n = 0
}
