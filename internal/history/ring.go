package history

// ring is a fixed-capacity FIFO. When full, a push overwrites the oldest
// element.
type ring[T any] struct {
	buf   []T
	head  int
	count int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	if r.count == len(r.buf) {
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		return
	}
	r.buf[(r.head+r.count)%len(r.buf)] = v
	r.count++
}

// values returns a copy in insertion order, oldest first.
func (r *ring[T]) values() []T {
	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// resize returns a new ring with the given capacity holding the newest
// elements of r that fit, oldest dropped first.
func (r *ring[T]) resize(capacity int) *ring[T] {
	nr := newRing[T](capacity)
	vals := r.values()
	if len(vals) > capacity {
		vals = vals[len(vals)-capacity:]
	}
	for _, v := range vals {
		nr.push(v)
	}
	return nr
}
