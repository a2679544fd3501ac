package coordinator

// Slot is a single-value holder with last-write-wins semantics. It is not
// synchronized; the coordinator guards it.
type Slot[T any] struct {
	value T
	set   bool
}

func (s *Slot[T]) Set(v T) {
	s.value = v
	s.set = true
}

func (s *Slot[T]) Clear() {
	var zero T
	s.value = zero
	s.set = false
}

func (s *Slot[T]) Get() (T, bool) {
	return s.value, s.set
}

func (s *Slot[T]) IsSet() bool {
	return s.set
}
