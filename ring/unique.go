package ring

// Unique is a Ring that never holds two equal values at once.
type Unique[T comparable] struct {
	r *Ring[T]
}

// NewUnique returns a unique ring holding up to capacity values.
func NewUnique[T comparable](capacity int) *Unique[T] {
	return &Unique[T]{r: New[T](capacity)}
}

// Add appends item unless it is already stored. It reports whether the item
// was inserted; full is true when the ring had no room for it.
func (u *Unique[T]) Add(item T) (added, full bool) {
	if u.r.IsFull() {
		return false, true
	}

	if u.Contains(item) {
		return false, false
	}

	return u.r.Push(item), false
}

// Push is like Add but treats an already stored item as a success.
func (u *Unique[T]) Push(item T) bool {
	_, full := u.Add(item)
	return !full
}

func (u *Unique[T]) Contains(item T) bool {
	return u.r.Find(func(stored T) bool { return stored == item })
}

func (u *Unique[T]) Pop() (T, bool) {
	return u.r.Pop()
}

func (u *Unique[T]) Peek() (T, bool) {
	return u.r.Peek()
}

func (u *Unique[T]) Len() int {
	return u.r.Len()
}

func (u *Unique[T]) Cap() int {
	return u.r.Cap()
}

func (u *Unique[T]) IsEmpty() bool {
	return u.r.IsEmpty()
}

func (u *Unique[T]) IsFull() bool {
	return u.r.IsFull()
}

func (u *Unique[T]) Flush() {
	u.r.Flush()
}
