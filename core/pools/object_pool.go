package pools

import (
	"sync"
	"sync/atomic"
)

// Resettable is implemented by pooled objects that must be cleared before reuse.
type Resettable interface {
	Reset()
}

// ObjectPool manages pooling of *T values, resetting them on Put.
type ObjectPool[T any, PT interface {
	*T
	Resettable
}] struct {
	pool sync.Pool
	gets atomic.Uint64
	puts atomic.Uint64
}

// NewObjectPool creates an empty pool.
func NewObjectPool[T any, PT interface {
	*T
	Resettable
}]() *ObjectPool[T, PT] {
	op := &ObjectPool[T, PT]{}
	op.pool.New = func() any {
		return PT(new(T))
	}
	return op
}

// Get retrieves an object from the pool
func (op *ObjectPool[T, PT]) Get() PT {
	op.gets.Add(1)
	return op.pool.Get().(PT)
}

// Put resets obj and returns it to the pool
func (op *ObjectPool[T, PT]) Put(obj PT) {
	if obj == nil {
		return
	}
	obj.Reset()
	op.puts.Add(1)
	op.pool.Put(obj)
}

// Stats returns pool statistics
func (op *ObjectPool[T, PT]) Stats() (gets, puts uint64) {
	return op.gets.Load(), op.puts.Load()
}
