package generic

import "sync"

// Pool is a typed sync.Pool.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

type PoolOption[T any] func(*Pool[T])

// WithReset clears values as they are returned to the pool.
func WithReset[T any](reset func(T)) PoolOption[T] {
	return func(p *Pool[T]) { p.reset = reset }
}

func NewPool[T any](generate func() T, opts ...PoolOption[T]) *Pool[T] {
	p := &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewHotPool is NewPool with hotSize values generated up front.
func NewHotPool[T any](generate func() T, hotSize int, opts ...PoolOption[T]) *Pool[T] {
	p := NewPool(generate, opts...)
	for range hotSize {
		p.pool.Put(generate())
	}
	return p
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	if p.reset != nil {
		p.reset(value)
	}
	p.pool.Put(value)
}
