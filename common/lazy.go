package common

import "sync"

// LazyMap builds values on first request and keeps them forever. Concurrent
// first callers for the same key wait for a single build and share its
// result, errors included.
type LazyMap[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*lazyEntry[V]
}

type lazyEntry[V any] struct {
	once sync.Once
	val  V
	err  error
}

// Get returns value for key calling build at most once per key.
func (l *LazyMap[K, V]) Get(key K, build func() (V, error)) (V, error) {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[K]*lazyEntry[V])
	}
	e, ok := l.m[key]
	if !ok {
		e = &lazyEntry[V]{}
		l.m[key] = e
	}
	l.mu.Unlock()

	e.once.Do(func() {
		e.val, e.err = build()
	})
	return e.val, e.err
}
