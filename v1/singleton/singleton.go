// Package singleton хранит один экземпляр на процесс с ленивым созданием
// и явным уничтожением: init -> use -> Destroy -> (повторный init).
package singleton

import "sync"

type Holder[T any] struct {
	mu       sync.Mutex
	instance *T
	build    func() *T
	teardown func(*T)
}

// New принимает конструктор и необязательную функцию освобождения.
func New[T any](build func() *T, teardown func(*T)) *Holder[T] {
	return &Holder[T]{
		build:    build,
		teardown: teardown,
	}
}

// Instance возвращает экземпляр, создавая его при первом обращении.
// Одновременные первые обращения получают один и тот же экземпляр.
func (it *Holder[T]) Instance() *T {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.instance == nil {
		it.instance = it.build()
	}
	return it.instance
}

// Destroy освобождает экземпляр. Следующий Instance создаст новый.
func (it *Holder[T]) Destroy() {
	it.mu.Lock()
	instance := it.instance
	it.instance = nil
	it.mu.Unlock()

	if instance != nil && it.teardown != nil {
		it.teardown(instance)
	}
}

func (it *Holder[T]) Exists() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.instance != nil
}
