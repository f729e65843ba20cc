package lib

import "sync"

type IDGetter interface {
	ID() string
}

// Collection is a thread-safe map of items keyed by their ID
type Collection[T IDGetter] struct {
	items sync.Map
}

func NewCollection[T IDGetter]() *Collection[T] {
	return &Collection[T]{
		items: sync.Map{},
	}
}

func (c *Collection[T]) Load(ID string) (item T, ok bool) {
	if val, ok := c.items.Load(ID); ok {
		return val.(T), true
	}
	return item, false
}

func (c *Collection[T]) Store(item T) {
	c.items.Store(item.ID(), item)
}

func (c *Collection[T]) LoadOrStore(item T) (actual T, loaded bool) {
	val, loaded := c.items.LoadOrStore(item.ID(), item)
	return val.(T), loaded
}

func (c *Collection[T]) Delete(ID string) {
	c.items.Delete(ID)
}

func (c *Collection[T]) Range(f func(item T) bool) {
	c.items.Range(func(key, value any) bool {
		return f(value.(T))
	})
}

func (c *Collection[T]) Len() int {
	count := 0
	c.items.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}
