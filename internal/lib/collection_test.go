package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectionItem struct {
	id    string
	value int
}

func (i *collectionItem) ID() string { return i.id }

func TestCollectionStoreLoad(t *testing.T) {
	coll := NewCollection[*collectionItem]()

	coll.Store(&collectionItem{id: "a", value: 1})
	coll.Store(&collectionItem{id: "b", value: 2})

	item, ok := coll.Load("a")
	require.True(t, ok)
	assert.Equal(t, 1, item.value)

	_, ok = coll.Load("missing")
	assert.False(t, ok)

	assert.Equal(t, 2, coll.Len())
}

func TestCollectionStoreOverwrites(t *testing.T) {
	coll := NewCollection[*collectionItem]()

	coll.Store(&collectionItem{id: "a", value: 1})
	coll.Store(&collectionItem{id: "a", value: 2})

	item, ok := coll.Load("a")
	require.True(t, ok)
	assert.Equal(t, 2, item.value)
	assert.Equal(t, 1, coll.Len())
}

func TestCollectionLoadOrStore(t *testing.T) {
	coll := NewCollection[*collectionItem]()

	first := &collectionItem{id: "a", value: 1}
	actual, loaded := coll.LoadOrStore(first)
	require.False(t, loaded)
	assert.Same(t, first, actual)

	actual, loaded = coll.LoadOrStore(&collectionItem{id: "a", value: 2})
	require.True(t, loaded)
	assert.Same(t, first, actual)
}

func TestCollectionDelete(t *testing.T) {
	coll := NewCollection[*collectionItem]()

	coll.Store(&collectionItem{id: "a"})
	coll.Delete("a")

	_, ok := coll.Load("a")
	assert.False(t, ok)
	assert.Equal(t, 0, coll.Len())
}

func TestCollectionRange(t *testing.T) {
	coll := NewCollection[*collectionItem]()

	coll.Store(&collectionItem{id: "a", value: 1})
	coll.Store(&collectionItem{id: "b", value: 2})
	coll.Store(&collectionItem{id: "c", value: 3})

	sum := 0
	coll.Range(func(item *collectionItem) bool {
		sum += item.value
		return true
	})
	assert.Equal(t, 6, sum)

	visits := 0
	coll.Range(func(item *collectionItem) bool {
		visits++
		return false
	})
	assert.Equal(t, 1, visits)
}
