package usecase

import (
	"cmp"
	"slices"
	"sync"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
)

// keyedRWMutex hands out one RWMutex per entity. Entries are dropped once no
// goroutine holds or waits for them.
type keyedRWMutex struct {
	mu      sync.Mutex
	entries map[entity.Ref]*keyedEntry
}

type keyedEntry struct {
	sync.RWMutex
	users int
}

func newKeyedRWMutex() *keyedRWMutex {
	return &keyedRWMutex{entries: map[entity.Ref]*keyedEntry{}}
}

func (k *keyedRWMutex) acquire(ref entity.Ref) *keyedEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[ref]
	if !ok {
		e = &keyedEntry{}
		k.entries[ref] = e
	}
	e.users++
	return e
}

func (k *keyedRWMutex) release(ref entity.Ref) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e := k.entries[ref]
	e.users--
	if e.users == 0 {
		delete(k.entries, ref)
	}
}

// Lock takes ref exclusively and returns the unlock function.
func (k *keyedRWMutex) Lock(ref entity.Ref) func() {
	e := k.acquire(ref)
	e.Lock()
	return func() {
		e.Unlock()
		k.release(ref)
	}
}

// RLock takes every ref in shared mode, in a fixed order so that two callers
// never wait on each other.
func (k *keyedRWMutex) RLock(refs ...entity.Ref) func() {
	refs = slices.Clone(refs)
	slices.SortFunc(refs, func(a, b entity.Ref) int {
		return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.ID, b.ID))
	})
	refs = slices.Compact(refs)
	held := make([]*keyedEntry, 0, len(refs))
	for _, ref := range refs {
		e := k.acquire(ref)
		e.RLock()
		held = append(held, e)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].RUnlock()
			k.release(refs[i])
		}
	}
}
