package auth

import "sync"

// BanSet is the in-memory fast path for ban checks. It mirrors the banned
// flag in the store and is only mutated after the store write succeeded.
type BanSet struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

func NewBanSet(ids ...int64) *BanSet {
	b := &BanSet{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		b.ids[id] = struct{}{}
	}
	return b
}

func (b *BanSet) Contains(id int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.ids[id]
	return ok
}

func (b *BanSet) Add(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids[id] = struct{}{}
}

func (b *BanSet) Remove(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.ids, id)
}

// Replace swaps the whole set, used when reloading from the store
func (b *BanSet) Replace(ids []int64) {
	fresh := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		fresh[id] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids = fresh
}

func (b *BanSet) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ids)
}
