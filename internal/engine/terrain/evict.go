package terrain

import "container/heap"

// evictor ranks Available slots for release when the cache is capacity
// bounded. The head of the queue is the least recently used slot; among
// equally old slots the coarser LOD goes first.
type evictor struct {
	entries []*evictEntry
	index   map[slotKey]*evictEntry
}

type evictEntry struct {
	key      slotKey
	lastUsed uint64
	pos      int
}

func newEvictor() *evictor {
	return &evictor{index: make(map[slotKey]*evictEntry)}
}

func (e *evictor) Len() int { return len(e.entries) }

func (e *evictor) Less(i, j int) bool {
	a, b := e.entries[i], e.entries[j]
	if a.lastUsed != b.lastUsed {
		return a.lastUsed < b.lastUsed
	}
	return a.key.lod > b.key.lod
}

func (e *evictor) Swap(i, j int) {
	e.entries[i], e.entries[j] = e.entries[j], e.entries[i]
	e.entries[i].pos = i
	e.entries[j].pos = j
}

func (e *evictor) Push(x any) {
	entry := x.(*evictEntry)
	entry.pos = len(e.entries)
	e.entries = append(e.entries, entry)
}

func (e *evictor) Pop() any {
	n := len(e.entries)
	entry := e.entries[n-1]
	e.entries[n-1] = nil
	e.entries = e.entries[:n-1]
	return entry
}

// track adds or refreshes key with its last-used frame.
func (e *evictor) track(key slotKey, frame uint64) {
	if entry, ok := e.index[key]; ok {
		if entry.lastUsed != frame {
			entry.lastUsed = frame
			heap.Fix(e, entry.pos)
		}
		return
	}
	entry := &evictEntry{key: key, lastUsed: frame}
	e.index[key] = entry
	heap.Push(e, entry)
}

// victim removes and returns the lowest ranked key other than keep.
func (e *evictor) victim(keep slotKey) (slotKey, bool) {
	if e.Len() == 0 {
		return slotKey{}, false
	}
	head := heap.Pop(e).(*evictEntry)
	if head.key != keep {
		delete(e.index, head.key)
		return head.key, true
	}
	if e.Len() == 0 {
		heap.Push(e, head)
		return slotKey{}, false
	}
	next := heap.Pop(e).(*evictEntry)
	heap.Push(e, head)
	delete(e.index, next.key)
	return next.key, true
}
