package input

import "sync/atomic"

// SnapshotBuffer hands DataGroup snapshots from one goroutine to others
// without locking. A stored snapshot is never modified again, readers get
// their own copy.
type SnapshotBuffer struct {
	current atomic.Pointer[DataGroup]
	count   atomic.Uint64
}

// Publish stores a copy of g as the latest snapshot.
func (b *SnapshotBuffer) Publish(g DataGroup) {
	snapshot := g.Clone()
	b.current.Store(&snapshot)
	b.count.Add(1)
}

// Latest returns a copy of the latest snapshot, false when nothing was published.
func (b *SnapshotBuffer) Latest() (DataGroup, bool) {
	p := b.current.Load()
	if p == nil {
		return DataGroup{}, false
	}
	return p.Clone(), true
}

// Count is the number of snapshots published so far.
func (b *SnapshotBuffer) Count() uint64 { return b.count.Load() }
