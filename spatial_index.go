package surgsim

import "slices"

// SpatialIndexIterator is called for each object a query finds.
type SpatialIndexIterator func(obj CollisionRepresentation)

// SpatialIndexPairFunc is called for each pair of overlapping objects, the
// object inserted first comes first.
type SpatialIndexPairFunc func(a, b CollisionRepresentation)

// SpatialIndex is the broad phase: it keeps the bounding box of every
// collision representation and finds the pairs whose boxes overlap. Every
// implementation reports the same pairs in the same order.
type SpatialIndex interface {
	// Count returns the number of objects currently stored in the index.
	Count() int

	// Contains checks if obj is stored in the index.
	Contains(obj CollisionRepresentation) bool

	// Insert adds obj with its world bounding box. Inserting an object
	// twice panics.
	Insert(obj CollisionRepresentation, bb AABB)

	// Remove deletes obj from the index, if it exists.
	Remove(obj CollisionRepresentation)

	// Update sets the bounding box of obj.
	Update(obj CollisionRepresentation, bb AABB)

	// Query calls f for every object whose box intersects bb.
	Query(bb AABB, f SpatialIndexIterator)

	// Intersections calls f for every pair of objects whose boxes intersect,
	// ordered by insertion.
	Intersections(f SpatialIndexPairFunc)
}

// NewSpatialIndex returns the index named by kind, "tree" or "brute".
func NewSpatialIndex(kind string) SpatialIndex {
	switch kind {
	case BroadPhaseBruteForce:
		return NewBruteForceIndex()
	case BroadPhaseTree, "":
		return NewAABBTree()
	}
	panic("surgsim: unknown broad phase " + kind)
}

type bruteForceEntry struct {
	obj CollisionRepresentation
	bb  AABB
}

// BruteForceIndex tests every pair of boxes.
type BruteForceIndex struct {
	entries []bruteForceEntry
}

func NewBruteForceIndex() *BruteForceIndex {
	return &BruteForceIndex{}
}

func (index *BruteForceIndex) Count() int { return len(index.entries) }

func (index *BruteForceIndex) find(obj CollisionRepresentation) int {
	return slices.IndexFunc(index.entries, func(e bruteForceEntry) bool { return e.obj == obj })
}

func (index *BruteForceIndex) Contains(obj CollisionRepresentation) bool {
	return index.find(obj) >= 0
}

func (index *BruteForceIndex) Insert(obj CollisionRepresentation, bb AABB) {
	if index.Contains(obj) {
		panic("surgsim: object already in the index: " + obj.Name())
	}
	index.entries = append(index.entries, bruteForceEntry{obj, bb})
}

func (index *BruteForceIndex) Remove(obj CollisionRepresentation) {
	if i := index.find(obj); i >= 0 {
		index.entries = slices.Delete(index.entries, i, i+1)
	}
}

func (index *BruteForceIndex) Update(obj CollisionRepresentation, bb AABB) {
	if i := index.find(obj); i >= 0 {
		index.entries[i].bb = bb
	}
}

func (index *BruteForceIndex) Query(bb AABB, f SpatialIndexIterator) {
	for _, e := range index.entries {
		if e.bb.Intersects(bb) {
			f(e.obj)
		}
	}
}

func (index *BruteForceIndex) Intersections(f SpatialIndexPairFunc) {
	for i, a := range index.entries {
		for _, b := range index.entries[i+1:] {
			if a.bb.Intersects(b.bb) {
				f(a.obj, b.obj)
			}
		}
	}
}
