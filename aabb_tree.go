package surgsim

import (
	"slices"
)

const pooledBufferSize = 64

// AABBTree is a dynamic bounding volume tree. Leaves keep a box inflated by
// Margin so that small moves do not restructure the tree.
type AABBTree struct {
	// Margin inflates the box stored in every leaf.
	Margin float64

	root        *treeNode
	leaves      map[CollisionRepresentation]*treeNode
	order       []*treeNode
	nextID      int
	pooledNodes *treeNode
}

type treeNode struct {
	obj    CollisionRepresentation
	bb     AABB
	parent *treeNode
	a, b   *treeNode

	// leaf only
	id    int
	tight AABB
}

func NewAABBTree() *AABBTree {
	return &AABBTree{
		Margin: 0.01,
		leaves: make(map[CollisionRepresentation]*treeNode),
	}
}

func (tree *AABBTree) Count() int {
	return len(tree.leaves)
}

func (tree *AABBTree) Contains(obj CollisionRepresentation) bool {
	_, ok := tree.leaves[obj]
	return ok
}

func (tree *AABBTree) Insert(obj CollisionRepresentation, bb AABB) {
	if tree.Contains(obj) {
		panic("surgsim: object already in the index: " + obj.Name())
	}
	leaf := tree.newLeaf(obj, bb)
	tree.leaves[obj] = leaf
	tree.order = append(tree.order, leaf)
	tree.root = tree.subtreeInsert(tree.root, leaf)
}

func (tree *AABBTree) Remove(obj CollisionRepresentation) {
	leaf, ok := tree.leaves[obj]
	if !ok {
		return
	}
	delete(tree.leaves, obj)
	tree.order = slices.DeleteFunc(tree.order, func(n *treeNode) bool { return n == leaf })
	tree.root = tree.subtreeRemove(tree.root, leaf)
	tree.recycleNode(leaf)
}

// Update reinserts obj when bb left the inflated box of its leaf.
func (tree *AABBTree) Update(obj CollisionRepresentation, bb AABB) {
	leaf, ok := tree.leaves[obj]
	if !ok {
		return
	}
	leaf.tight = bb
	if leaf.bb.Contains(bb) {
		return
	}
	tree.root = tree.subtreeRemove(tree.root, leaf)
	leaf.bb = bb.Inflate(tree.Margin)
	leaf.parent = nil
	tree.root = tree.subtreeInsert(tree.root, leaf)
}

func (tree *AABBTree) Query(bb AABB, f SpatialIndexIterator) {
	var found []*treeNode
	tree.root.subtreeQuery(bb, func(leaf *treeNode) {
		if leaf.tight.Intersects(bb) {
			found = append(found, leaf)
		}
	})
	slices.SortFunc(found, func(a, b *treeNode) int { return a.id - b.id })
	for _, leaf := range found {
		f(leaf.obj)
	}
}

func (tree *AABBTree) Intersections(f SpatialIndexPairFunc) {
	var found []*treeNode
	for _, leaf := range tree.order {
		found = found[:0]
		tree.root.subtreeQuery(leaf.tight, func(other *treeNode) {
			if other.id > leaf.id && other.tight.Intersects(leaf.tight) {
				found = append(found, other)
			}
		})
		slices.SortFunc(found, func(a, b *treeNode) int { return a.id - b.id })
		for _, other := range found {
			f(leaf.obj, other.obj)
		}
	}
}

// Depth returns the number of levels of the tree.
func (tree *AABBTree) Depth() int {
	return tree.root.depth()
}

func (tree *AABBTree) subtreeInsert(subtree, leaf *treeNode) *treeNode {
	if subtree == nil {
		return leaf
	}
	if subtree.isLeaf() {
		return tree.newNode(leaf, subtree)
	}

	costA := subtree.b.bb.Volume() + subtree.a.bb.MergedVolume(leaf.bb)
	costB := subtree.a.bb.Volume() + subtree.b.bb.MergedVolume(leaf.bb)

	if costA == costB {
		costA = subtree.a.bb.Proximity(leaf.bb)
		costB = subtree.b.bb.Proximity(leaf.bb)
	}

	if costB < costA {
		subtree.setB(tree.subtreeInsert(subtree.b, leaf))
	} else {
		subtree.setA(tree.subtreeInsert(subtree.a, leaf))
	}

	subtree.bb = subtree.bb.Merge(leaf.bb)
	return subtree
}

func (tree *AABBTree) subtreeRemove(subtree, leaf *treeNode) *treeNode {
	if leaf == subtree {
		return nil
	}

	parent := leaf.parent
	if parent == subtree {
		other := subtree.other(leaf)
		other.parent = subtree.parent
		tree.recycleNode(subtree)
		return other
	}

	tree.replaceChild(parent.parent, parent, parent.other(leaf))
	return subtree
}

// replaceChild puts value in place of child, which is recycled, and refits
// the boxes up to the root.
func (tree *AABBTree) replaceChild(parent, child, value *treeNode) {
	if parent.a == child {
		tree.recycleNode(parent.a)
		parent.setA(value)
	} else {
		tree.recycleNode(parent.b)
		parent.setB(value)
	}

	for node := parent; node != nil; node = node.parent {
		node.bb = node.a.bb.Merge(node.b.bb)
	}
}

func (tree *AABBTree) newNode(a, b *treeNode) *treeNode {
	node := tree.nodeFromPool()
	node.bb = a.bb.Merge(b.bb)
	node.setA(a)
	node.setB(b)
	return node
}

func (tree *AABBTree) newLeaf(obj CollisionRepresentation, bb AABB) *treeNode {
	node := tree.nodeFromPool()
	node.obj = obj
	node.bb = bb.Inflate(tree.Margin)
	node.tight = bb
	node.id = tree.nextID
	tree.nextID++
	return node
}

func (tree *AABBTree) nodeFromPool() *treeNode {
	node := tree.pooledNodes
	if node != nil {
		tree.pooledNodes = node.parent
		*node = treeNode{}
		return node
	}

	// Pool is exhausted make more
	for range pooledBufferSize {
		tree.recycleNode(&treeNode{})
	}
	return &treeNode{}
}

func (tree *AABBTree) recycleNode(node *treeNode) {
	*node = treeNode{parent: tree.pooledNodes}
	tree.pooledNodes = node
}

func (node *treeNode) setA(value *treeNode) {
	node.a = value
	value.parent = node
}

func (node *treeNode) setB(value *treeNode) {
	node.b = value
	value.parent = node
}

func (node *treeNode) other(child *treeNode) *treeNode {
	if node.a == child {
		return node.b
	}
	return node.a
}

func (node *treeNode) isLeaf() bool {
	return node.obj != nil
}

func (node *treeNode) subtreeQuery(bb AABB, f func(leaf *treeNode)) {
	if node == nil || !node.bb.Intersects(bb) {
		return
	}
	if node.isLeaf() {
		f(node)
		return
	}
	node.a.subtreeQuery(bb, f)
	node.b.subtreeQuery(bb, f)
}

func (node *treeNode) depth() int {
	if node == nil {
		return 0
	}
	if node.isLeaf() {
		return 1
	}
	return 1 + max(node.a.depth(), node.b.depth())
}
