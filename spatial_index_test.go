package surgsim_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type indexedPair struct{ a, b string }

func collectPairs(index surgsim.SpatialIndex) []indexedPair {
	var pairs []indexedPair
	index.Intersections(func(a, b surgsim.CollisionRepresentation) {
		pairs = append(pairs, indexedPair{a.Name(), b.Name()})
	})
	return pairs
}

func randomSpheres(rng *rand.Rand, n int) []*surgsim.ShapeCollisionRepresentation {
	reps := make([]*surgsim.ShapeCollisionRepresentation, n)
	for i := range reps {
		center := mgl64.Vec3{rng.Float64() * 10, rng.Float64() * 10, rng.Float64() * 10}
		reps[i] = shapeAt(fmt.Sprintf("sphere%03d", i), surgsim.NewSphereShape(0.2+rng.Float64()), at(center[0], center[1], center[2]))
	}
	return reps
}

func TestSpatialIndexesAgree(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	reps := randomSpheres(rng, 60)

	tree := surgsim.NewSpatialIndex(surgsim.BroadPhaseTree)
	brute := surgsim.NewSpatialIndex(surgsim.BroadPhaseBruteForce)
	for _, rep := range reps {
		bb := rep.Shape().AABB(rep.Pose())
		tree.Insert(rep, bb)
		brute.Insert(rep, bb)
	}
	assert.Equal(t, len(reps), tree.Count())
	require.NotEmpty(t, collectPairs(brute))
	assert.Equal(t, collectPairs(brute), collectPairs(tree))

	// move half of them and drop a few
	for i, rep := range reps {
		switch {
		case i%7 == 0:
			tree.Remove(rep)
			brute.Remove(rep)
		case i%2 == 0:
			pose := at(rng.Float64()*10, rng.Float64()*10, rng.Float64()*10)
			rep.SetLocalPose(pose)
			bb := rep.Shape().AABB(pose)
			tree.Update(rep, bb)
			brute.Update(rep, bb)
		}
	}
	assert.Equal(t, brute.Count(), tree.Count())
	assert.False(t, tree.Contains(reps[0]))
	assert.True(t, tree.Contains(reps[1]))
	assert.Equal(t, collectPairs(brute), collectPairs(tree))

	query := surgsim.NewAABB(mgl64.Vec3{2, 2, 2}, mgl64.Vec3{5, 5, 5})
	var fromTree, fromBrute []string
	tree.Query(query, func(obj surgsim.CollisionRepresentation) { fromTree = append(fromTree, obj.Name()) })
	brute.Query(query, func(obj surgsim.CollisionRepresentation) { fromBrute = append(fromBrute, obj.Name()) })
	assert.Equal(t, fromBrute, fromTree)
}

func TestSpatialIndexInsertionOrder(t *testing.T) {
	for _, kind := range []string{surgsim.BroadPhaseTree, surgsim.BroadPhaseBruteForce} {
		t.Run(kind, func(t *testing.T) {
			index := surgsim.NewSpatialIndex(kind)
			for i, name := range []string{"c", "b", "a"} {
				rep := shapeAt(name, surgsim.NewSphereShape(1), at(float64(i)*0.5, 0, 0))
				index.Insert(rep, rep.Shape().AABB(rep.Pose()))
			}
			assert.Equal(t, []indexedPair{{"c", "b"}, {"c", "a"}, {"b", "a"}}, collectPairs(index))

			var found []string
			index.Query(surgsim.NewAABB(mgl64.Vec3{-2, -2, -2}, mgl64.Vec3{2, 2, 2}), func(obj surgsim.CollisionRepresentation) {
				found = append(found, obj.Name())
			})
			assert.Equal(t, []string{"c", "b", "a"}, found)
		})
	}
}

func TestSpatialIndexInsertTwice(t *testing.T) {
	rep := shapeAt("sphere", surgsim.NewSphereShape(1), at(0, 0, 0))
	for _, kind := range []string{surgsim.BroadPhaseTree, surgsim.BroadPhaseBruteForce} {
		index := surgsim.NewSpatialIndex(kind)
		index.Insert(rep, rep.Shape().AABB(rep.Pose()))
		assert.Panics(t, func() { index.Insert(rep, rep.Shape().AABB(rep.Pose())) }, kind)
	}
	assert.Panics(t, func() { surgsim.NewSpatialIndex("grid") })
}

func TestAABBTreeDisjointObjects(t *testing.T) {
	tree := surgsim.NewAABBTree()
	for i := range 256 {
		x := float64(i)
		rep := shapeAt(fmt.Sprint(i), surgsim.NewSphereShape(0.4), at(x, 0, 0))
		tree.Insert(rep, rep.Shape().AABB(rep.Pose()))
	}
	assert.Len(t, collectPairs(tree), 0)
	assert.Equal(t, 256, tree.Count())
	assert.Greater(t, tree.Depth(), 1)
}
