package surgsim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// CollisionPair holds two collision representations and the contacts
// found between them during one step.
type CollisionPair struct {
	first, second CollisionRepresentation
	contacts      []*Contact
	swapped       bool
}

// NewCollisionPair panics when first and second are the same representation.
func NewCollisionPair(first, second CollisionRepresentation) *CollisionPair {
	if first == nil || second == nil {
		panic("surgsim: collision pair with a nil representation")
	}
	if first == second {
		panic(fmt.Sprintf("surgsim: collision pair of %s with itself", first.Name()))
	}
	return &CollisionPair{first: first, second: second}
}

func (p *CollisionPair) First() CollisionRepresentation { return p.first }

func (p *CollisionPair) Second() CollisionRepresentation { return p.second }

func (p *CollisionPair) Representations() (CollisionRepresentation, CollisionRepresentation) {
	return p.first, p.second
}

func (p *CollisionPair) ShapeTypes() (ShapeType, ShapeType) {
	return p.first.ShapeType(), p.second.ShapeType()
}

// Swap exchanges first and second. The contact normals would flip, so it
// panics once contacts were added.
func (p *CollisionPair) Swap() {
	if len(p.contacts) > 0 {
		panic(fmt.Sprintf("surgsim: swapping pair %s/%s with contacts", p.first.Name(), p.second.Name()))
	}
	p.first, p.second = p.second, p.first
	p.swapped = !p.swapped
}

// IsSwapped reports whether the pair is in the reverse of its creation order.
func (p *CollisionPair) IsSwapped() bool { return p.swapped }

// AddContact records a contact between the two shapes; the points are given
// first shape first.
func (p *CollisionPair) AddContact(depth float64, normal mgl64.Vec3, points [2]Location) {
	p.contacts = append(p.contacts, &Contact{Depth: depth, Normal: normal, PenetrationPoints: points})
}

func (p *CollisionPair) HasContacts() bool { return len(p.contacts) > 0 }

func (p *CollisionPair) Contacts() []*Contact { return p.contacts }

func (p *CollisionPair) ClearContacts() { p.contacts = p.contacts[:0] }

func (p *CollisionPair) String() string {
	return fmt.Sprintf("{%s, %s, %d contacts}", p.first.Name(), p.second.Name(), len(p.contacts))
}
