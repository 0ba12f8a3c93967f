package surgsim

import (
	"fmt"
	"log/slog"

	"github.com/setanarut/surgsim/mlcp"
)

// ConstraintImplementationFactory finds the implementation of a constraint
// type for a representation type.
type ConstraintImplementationFactory struct {
	Logger          *slog.Logger
	implementations [RepresentationTypeCount][mlcp.NumConstraintTypes]ConstraintImplementation
}

func NewConstraintImplementationFactory() *ConstraintImplementationFactory {
	return &ConstraintImplementationFactory{Logger: slog.Default()}
}

// NewDefaultConstraintImplementationFactory returns a factory holding every
// implementation the representations support.
func NewDefaultConstraintImplementationFactory() *ConstraintImplementationFactory {
	f := NewConstraintImplementationFactory()
	for rt, types := range supportedConstraints {
		for _, ct := range types {
			f.AddImplementation(NewPointConstraintImplementation(RepresentationType(rt), ct))
		}
	}
	return f
}

// AddImplementation registers impl, replacing the previous one for the same types.
func (f *ConstraintImplementationFactory) AddImplementation(impl ConstraintImplementation) {
	rt, ct := impl.RepresentationType(), impl.ConstraintType()
	checkImplementationTypes(rt, ct)
	f.implementations[rt][ct] = impl
}

// Implementation returns nil, with a warning, when no implementation is
// registered. It panics on out of range types.
func (f *ConstraintImplementationFactory) Implementation(rt RepresentationType, ct mlcp.ConstraintType) ConstraintImplementation {
	checkImplementationTypes(rt, ct)
	impl := f.implementations[rt][ct]
	if impl == nil {
		f.Logger.Warn("no constraint implementation", "representation", rt, "constraint", ct)
	}
	return impl
}

func checkImplementationTypes(rt RepresentationType, ct mlcp.ConstraintType) {
	if !rt.IsValid() {
		panic(fmt.Sprintf("surgsim: invalid representation type %d", int(rt)))
	}
	if !ct.IsValid() {
		panic(fmt.Sprintf("surgsim: invalid constraint type %d", int(ct)))
	}
}
