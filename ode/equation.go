package ode

import "gonum.org/v1/gonum/mat"

// Equation is a second order ode M·a = F(x, v) linearized around a state with
// damping D = -dF/dv and stiffness K = -dF/dx.
type Equation interface {
	// InitialState is the state the equation starts from.
	InitialState() *State

	ComputeF(state *State) []float64
	ComputeM(state *State) *mat.Dense
	ComputeD(state *State) *mat.Dense
	ComputeK(state *State) *mat.Dense

	// ComputeFMDK evaluates all four terms in one pass.
	ComputeFMDK(state *State) (f []float64, m, d, k *mat.Dense)
}
