// Package solver holds the solver capability used by every task: a
// Model of typed decision variables and boolean/linear constraints,
// and two Engines that can solve it.
//
// SATEngine compiles the model into a gini circuit. It handles boolean
// variables, bounded integers (binary encoded) and linear constraints
// with integral coefficients through adder circuits.
//
// MIPEngine linearizes the constraint formulas and runs branch and bound
// over a dense two-phase simplex. It handles continuous variables and is
// the engine of choice for flow and routing models.
package solver
