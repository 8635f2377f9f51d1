package cvrp

import "errors"

var (
	// ErrInfeasible means no set of patterns covers every client exactly once.
	ErrInfeasible = errors.New("cvrp: infeasible")
	// ErrSolverTimeout means the solver stopped on its time limit before it
	// could certify a result.
	ErrSolverTimeout        = errors.New("cvrp: solver time limit reached")
	ErrInvalidInstance      = errors.New("cvrp: invalid instance")
	ErrInvalidPattern       = errors.New("cvrp: invalid pattern")
	ErrUnrestrictedRecovery = errors.New("cvrp: integer recovery outside the generated pool is not supported")
)
