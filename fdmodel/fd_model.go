// Copyright 2010-2024 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fdmodel offers a user-friendly API to build and solve finite-domain
// constraint models.
//
// The `Builder` struct holds the model under construction and provides helper
// methods for adding constraints and variables to the model. The `IntVar` struct
// is a reference to a specific variable in the model and provides helpful methods
// for interacting with that variable. The `LinearExpr` struct provides helper
// methods for creating constraints and the objective from expressions with many
// variables and coefficients.
//
// A finished model is obtained with `Builder.Model()` and solved with
// `SolveModel` and friends.
package fdmodel

import (
	"errors"
	"fmt"
	"math"
	"sort"

	log "github.com/golang/glog"
)

// ErrMixedModels holds the error when elements added to a model are different.
var ErrMixedModels = errors.New("elements are not part of the same model")

type (
	// VarIndex is the index of a variable in the model.
	VarIndex int32
	// ConstrIndex is the index of a constraint in the model.
	ConstrIndex int32
)

// LinearArgument provides an interface for IntVar and LinearExpr.
type LinearArgument interface {
	addToLinearExpr(e *LinearExpr, c int64)
	evaluateSolutionValue(r *SolverResponse) int64
}

// LinearExpr is a container for a linear expression.
type LinearExpr struct {
	varCoeffs []varCoeff
	offset    int64
}

type varCoeff struct {
	ind   VarIndex
	coeff int64
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant creates and returns a LinearExpr containing the constant `c`.
func NewConstant(c int64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// Add adds the linear argument term to the LinearExpr and returns itself.
func (l *LinearExpr) Add(la LinearArgument) *LinearExpr {
	l.AddTerm(la, 1)
	return l
}

// AddConstant adds the constant to the LinearExpr and returns itself.
func (l *LinearExpr) AddConstant(c int64) *LinearExpr {
	l.offset += c
	return l
}

// AddTerm adds the linear argument term with the given coefficient to the LinearExpr and returns itself.
func (l *LinearExpr) AddTerm(la LinearArgument, coeff int64) *LinearExpr {
	la.addToLinearExpr(l, coeff)
	return l
}

// AddSum adds the sum of the linear arguments to the LinearExpr and returns itself.
func (l *LinearExpr) AddSum(las ...LinearArgument) *LinearExpr {
	for _, la := range las {
		l.Add(la)
	}
	return l
}

// AddWeightedSum adds the linear arguments with the corresponding coefficients to the LinearExpr
// and returns itself.
func (l *LinearExpr) AddWeightedSum(las []LinearArgument, coeffs []int64) *LinearExpr {
	if len(coeffs) != len(las) {
		log.Fatalf("las and coeffs must be the same length: %v != %v", len(las), len(coeffs))
	}
	for i, la := range las {
		l.AddTerm(la, coeffs[i])
	}
	return l
}

func (l *LinearExpr) addToLinearExpr(e *LinearExpr, c int64) {
	for _, vc := range l.varCoeffs {
		e.varCoeffs = append(e.varCoeffs, varCoeff{ind: vc.ind, coeff: vc.coeff * c})
	}
	e.offset += l.offset * c
}

func (l *LinearExpr) evaluateSolutionValue(r *SolverResponse) int64 {
	result := l.offset

	for _, vc := range l.varCoeffs {
		result += r.solution[vc.ind] * vc.coeff
	}

	return result
}

// linearTerms is the canonical form of a linear expression stored in the model:
// variable indices are strictly increasing, coefficients are non-zero.
type linearTerms struct {
	vars   []VarIndex
	coeffs []int64
	offset int64
}

// canonicalTerms folds duplicate variables and drops zero coefficients.
func canonicalTerms(le *LinearExpr) linearTerms {
	merged := make(map[VarIndex]int64, len(le.varCoeffs))
	for _, vc := range le.varCoeffs {
		merged[vc.ind] += vc.coeff
	}
	var inds []VarIndex
	for ind, c := range merged {
		if c != 0 {
			inds = append(inds, ind)
		}
	}
	sort.Slice(inds, func(i, j int) bool { return inds[i] < inds[j] })

	terms := linearTerms{offset: le.offset}
	for _, ind := range inds {
		terms.vars = append(terms.vars, ind)
		terms.coeffs = append(terms.coeffs, merged[ind])
	}
	return terms
}

// IntVar is a reference to an integer variable in the model.
type IntVar struct {
	ind VarIndex
	cpb *Builder
}

// Name returns the name of the variable.
func (i IntVar) Name() string {
	return i.cpb.vars[i.ind].name
}

// Domain returns the domain of the variable.
func (i IntVar) Domain() Domain {
	return i.cpb.vars[i.ind].domain
}

// Index returns the index of the variable.
func (i IntVar) Index() VarIndex {
	return i.ind
}

// WithName sets the name of the variable.
func (i IntVar) WithName(s string) IntVar {
	i.cpb.vars[i.ind].name = s
	return i
}

func (i IntVar) addToLinearExpr(e *LinearExpr, c int64) {
	e.varCoeffs = append(e.varCoeffs, varCoeff{ind: i.ind, coeff: c})
}

func (i IntVar) evaluateSolutionValue(r *SolverResponse) int64 {
	return r.solution[i.ind]
}

// Constraint is a reference to a constraint in the model.
type Constraint struct {
	ind ConstrIndex
	cpb *Builder
}

// WithName sets the name of the constraint.
func (c Constraint) WithName(s string) Constraint {
	c.cpb.constraints[c.ind].name = s
	return c
}

// Name returns the name of the constraint.
func (c Constraint) Name() string {
	return c.cpb.constraints[c.ind].name
}

// Index returns the index of the constraint.
func (c Constraint) Index() ConstrIndex {
	return c.ind
}

type constraintKind int

const (
	constraintLinear constraintKind = iota
	constraintElement
	constraintAllDiff
)

func (k constraintKind) String() string {
	switch k {
	case constraintLinear:
		return "linear"
	case constraintElement:
		return "element"
	case constraintAllDiff:
		return "all_different"
	}
	return "unknown"
}

type intVarData struct {
	name   string
	domain Domain
}

// constraintData is the model-side storage of one constraint. Exactly one of
// the kind-specific fields is set, matching `kind`.
type constraintData struct {
	name    string
	kind    constraintKind
	linear  *linearConstraintData
	element *elementConstraintData
	allDiff *allDiffConstraintData
}

// linearConstraintData enforces that the value of `terms` belongs to `domain`.
// Equality, inequality and domain-membership constraints all lower to this form.
type linearConstraintData struct {
	terms  linearTerms
	domain Domain
}

// elementConstraintData enforces `table[index] == target`, where `index` is an
// affine expression over model variables and `table` is a fixed array.
type elementConstraintData struct {
	index  linearTerms
	table  []int64
	target VarIndex
}

type allDiffConstraintData struct {
	vars []VarIndex
}

type objectiveData struct {
	terms    linearTerms
	maximize bool
}

// checkSameModelAndSetErrorf returns true if `cp` and `cp2` point to the same Builder.
// If false, an error with the formatted message is set on `cp` if `cp.err` is nil.
func (cp *Builder) checkSameModelAndSetErrorf(cp2 *Builder, format string, a ...any) bool {
	if cp == cp2 {
		return true
	}
	var args = make([]any, len(a)+1)
	copy(args, a)
	args[len(a)] = ErrMixedModels
	err := fmt.Errorf(format+": %w", args...)
	log.Errorf("%v; use `-log_backtrace_at` flag to get the error stack", err)
	if cp.err == nil {
		cp.err = err
	}
	return false
}

// Builder provides a wrapper for the finite-domain model under construction.
type Builder struct {
	vars        []intVarData
	constraints []*constraintData
	objective   *objectiveData
	constants   map[int64]VarIndex
	// The first and only the first error is reported in Model.
	err error
}

// NewModelBuilder creates and returns a new model Builder.
func NewModelBuilder() *Builder {
	return &Builder{constants: make(map[int64]VarIndex)}
}

// NewIntVar creates a new integer variable with domain `[lb,ub]`.
func (cp *Builder) NewIntVar(lb, ub int64) IntVar {
	return cp.NewIntVarFromDomain(NewDomain(lb, ub))
}

// NewIntVarFromDomain creates a new IntVar with the given domain.
func (cp *Builder) NewIntVarFromDomain(d Domain) IntVar {
	intVar := IntVar{cpb: cp, ind: VarIndex(len(cp.vars))}
	cp.vars = append(cp.vars, intVarData{domain: d})
	return intVar
}

// NewConstant creates a constant variable. If this is called multiple times, the same variable will
// always be returned.
func (cp *Builder) NewConstant(v int64) IntVar {
	if i, ok := cp.constants[v]; ok {
		return IntVar{cpb: cp, ind: i}
	}

	constVar := cp.NewIntVar(v, v)
	cp.constants[v] = constVar.ind

	return constVar
}

func (cp *Builder) appendConstraint(ct *constraintData) Constraint {
	i := ConstrIndex(len(cp.constraints))
	cp.constraints = append(cp.constraints, ct)

	return Constraint{cpb: cp, ind: i}
}

// addLinearConstraint adds a linear constraint that enforces the value of `le` to be in the
// set of `intervals`. The constant offset of `le` will be subtracted from each interval. See
// `Offset()` for more details. All `intervals` are assumed to be disjoint, non-empty, and
// properly sorted.
func (cp *Builder) addLinearConstraint(le *LinearExpr, intervals ...ClosedInterval) Constraint {
	terms := canonicalTerms(le)
	offset := terms.offset
	terms.offset = 0

	itvs := make([]ClosedInterval, 0, len(intervals))
	for _, i := range intervals {
		itvs = append(itvs, i.Offset(-offset))
	}

	return cp.appendConstraint(&constraintData{
		kind:   constraintLinear,
		linear: &linearConstraintData{terms: terms, domain: FromIntervals(itvs)},
	})
}

// AddLinearConstraintForDomain adds the linear constraint `expr` in `domain`.
func (cp *Builder) AddLinearConstraintForDomain(expr LinearArgument, domain Domain) Constraint {
	linExpr := NewLinearExpr().Add(expr)
	return cp.addLinearConstraint(linExpr, domain.intervals...)
}

// AddLinearConstraint adds the linear constraint `lb <= expr <= ub`.
func (cp *Builder) AddLinearConstraint(expr LinearArgument, lb, ub int64) Constraint {
	linExpr := NewLinearExpr().Add(expr)
	return cp.addLinearConstraint(linExpr, ClosedInterval{lb, ub})
}

// AddEquality adds the linear constraint `lhs == rhs`.
func (cp *Builder) AddEquality(lhs LinearArgument, rhs LinearArgument) Constraint {
	diff := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)

	return cp.addLinearConstraint(diff, ClosedInterval{0, 0})
}

// AddLessOrEqual adds the linear constraint `lhs <= rhs`.
func (cp *Builder) AddLessOrEqual(lhs LinearArgument, rhs LinearArgument) Constraint {
	diff := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)

	return cp.addLinearConstraint(diff, ClosedInterval{math.MinInt64, 0})
}

// AddLessThan adds the linear constraint `lhs < rhs`.
func (cp *Builder) AddLessThan(lhs LinearArgument, rhs LinearArgument) Constraint {
	diff := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)

	return cp.addLinearConstraint(diff, ClosedInterval{math.MinInt64, -1})
}

// AddGreaterOrEqual adds the linear constraint `lhs >= rhs`.
func (cp *Builder) AddGreaterOrEqual(lhs LinearArgument, rhs LinearArgument) Constraint {
	diff := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)

	return cp.addLinearConstraint(diff, ClosedInterval{0, math.MaxInt64})
}

// AddGreaterThan adds the linear constraint `lhs > rhs`.
func (cp *Builder) AddGreaterThan(lhs LinearArgument, rhs LinearArgument) Constraint {
	diff := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)

	return cp.addLinearConstraint(diff, ClosedInterval{1, math.MaxInt64})
}

// AddNotEqual adds the linear constraint `lhs != rhs`.
func (cp *Builder) AddNotEqual(lhs LinearArgument, rhs LinearArgument) Constraint {
	diff := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)

	return cp.addLinearConstraint(diff, ClosedInterval{math.MinInt64, -1}, ClosedInterval{1, math.MaxInt64})
}

// AddElement adds the element constraint: values[index] == target. The index is
// zero-based and may be any affine expression over model variables; assignments
// where the index falls outside `values` are infeasible.
func (cp *Builder) AddElement(index LinearArgument, values []int64, target IntVar) Constraint {
	if len(values) == 0 {
		log.Fatalf("AddElement requires a non-empty table")
	}
	cp.checkSameModelAndSetErrorf(target.cpb, "invalid parameter target %v added to Element constraint %v", target.Index(), len(cp.constraints))

	table := make([]int64, len(values))
	copy(table, values)

	return cp.appendConstraint(&constraintData{
		kind: constraintElement,
		element: &elementConstraintData{
			index:  canonicalTerms(NewLinearExpr().Add(index)),
			table:  table,
			target: target.ind,
		},
	})
}

// AddAllDifferent adds a constraint that forces all variables to have different values.
func (cp *Builder) AddAllDifferent(vars ...IntVar) Constraint {
	inds := make([]VarIndex, len(vars))
	for i, v := range vars {
		cp.checkSameModelAndSetErrorf(v.cpb, "invalid parameter var %v added to AllDifferent constraint %v", v.Index(), len(cp.constraints))
		inds[i] = v.ind
	}

	return cp.appendConstraint(&constraintData{
		kind:    constraintAllDiff,
		allDiff: &allDiffConstraintData{vars: inds},
	})
}

// Minimize adds a linear minimization objective.
func (cp *Builder) Minimize(obj LinearArgument) {
	cp.objective = &objectiveData{terms: canonicalTerms(NewLinearExpr().Add(obj))}
}

// Maximize adds a linear maximization objective.
func (cp *Builder) Maximize(obj LinearArgument) {
	cp.objective = &objectiveData{terms: canonicalTerms(NewLinearExpr().Add(obj)), maximize: true}
}

// Model is an immutable finite-domain model produced by `Builder.Model()`.
type Model struct {
	vars        []intVarData
	constraints []*constraintData
	objective   *objectiveData
}

// Model returns the built model.
//
// Model returns an error when invalid parameters have been used during model
// building (e.g. passing variables from other builders). Only the first such
// error is reported.
func (cp *Builder) Model() (*Model, error) {
	if cp.err != nil {
		return nil, cp.err
	}
	vars := make([]intVarData, len(cp.vars))
	copy(vars, cp.vars)
	constraints := make([]*constraintData, len(cp.constraints))
	copy(constraints, cp.constraints)
	return &Model{vars: vars, constraints: constraints, objective: cp.objective}, nil
}

// VariableCount returns the number of variables in the model.
func (m *Model) VariableCount() int {
	return len(m.vars)
}

// ConstraintCount returns the number of constraints in the model.
func (m *Model) ConstraintCount() int {
	return len(m.constraints)
}

// VariableDomain returns the domain of the variable at `ind`.
func (m *Model) VariableDomain(ind VarIndex) Domain {
	return m.vars[ind].domain
}
