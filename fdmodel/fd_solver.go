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

package fdmodel

import (
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/golang/glog"
)

// SolverStatus is the outcome of a solve.
type SolverStatus int

const (
	// StatusUnknown means the search stopped before the feasibility of the model
	// could be decided.
	StatusUnknown SolverStatus = iota
	// StatusModelInvalid means the model could not be solved as given.
	StatusModelInvalid
	// StatusFeasible means at least one solution was found.
	StatusFeasible
	// StatusInfeasible means the model admits no solution.
	StatusInfeasible
	// StatusOptimal means a solution was found and proven optimal for the
	// model's objective.
	StatusOptimal
)

func (s SolverStatus) String() string {
	switch s {
	case StatusUnknown:
		return "UNKNOWN"
	case StatusModelInvalid:
		return "MODEL_INVALID"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusOptimal:
		return "OPTIMAL"
	}
	return fmt.Sprintf("SolverStatus(%d)", int(s))
}

// SolverResponse holds the outcome of a solve: the final status, the best
// solution found (if any), and search statistics.
type SolverResponse struct {
	status         SolverStatus
	solution       []int64
	objectiveValue int64
	wallTime       time.Duration
	branches       int64
	conflicts      int64
}

// Status returns the final status of the solve.
func (r *SolverResponse) Status() SolverStatus { return r.status }

// ObjectiveValue returns the objective value of the best solution found, or 0
// if the model has no objective or no solution was found.
func (r *SolverResponse) ObjectiveValue() int64 { return r.objectiveValue }

// WallTime returns the elapsed wall-clock time of the solve.
func (r *SolverResponse) WallTime() time.Duration { return r.wallTime }

// NumBranches returns the number of branching decisions explored.
func (r *SolverResponse) NumBranches() int64 { return r.branches }

// NumConflicts returns the number of failed branches.
func (r *SolverResponse) NumConflicts() int64 { return r.conflicts }

// SolutionIntegerValue returns the value of LinearArgument `la` in the response.
// It returns 0 if the response holds no solution.
func SolutionIntegerValue(r *SolverResponse, la LinearArgument) int64 {
	if r == nil || r.solution == nil {
		return 0
	}
	return la.evaluateSolutionValue(r)
}

// SolveParameters configures a solve.
type SolveParameters struct {
	// TimeLimit bounds the wall-clock time of the search. Zero means no limit.
	TimeLimit time.Duration
	// LogSearchProgress enables search logging via glog.
	LogSearchProgress bool
	// EachSolution, if set, is invoked for every solution found and the search
	// continues enumerating instead of stopping at the first solution. With an
	// objective, it is invoked for every improving solution.
	EachSolution func(*SolverResponse)
	// SolutionLimit stops the search after this many solutions have been found.
	// Zero means no limit.
	SolutionLimit int
}

// SolveModel solves the given model and returns a SolverResponse.
// Infeasibility is reported through the response status, never as an error.
func SolveModel(m *Model) (*SolverResponse, error) {
	return SolveModelWithParameters(m, nil)
}

// SolveModelWithParameters solves the given model with the given parameters and
// returns a SolverResponse.
func SolveModelWithParameters(m *Model, params *SolveParameters) (*SolverResponse, error) {
	return SolveModelInterruptible(m, params, nil)
}

// SolveModelInterruptible solves the given model. The search can be stopped at
// any time by closing the `interrupt` channel; the response then carries the
// best solution found so far, with status FEASIBLE or UNKNOWN.
func SolveModelInterruptible(m *Model, params *SolveParameters, interrupt <-chan struct{}) (*SolverResponse, error) {
	if m == nil {
		return nil, errors.New("model must not be nil")
	}
	start := time.Now()

	s := &searcher{model: m, interrupt: interrupt}
	if params != nil {
		s.params = *params
	}
	if s.params.TimeLimit > 0 {
		s.deadline = start.Add(s.params.TimeLimit)
	}
	if s.params.LogSearchProgress {
		log.Infof("starting search: %d variables, %d constraints", m.VariableCount(), m.ConstraintCount())
	}

	domains := make([]Domain, len(m.vars))
	rootEmpty := false
	for i, v := range m.vars {
		domains[i] = v.domain
		if v.domain.IsEmpty() {
			rootEmpty = true
		}
	}

	res := &SolverResponse{status: StatusUnknown}
	if rootEmpty || s.propagate(domains) != nil {
		res.status = StatusInfeasible
	} else {
		err := s.search(domains)
		switch {
		case err == nil:
			// Search space exhausted.
			if !s.hasSolution {
				res.status = StatusInfeasible
			} else if m.objective != nil {
				res.status = StatusOptimal
			} else {
				res.status = StatusFeasible
			}
		case errors.Is(err, errStopSearch):
			res.status = StatusFeasible
		case errors.Is(err, errInterrupted):
			if s.hasSolution {
				res.status = StatusFeasible
			} else {
				res.status = StatusUnknown
			}
		}
	}

	res.solution = s.best
	res.objectiveValue = s.bestObj
	res.branches = s.branches
	res.conflicts = s.conflicts
	res.wallTime = time.Since(start)

	if s.params.LogSearchProgress {
		log.Infof("search finished: status=%v solutions=%d branches=%d conflicts=%d time=%v",
			res.status, s.solutionCount, res.branches, res.conflicts, res.wallTime)
	}

	return res, nil
}

var (
	// errInconsistent signals that propagation emptied a domain. It never
	// escapes the solver: an inconsistent branch is a normal search event.
	errInconsistent = errors.New("inconsistent")
	errStopSearch   = errors.New("stop search")
	errInterrupted  = errors.New("interrupted")
)

const (
	// maxPropagationIterations caps the fixed-point loop as a safety net.
	maxPropagationIterations = 1000
	// valueEnumerationLimit bounds exact value filtering on a single variable.
	valueEnumerationLimit = 1 << 12
	// elementSupportLimit bounds full support enumeration in the element
	// propagator; above it only bounds reasoning is applied.
	elementSupportLimit = 1 << 20
)

type searcher struct {
	model     *Model
	params    SolveParameters
	interrupt <-chan struct{}
	deadline  time.Time

	branches      int64
	conflicts     int64
	solutionCount int

	hasSolution bool
	best        []int64
	bestObj     int64
	// objBound, when set, restricts the objective value to improve on the
	// incumbent (branch and bound).
	objBound *Domain
}

func (s *searcher) stopRequested() bool {
	if s.interrupt != nil {
		select {
		case <-s.interrupt:
			return true
		default:
		}
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		return true
	}
	return false
}

// propagate runs all constraint propagators to a fixed point, narrowing
// `domains` in place. Returns errInconsistent if any domain empties.
func (s *searcher) propagate(domains []Domain) error {
	for iter := 0; iter < maxPropagationIterations; iter++ {
		changed := false
		for _, ct := range s.model.constraints {
			var c bool
			var err error
			switch ct.kind {
			case constraintLinear:
				c, err = propagateLinear(domains, ct.linear.terms, ct.linear.domain)
			case constraintElement:
				c, err = propagateElement(domains, ct.element)
			case constraintAllDiff:
				c, err = propagateAllDiff(domains, ct.allDiff)
			}
			if err != nil {
				return err
			}
			if c {
				changed = true
			}
		}
		if s.objBound != nil {
			c, err := propagateLinear(domains, s.model.objective.terms, *s.objBound)
			if err != nil {
				return err
			}
			if c {
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
	return errInconsistent
}

// search performs depth-first labeling with smallest-domain-first variable
// selection and ascending value order. Variable and value orders are fully
// deterministic for a given model.
func (s *searcher) search(domains []Domain) error {
	if s.stopRequested() {
		return errInterrupted
	}

	branchVar := -1
	var branchSize int64
	for i := range domains {
		sz := domains[i].Size()
		if sz > 1 && (branchVar == -1 || sz < branchSize) {
			branchVar = i
			branchSize = sz
		}
	}
	if branchVar == -1 {
		return s.recordSolution(domains)
	}

	for _, val := range domains[branchVar].Values() {
		if s.stopRequested() {
			return errInterrupted
		}
		s.branches++

		child := make([]Domain, len(domains))
		copy(child, domains)
		child[branchVar] = NewSingleDomain(val)

		if err := s.propagate(child); err != nil {
			s.conflicts++
			continue
		}
		if err := s.search(child); err != nil {
			return err
		}
	}
	return nil
}

func (s *searcher) recordSolution(domains []Domain) error {
	sol := make([]int64, len(domains))
	for i := range domains {
		v, ok := domains[i].FixedValue()
		if !ok {
			return errInconsistent
		}
		sol[i] = v
	}
	s.solutionCount++
	s.hasSolution = true
	s.best = sol

	if obj := s.model.objective; obj != nil {
		objVal := evaluateTerms(obj.terms, sol)
		s.bestObj = objVal
		if s.params.LogSearchProgress {
			log.Infof("solution %d: objective=%d", s.solutionCount, objVal)
		}
		if s.params.EachSolution != nil {
			s.params.EachSolution(&SolverResponse{status: StatusFeasible, solution: sol, objectiveValue: objVal})
		}
		var bound Domain
		if obj.maximize {
			bound = NewDomain(checkOverflowAndAdd(objVal, 1), math.MaxInt64)
		} else {
			bound = NewDomain(math.MinInt64, checkOverflowAndAdd(objVal, -1))
		}
		s.objBound = &bound
		if s.params.SolutionLimit > 0 && s.solutionCount >= s.params.SolutionLimit {
			return errStopSearch
		}
		return nil
	}

	if s.params.EachSolution != nil {
		s.params.EachSolution(&SolverResponse{status: StatusFeasible, solution: sol})
		if s.params.SolutionLimit > 0 && s.solutionCount >= s.params.SolutionLimit {
			return errStopSearch
		}
		return nil
	}
	// A single solution suffices without an objective or enumeration callback.
	return errStopSearch
}

func evaluateTerms(terms linearTerms, sol []int64) int64 {
	result := terms.offset
	for k, v := range terms.vars {
		result += terms.coeffs[k] * sol[v]
	}
	return result
}

// propagateLinear enforces `terms value ∈ d` with bounds consistency, plus
// exact value filtering when a single variable remains unfixed.
func propagateLinear(domains []Domain, terms linearTerms, d Domain) (bool, error) {
	n := len(terms.vars)
	sumLo, sumHi := terms.offset, terms.offset
	los := make([]int64, n)
	his := make([]int64, n)
	numUnfixed := 0
	unfixed := -1
	for k, v := range terms.vars {
		dom := domains[v]
		if dom.IsEmpty() {
			return false, errInconsistent
		}
		if !dom.IsFixed() {
			numUnfixed++
			unfixed = k
		}
		lo, _ := dom.Min()
		hi, _ := dom.Max()
		a := satMul(terms.coeffs[k], lo)
		b := satMul(terms.coeffs[k], hi)
		if a > b {
			a, b = b, a
		}
		los[k], his[k] = a, b
		sumLo = checkOverflowAndAdd(sumLo, a)
		sumHi = checkOverflowAndAdd(sumHi, b)
	}

	feasible := d.IntersectionWith(NewDomain(sumLo, sumHi))
	if feasible.IsEmpty() {
		return false, errInconsistent
	}
	if numUnfixed == 0 {
		// Bounds reasoning is not enough with holes in `d`.
		if !d.Contains(sumLo) {
			return false, errInconsistent
		}
		return false, nil
	}
	eMin, _ := feasible.Min()
	eMax, _ := feasible.Max()

	changed := false
	for k, v := range terms.vars {
		c := terms.coeffs[k]
		othersLo := satSub(sumLo, los[k])
		othersHi := satSub(sumHi, his[k])
		// c*v must lie in [a,b].
		a := satSub(eMin, othersHi)
		b := satSub(eMax, othersLo)

		var vLo, vHi int64
		if c > 0 {
			vLo, vHi = math.MinInt64, math.MaxInt64
			if a != math.MinInt64 {
				vLo = ceilDiv(a, c)
			}
			if b != math.MaxInt64 {
				vHi = floorDiv(b, c)
			}
		} else {
			vLo, vHi = math.MinInt64, math.MaxInt64
			if b != math.MaxInt64 {
				vLo = ceilDiv(b, c)
			}
			if a != math.MinInt64 {
				vHi = floorDiv(a, c)
			}
		}

		nd := domains[v].IntersectionWith(NewDomain(vLo, vHi))
		if nd.IsEmpty() {
			return changed, errInconsistent
		}
		if !nd.Equal(domains[v]) {
			domains[v] = nd
			changed = true
		}
	}

	if numUnfixed == 1 {
		v := terms.vars[unfixed]
		if domains[v].Size() <= valueEnumerationLimit {
			c := terms.coeffs[unfixed]
			fixedSum := terms.offset
			for k, w := range terms.vars {
				if k == unfixed {
					continue
				}
				val, _ := domains[w].FixedValue()
				fixedSum += terms.coeffs[k] * val
			}
			var allowed []int64
			for _, val := range domains[v].Values() {
				if d.Contains(fixedSum + c*val) {
					allowed = append(allowed, val)
				}
			}
			nd := FromValues(allowed)
			if nd.IsEmpty() {
				return changed, errInconsistent
			}
			if !nd.Equal(domains[v]) {
				domains[v] = nd
				changed = true
			}
		}
	}

	return changed, nil
}

// propagateElement enforces `table[index] == target` with arc consistency: a
// value survives only if it takes part in at least one supported assignment of
// the index expression. Falls back to bounds reasoning when the cross product
// of the index variable domains is too large.
func propagateElement(domains []Domain, ec *elementConstraintData) (bool, error) {
	tDom := domains[ec.target]
	if tDom.IsEmpty() {
		return false, errInconsistent
	}

	vars := ec.index.vars
	targetPos := -1
	productSize := int64(1)
	valsPerVar := make([][]int64, len(vars))
	for i, v := range vars {
		if domains[v].IsEmpty() {
			return false, errInconsistent
		}
		if v == ec.target {
			targetPos = i
		}
		productSize = satMul(productSize, domains[v].Size())
	}

	if productSize > elementSupportLimit {
		// Light pass: clamp the index expression into the table and the target
		// into the table's value set.
		changed, err := propagateLinear(domains, ec.index, NewDomain(0, int64(len(ec.table))-1))
		if err != nil {
			return changed, err
		}
		tDom = domains[ec.target]
		nd := tDom.IntersectionWith(FromValues(ec.table))
		if nd.IsEmpty() {
			return changed, errInconsistent
		}
		if !nd.Equal(tDom) {
			domains[ec.target] = nd
			changed = true
		}
		return changed, nil
	}

	for i, v := range vars {
		valsPerVar[i] = domains[v].Values()
	}

	supported := make([]map[int64]bool, len(vars))
	for i := range supported {
		supported[i] = make(map[int64]bool)
	}
	supportedTarget := make(map[int64]bool)

	assignment := make([]int64, len(vars))
	var enumerate func(k int, idx int64)
	enumerate = func(k int, idx int64) {
		if k == len(vars) {
			if idx < 0 || idx >= int64(len(ec.table)) {
				return
			}
			val := ec.table[idx]
			if targetPos >= 0 {
				if val != assignment[targetPos] {
					return
				}
			} else if !tDom.Contains(val) {
				return
			}
			for i := range vars {
				supported[i][assignment[i]] = true
			}
			supportedTarget[val] = true
			return
		}
		for _, val := range valsPerVar[k] {
			assignment[k] = val
			enumerate(k+1, idx+ec.index.coeffs[k]*val)
		}
	}
	enumerate(0, ec.index.offset)

	changed := false
	for i, v := range vars {
		nd := fromValueSet(supported[i])
		if nd.IsEmpty() {
			return changed, errInconsistent
		}
		if !nd.Equal(domains[v]) {
			domains[v] = nd
			changed = true
		}
	}
	if targetPos == -1 {
		nd := fromValueSet(supportedTarget)
		if nd.IsEmpty() {
			return changed, errInconsistent
		}
		if !nd.Equal(tDom) {
			domains[ec.target] = nd
			changed = true
		}
	}
	return changed, nil
}

// propagateAllDiff applies forward checking: values of fixed variables are
// removed from the domains of all other variables.
func propagateAllDiff(domains []Domain, ad *allDiffConstraintData) (bool, error) {
	var fixedValues []int64
	seen := make(map[int64]bool)
	for _, v := range ad.vars {
		if domains[v].IsEmpty() {
			return false, errInconsistent
		}
		if val, ok := domains[v].FixedValue(); ok {
			if seen[val] {
				return false, errInconsistent
			}
			seen[val] = true
			fixedValues = append(fixedValues, val)
		}
	}
	if len(fixedValues) == 0 {
		return false, nil
	}

	forbidden := FromValues(fixedValues)
	changed := false
	for _, v := range ad.vars {
		if domains[v].IsFixed() {
			continue
		}
		nd := domains[v].IntersectionWith(forbidden.Complement())
		if nd.IsEmpty() {
			return changed, errInconsistent
		}
		if !nd.Equal(domains[v]) {
			domains[v] = nd
			changed = true
		}
	}
	return changed, nil
}

func fromValueSet(set map[int64]bool) Domain {
	values := make([]int64, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	return FromValues(values)
}

func satMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	p := a * b
	if a != math.MinInt64 && b != math.MinInt64 && p/b == a {
		return p
	}
	if (a > 0) == (b > 0) {
		return math.MaxInt64
	}
	return math.MinInt64
}

func satSub(a, b int64) int64 {
	if b == math.MinInt64 {
		if a >= 0 {
			return math.MaxInt64
		}
		return a - b
	}
	return checkOverflowAndAdd(a, -b)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}
