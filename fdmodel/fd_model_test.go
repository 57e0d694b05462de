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
	"testing"

	"github.com/google/go-cmp/cmp"

	log "github.com/golang/glog"
)

func Example() {
	model := NewModelBuilder()

	x := model.NewIntVar(1, 3)
	y := model.NewIntVar(1, 3)

	model.AddLessOrEqual(x, NewConstant(2))

	obj := NewLinearExpr().Add(x).AddTerm(y, 5)
	model.Maximize(obj)

	m, err := model.Model()
	if err != nil {
		log.Fatalf("Building model returned with error %v", err)
	}

	res, err := SolveModel(m)
	if err != nil {
		log.Fatalf("Solver returned with unexpected err %v", err)
	}
	if res.Status() != StatusFeasible && res.Status() != StatusOptimal {
		log.Fatalf("Solver returned with status %v", res.Status())
	}

	fmt.Println("Objective:", res.ObjectiveValue())
	fmt.Println("x:", SolutionIntegerValue(res, x))
	fmt.Println("y:", SolutionIntegerValue(res, y))
	// Output:
	// Objective: 17
	// x: 2
	// y: 3
}

func TestVar_Name(t *testing.T) {
	model := NewModelBuilder()

	iv := model.NewIntVar(0, 10).WithName("iv1")
	if got := iv.Name(); got != "iv1" {
		t.Errorf("Name() = %q, want %q", got, "iv1")
	}
}

func TestVar_Domain(t *testing.T) {
	model := NewModelBuilder()
	testCases := []struct {
		name   string
		intVar IntVar
		want   Domain
	}{
		{
			name:   "DomainWithSingleInterval",
			intVar: model.NewIntVar(-10, 10),
			want:   NewDomain(-10, 10),
		},
		{
			name:   "DomainWithMultipleIntervals",
			intVar: model.NewIntVarFromDomain(FromValues([]int64{1, 2, 3, 7, 8})),
			want:   FromValues([]int64{1, 2, 3, 7, 8}),
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got := test.intVar.Domain()
			if diff := cmp.Diff(test.want, got, cmp.AllowUnexported(Domain{}, ClosedInterval{})); diff != "" {
				t.Errorf("Domain() returned with unexpected diff (-want+got):\n%s", diff)
			}
		})
	}
}

func TestVar_Index(t *testing.T) {
	model := NewModelBuilder()

	x := model.NewIntVar(0, 1)
	y := model.NewIntVar(0, 1)

	if got, want := x.Index(), VarIndex(0); got != want {
		t.Errorf("Index() = %v, want %v", got, want)
	}
	if got, want := y.Index(), VarIndex(1); got != want {
		t.Errorf("Index() = %v, want %v", got, want)
	}
}

func TestBuilder_NewConstant(t *testing.T) {
	model := NewModelBuilder()

	c1 := model.NewConstant(10)
	c2 := model.NewConstant(10)
	c3 := model.NewConstant(11)

	if c1.Index() != c2.Index() {
		t.Errorf("NewConstant(10) returned different variables %v and %v", c1.Index(), c2.Index())
	}
	if c1.Index() == c3.Index() {
		t.Errorf("NewConstant(10) and NewConstant(11) returned the same variable %v", c1.Index())
	}
	if diff := cmp.Diff(NewSingleDomain(10), c1.Domain(), cmp.AllowUnexported(Domain{}, ClosedInterval{})); diff != "" {
		t.Errorf("NewConstant(10).Domain() returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestBuilder_ModelCounts(t *testing.T) {
	model := NewModelBuilder()

	x := model.NewIntVar(0, 5)
	y := model.NewIntVar(0, 5)
	model.AddEquality(x, y)
	model.AddNotEqual(x, NewConstant(3))

	m, err := model.Model()
	if err != nil {
		t.Fatalf("Model() returned with unexpected error %v", err)
	}
	if got, want := m.VariableCount(), 2; got != want {
		t.Errorf("VariableCount() = %v, want %v", got, want)
	}
	if got, want := m.ConstraintCount(), 2; got != want {
		t.Errorf("ConstraintCount() = %v, want %v", got, want)
	}
}

func TestBuilder_LinearConstraintLowering(t *testing.T) {
	model := NewModelBuilder()
	x := model.NewIntVar(0, 10)

	testCases := []struct {
		name       string
		constraint Constraint
		wantTerms  linearTerms
		wantDomain Domain
	}{
		{
			name:       "Equality",
			constraint: model.AddEquality(x, NewConstant(3)),
			wantTerms:  linearTerms{vars: []VarIndex{x.Index()}, coeffs: []int64{1}},
			wantDomain: NewSingleDomain(3),
		},
		{
			name:       "LinearConstraint",
			constraint: model.AddLinearConstraint(x, 2, 6),
			wantTerms:  linearTerms{vars: []VarIndex{x.Index()}, coeffs: []int64{1}},
			wantDomain: NewDomain(2, 6),
		},
		{
			name:       "MergedDuplicateTerms",
			constraint: model.AddEquality(NewLinearExpr().Add(x).Add(x), NewConstant(4)),
			wantTerms:  linearTerms{vars: []VarIndex{x.Index()}, coeffs: []int64{2}},
			wantDomain: NewSingleDomain(4),
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			ct := model.constraints[test.constraint.Index()]
			if ct.kind != constraintLinear {
				t.Fatalf("constraint kind = %v, want %v", ct.kind, constraintLinear)
			}
			if diff := cmp.Diff(test.wantTerms, ct.linear.terms, cmp.AllowUnexported(linearTerms{})); diff != "" {
				t.Errorf("constraint terms returned with unexpected diff (-want+got):\n%s", diff)
			}
			if diff := cmp.Diff(test.wantDomain, ct.linear.domain, cmp.AllowUnexported(Domain{}, ClosedInterval{})); diff != "" {
				t.Errorf("constraint domain returned with unexpected diff (-want+got):\n%s", diff)
			}
		})
	}
}

func TestBuilder_AddElement(t *testing.T) {
	model := NewModelBuilder()
	idx := model.NewIntVar(0, 2)
	target := model.NewIntVar(0, 10)

	c := model.AddElement(idx, []int64{4, 5, 6}, target)

	ct := model.constraints[c.Index()]
	if ct.kind != constraintElement {
		t.Fatalf("constraint kind = %v, want %v", ct.kind, constraintElement)
	}
	if diff := cmp.Diff([]int64{4, 5, 6}, ct.element.table); diff != "" {
		t.Errorf("element table returned with unexpected diff (-want+got):\n%s", diff)
	}
	if got, want := ct.element.target, target.Index(); got != want {
		t.Errorf("element target = %v, want %v", got, want)
	}
}

func TestBuilder_MixedModels(t *testing.T) {
	model1 := NewModelBuilder()
	model2 := NewModelBuilder()

	x := model1.NewIntVar(0, 5)
	y := model2.NewIntVar(0, 5)
	model1.AddAllDifferent(x, y)

	if _, err := model1.Model(); !errors.Is(err, ErrMixedModels) {
		t.Errorf("Model() returned error %v, want ErrMixedModels", err)
	}
}

func TestConstraint_WithName(t *testing.T) {
	model := NewModelBuilder()
	x := model.NewIntVar(0, 5)

	c := model.AddLinearConstraint(x, 1, 4).WithName("bounds")
	if got := c.Name(); got != "bounds" {
		t.Errorf("Name() = %q, want %q", got, "bounds")
	}
}

func TestLinearExpr_Evaluate(t *testing.T) {
	model := NewModelBuilder()
	x := model.NewIntVar(0, 5)
	y := model.NewIntVar(0, 5)

	r := &SolverResponse{solution: []int64{2, 3}}

	testCases := []struct {
		name string
		expr *LinearExpr
		want int64
	}{
		{
			name: "Constant",
			expr: NewConstant(7),
			want: 7,
		},
		{
			name: "WeightedSum",
			expr: NewLinearExpr().AddWeightedSum([]LinearArgument{x, y}, []int64{2, -1}),
			want: 1,
		},
		{
			name: "SumWithConstant",
			expr: NewLinearExpr().AddSum(x, y).AddConstant(10),
			want: 15,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if got := SolutionIntegerValue(r, test.expr); got != test.want {
				t.Errorf("SolutionIntegerValue() = %v, want %v", got, test.want)
			}
		})
	}
}
