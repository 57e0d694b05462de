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

package regular

import (
	"errors"
	"fmt"

	"github.com/fdtools/fdcp/fdmodel"
)

// Add constrains `seq`, read as a word of symbols in 1..AlphabetSize, to be
// accepted by `aut`.
//
// It unrolls the automaton over the sequence: len(seq)+1 fresh state variables
// are created in `cp`, each with domain {0..NumStates}, where state 0 is the
// absorbing reject state. The first state variable is fixed to the initial
// state, the last is constrained to an accepting state, and each consecutive
// pair is tied by one table-lookup constraint
//
//	state[i+1] == table[state[i]*S + seq[i] - 1]
//
// over the transition table extended with an explicit reject row. The state
// variables are returned so the accepting path can be read back after solving.
//
// The automaton is validated before anything is added to `cp`; on a validation
// error (wrapping ErrConfiguration) the model is left untouched. An automaton
// and sequence that admit no accepting word are not an error here: the solver
// reports that model as infeasible.
func Add(cp *fdmodel.Builder, seq []fdmodel.IntVar, aut *Automaton) ([]fdmodel.IntVar, error) {
	if cp == nil {
		return nil, errors.New("model builder must not be nil")
	}
	if aut == nil {
		return nil, fmt.Errorf("%w: automaton must not be nil", ErrConfiguration)
	}
	if err := aut.Validate(); err != nil {
		return nil, err
	}

	n := len(seq)
	states := make([]fdmodel.IntVar, n+1)
	for i := range states {
		states[i] = cp.NewIntVar(0, aut.NumStates).WithName(fmt.Sprintf("state[%d]", i))
	}

	cp.AddEquality(states[0], fdmodel.NewConstant(aut.InitialState))
	cp.AddLinearConstraintForDomain(states[n], fdmodel.FromValues(aut.AcceptingStates))

	symbols := fdmodel.NewDomain(1, aut.AlphabetSize)
	table := aut.extendedTable()
	for i := 0; i < n; i++ {
		// The flat lookup index is only meaningful for symbols in 1..S; restrict
		// the symbol variable unless its domain already guarantees it.
		if !seq[i].Domain().IntersectionWith(symbols.Complement()).IsEmpty() {
			cp.AddLinearConstraintForDomain(seq[i], symbols)
		}
		index := fdmodel.NewLinearExpr().AddTerm(states[i], aut.AlphabetSize).Add(seq[i]).AddConstant(-1)
		cp.AddElement(index, table, states[i+1])
	}

	return states, nil
}
