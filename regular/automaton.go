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

// Package regular compiles deterministic finite automata into finite-domain
// constraints: a sequence of integer variables, read as symbols, is constrained
// to form a word accepted by a given DFA.
//
// Conventions: states are numbered 1..NumStates, symbols 1..AlphabetSize.
// State 0 is the reserved reject state; a transition entry of 0 means "no valid
// transition", and once reached the reject state absorbs every symbol.
package regular

import (
	"errors"
	"fmt"
)

// ErrConfiguration is wrapped by every automaton validation error.
var ErrConfiguration = errors.New("invalid automaton configuration")

// Automaton describes a deterministic finite automaton.
//
// Transition holds one row per state: Transition[q-1][s-1] is the state reached
// from state q on symbol s, or 0 if no transition exists. Every row must have
// exactly AlphabetSize entries.
type Automaton struct {
	// NumStates is the number of states, numbered 1..NumStates.
	NumStates int64
	// AlphabetSize is the number of symbols, numbered 1..AlphabetSize.
	AlphabetSize int64
	// Transition is the transition table, NumStates rows of AlphabetSize entries
	// in 0..NumStates.
	Transition [][]int64
	// InitialState is the start state, in 1..NumStates.
	InitialState int64
	// AcceptingStates lists the accepting states, each in 1..NumStates.
	AcceptingStates []int64
}

// Validate checks the automaton preconditions. Every returned error wraps
// ErrConfiguration and names the violated precondition.
func (a *Automaton) Validate() error {
	if a.NumStates < 1 {
		return fmt.Errorf("%w: num_states must be positive, got %d", ErrConfiguration, a.NumStates)
	}
	if a.AlphabetSize < 1 {
		return fmt.Errorf("%w: alphabet_size must be positive, got %d", ErrConfiguration, a.AlphabetSize)
	}
	if a.InitialState < 1 || a.InitialState > a.NumStates {
		return fmt.Errorf("%w: initial_state %d not in range 1..%d", ErrConfiguration, a.InitialState, a.NumStates)
	}
	for _, f := range a.AcceptingStates {
		if f < 1 || f > a.NumStates {
			return fmt.Errorf("%w: accepting state %d not in range 1..%d", ErrConfiguration, f, a.NumStates)
		}
	}
	if int64(len(a.Transition)) != a.NumStates {
		return fmt.Errorf("%w: transition must have %d rows, got %d", ErrConfiguration, a.NumStates, len(a.Transition))
	}
	for q, row := range a.Transition {
		if int64(len(row)) != a.AlphabetSize {
			return fmt.Errorf("%w: transition row for state %d must have %d entries, got %d", ErrConfiguration, q+1, a.AlphabetSize, len(row))
		}
		for s, next := range row {
			if next < 0 || next > a.NumStates {
				return fmt.Errorf("%w: transition(%d,%d)=%d not in range 0..%d", ErrConfiguration, q+1, s+1, next, a.NumStates)
			}
		}
	}
	return nil
}

// Accepts runs the automaton on `word` and reports whether it ends in an
// accepting state. It returns an error if the automaton is malformed or a
// symbol is outside 1..AlphabetSize.
func (a *Automaton) Accepts(word []int64) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}
	state := a.InitialState
	for i, sym := range word {
		if sym < 1 || sym > a.AlphabetSize {
			return false, fmt.Errorf("symbol %d at position %d not in range 1..%d", sym, i, a.AlphabetSize)
		}
		if state == 0 {
			// Reject state absorbs every symbol.
			continue
		}
		state = a.Transition[state-1][sym-1]
	}
	for _, f := range a.AcceptingStates {
		if state == f {
			return true, nil
		}
	}
	return false, nil
}

// extendedTable returns the transition table flattened row-major, with an extra
// leading row for the reject state 0 that self-loops on every symbol. The entry
// for (state q, symbol s) lives at index q*AlphabetSize + s - 1.
func (a *Automaton) extendedTable() []int64 {
	table := make([]int64, (a.NumStates+1)*a.AlphabetSize)
	for q := int64(1); q <= a.NumStates; q++ {
		copy(table[q*a.AlphabetSize:], a.Transition[q-1])
	}
	return table
}
