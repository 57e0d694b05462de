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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contiguity recognizes words over {1,2} in which the 2s form a single
// contiguous block: state 1 before the block, 2 inside it, 3 after it.
func contiguity() *Automaton {
	return &Automaton{
		NumStates:    3,
		AlphabetSize: 2,
		Transition: [][]int64{
			{1, 2},
			{3, 2},
			{3, 0},
		},
		InitialState:    1,
		AcceptingStates: []int64{1, 2, 3},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, contiguity().Validate())
}

func TestValidate_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(a *Automaton)
	}{
		{
			name:   "ZeroStates",
			mutate: func(a *Automaton) { a.NumStates = 0 },
		},
		{
			name:   "NegativeStates",
			mutate: func(a *Automaton) { a.NumStates = -2 },
		},
		{
			name:   "ZeroAlphabet",
			mutate: func(a *Automaton) { a.AlphabetSize = 0 },
		},
		{
			name:   "InitialStateTooSmall",
			mutate: func(a *Automaton) { a.InitialState = 0 },
		},
		{
			name:   "InitialStateTooLarge",
			mutate: func(a *Automaton) { a.InitialState = 4 },
		},
		{
			name:   "AcceptingStateOutOfRange",
			mutate: func(a *Automaton) { a.AcceptingStates = []int64{1, 5} },
		},
		{
			name:   "AcceptingStateZero",
			mutate: func(a *Automaton) { a.AcceptingStates = []int64{0} },
		},
		{
			name:   "MissingTransitionRow",
			mutate: func(a *Automaton) { a.Transition = a.Transition[:2] },
		},
		{
			name:   "ShortTransitionRow",
			mutate: func(a *Automaton) { a.Transition[1] = []int64{3} },
		},
		{
			name:   "TransitionTargetOutOfRange",
			mutate: func(a *Automaton) { a.Transition[0][1] = 4 },
		},
		{
			name:   "NegativeTransitionTarget",
			mutate: func(a *Automaton) { a.Transition[2][1] = -1 },
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			aut := contiguity()
			test.mutate(aut)
			assert.ErrorIs(t, aut.Validate(), ErrConfiguration)
		})
	}
}

func TestAccepts(t *testing.T) {
	aut := contiguity()
	testCases := []struct {
		name string
		word []int64
		want bool
	}{
		{name: "Empty", word: nil, want: true},
		{name: "SingleBlock", word: []int64{1, 2, 2, 1}, want: true},
		{name: "AllOnes", word: []int64{1, 1, 1}, want: true},
		{name: "AllTwos", word: []int64{2, 2, 2}, want: true},
		{name: "TwoBlocks", word: []int64{2, 1, 2}, want: false},
		{name: "SplitBlocks", word: []int64{1, 2, 1, 2, 1}, want: false},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got, err := aut.Accepts(test.word)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestAccepts_Errors(t *testing.T) {
	t.Run("SymbolOutOfRange", func(t *testing.T) {
		_, err := contiguity().Accepts([]int64{1, 3})
		assert.Error(t, err)
	})
	t.Run("MalformedAutomaton", func(t *testing.T) {
		aut := contiguity()
		aut.InitialState = 9
		_, err := aut.Accepts([]int64{1})
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestExtendedTable(t *testing.T) {
	got := contiguity().extendedTable()
	want := []int64{
		0, 0, // reject state self-loops
		1, 2,
		3, 2,
		3, 0,
	}
	assert.Equal(t, want, got)
}
