// Copyright 2025 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//   This file is part of UDSEARCH.
//
//  UDSEARCH is free software: you can redistribute it and/or modify
//  it under the terms of the GNU General Public License as published by
//  the Free Software Foundation, either version 3 of the License, or
//  (at your option) any later version.
//
//  UDSEARCH is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU General Public License for more details.
//
//  You should have received a copy of the GNU General Public License
//  along with UDSEARCH.  If not, see <https://www.gnu.org/licenses/>.

package conllu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mkSentence(heads ...int) Sentence {
	ans := Sentence{Tokens: make([]Token, len(heads))}
	for i, h := range heads {
		ans.Tokens[i] = Token{ID: i + 1, Text: "w", UPOS: "X", Head: h}
	}
	return ans
}

func TestCheckTreeValid(t *testing.T) {
	s := mkSentence(2, 0, 2, 3)
	assert.Nil(t, s.CheckTree())
}

func TestCheckTreeEmpty(t *testing.T) {
	s := Sentence{}
	assert.Nil(t, s.CheckTree())
}

func TestCheckTreeMultipleRoots(t *testing.T) {
	s := mkSentence(0, 1, 0)
	v := s.CheckTree()
	if assert.NotNil(t, v) {
		assert.Equal(t, ViolationMultipleRoots, v.Kind)
		assert.Equal(t, 3, v.TokenID)
	}
}

func TestCheckTreeDanglingHead(t *testing.T) {
	s := mkSentence(0, 7)
	v := s.CheckTree()
	if assert.NotNil(t, v) {
		assert.Equal(t, ViolationDanglingHead, v.Kind)
		assert.Equal(t, 2, v.TokenID)
	}
}

func TestCheckTreeCycle(t *testing.T) {
	s := mkSentence(0, 3, 4, 2)
	v := s.CheckTree()
	if assert.NotNil(t, v) {
		assert.Equal(t, ViolationCycle, v.Kind)
	}
}

func TestCheckTreeNoRootIsCycle(t *testing.T) {
	s := mkSentence(2, 1)
	v := s.CheckTree()
	if assert.NotNil(t, v) {
		assert.Equal(t, ViolationCycle, v.Kind)
	}
}

func TestCheckTreeSelfLoop(t *testing.T) {
	s := mkSentence(0, 2)
	v := s.CheckTree()
	if assert.NotNil(t, v) {
		assert.Equal(t, ViolationCycle, v.Kind)
		assert.Equal(t, 2, v.TokenID)
	}
}

func TestSentenceToken(t *testing.T) {
	s := mkSentence(0, 1)
	tok, ok := s.Token(2)
	assert.True(t, ok)
	assert.Equal(t, 1, tok.Head)
	_, ok = s.Token(5)
	assert.False(t, ok)
}
