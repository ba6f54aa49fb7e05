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

import "fmt"

type ViolationKind int

const (
	ViolationMultipleRoots ViolationKind = iota + 1
	ViolationDanglingHead
	ViolationCycle
)

// TreeViolation describes the first problem found in a sentence
// which prevents it from being a dependency tree.
type TreeViolation struct {
	Kind    ViolationKind
	TokenID int
}

func (v TreeViolation) String() string {
	switch v.Kind {
	case ViolationMultipleRoots:
		return fmt.Sprintf("multiple roots (token %d)", v.TokenID)
	case ViolationDanglingHead:
		return fmt.Sprintf("token %d has a non-existing head", v.TokenID)
	case ViolationCycle:
		return fmt.Sprintf("dependency cycle (token %d)", v.TokenID)
	}
	return "unknown violation"
}

// CheckTree verifies that the sentence forms a tree: exactly one
// root, every head refers to an existing token and following heads
// from any token always reaches the root. An empty sentence is
// considered valid.
func (s *Sentence) CheckTree() *TreeViolation {
	if len(s.Tokens) == 0 {
		return nil
	}
	heads := make(map[int]int, len(s.Tokens))
	var numRoots int
	for _, tok := range s.Tokens {
		heads[tok.ID] = tok.Head
		if tok.IsRoot() {
			numRoots++
			if numRoots > 1 {
				return &TreeViolation{Kind: ViolationMultipleRoots, TokenID: tok.ID}
			}
		}
	}
	for _, tok := range s.Tokens {
		if tok.IsRoot() {
			continue
		}
		if _, ok := heads[tok.Head]; !ok {
			return &TreeViolation{Kind: ViolationDanglingHead, TokenID: tok.ID}
		}
	}
	// tokens already known to reach the root
	reaching := make(map[int]bool, len(s.Tokens))
	for _, tok := range s.Tokens {
		visited := make(map[int]bool)
		curr := tok.ID
		for curr != RootHead && !reaching[curr] {
			if visited[curr] {
				return &TreeViolation{Kind: ViolationCycle, TokenID: tok.ID}
			}
			visited[curr] = true
			curr = heads[curr]
		}
		for id := range visited {
			reaching[id] = true
		}
	}
	return nil
}
