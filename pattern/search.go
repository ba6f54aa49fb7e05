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

package pattern

import (
	"strings"
	"udsearch/merror"
)

const (
	// Wildcard matches any part of speech
	Wildcard = "*"

	roleSeparator = ","
)

// Pattern is a chain of part of speech constraints. The first
// item constrains the root of a match, each following item
// constrains a direct dependent of the previous matched token
// (typically root, dependent, grandchild).
type Pattern []string

func NewPattern(roles ...string) (Pattern, error) {
	if len(roles) == 0 {
		return nil, merror.PatternSpecError{Kind: merror.EmptyPatternTuple}
	}
	ans := make(Pattern, len(roles))
	for i, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			return nil, merror.PatternSpecError{Kind: merror.EmptyPatternRole, Role: i + 1}
		}
		ans[i] = r
	}
	return ans, nil
}

// ParsePattern parses a comma separated list of roles,
// e.g. `VERB,NOUN,ADP`.
func ParsePattern(src string) (Pattern, error) {
	if strings.TrimSpace(src) == "" {
		return nil, merror.PatternSpecError{Kind: merror.EmptyPatternTuple}
	}
	return NewPattern(strings.Split(src, roleSeparator)...)
}

func (p Pattern) String() string {
	return strings.Join(p, roleSeparator)
}

func (p Pattern) accepts(role int, upos string) bool {
	return p[role] == Wildcard || p[role] == upos
}

// TreeNode is a matched token along with the matched part
// of its dependents.
type TreeNode struct {
	UPOS     string      `json:"upos"`
	Text     string      `json:"text"`
	Children []*TreeNode `json:"children"`
}

// Matches maps 1-based sentence indices to match trees
// found in respective sentences.
type Matches map[int][]*TreeNode

func (m Matches) NumMatches() int {
	var ans int
	for _, v := range m {
		ans += len(v)
	}
	return ans
}

// NonEmpty returns a copy containing only sentences with
// at least one match.
func (m Matches) NonEmpty() Matches {
	ans := make(Matches)
	for k, v := range m {
		if len(v) > 0 {
			ans[k] = v
		}
	}
	return ans
}

// chains returns all the token ID chains starting at tokenID which
// satisfy pattern roles starting with `role`. The tokenID itself is
// expected to satisfy the `role` already.
func (p Pattern) chains(g *SentenceGraph, tokenID, role int) [][]int {
	if role == len(p)-1 {
		return [][]int{{tokenID}}
	}
	var ans [][]int
	for _, depID := range g.Dependents(tokenID) {
		dep, _ := g.Node(depID)
		if !p.accepts(role+1, dep.UPOS) {
			continue
		}
		for _, sub := range p.chains(g, depID, role+1) {
			chain := make([]int, 0, len(p)-role)
			chain = append(chain, tokenID)
			ans = append(ans, append(chain, sub...))
		}
	}
	return ans
}

func chainToTree(g *SentenceGraph, chain []int) *TreeNode {
	var root, parent *TreeNode
	for _, id := range chain {
		n, _ := g.Node(id)
		curr := &TreeNode{UPOS: n.UPOS, Text: n.Text, Children: []*TreeNode{}}
		if parent == nil {
			root = curr

		} else {
			parent.Children = append(parent.Children, curr)
		}
		parent = curr
	}
	return root
}

// SearchSentence returns one tree per matching token chain. Matches
// are ordered by root ID, then by dependent ID etc. A match tree
// contains only the matched chain, not other dependents of the
// matched tokens.
func SearchSentence(p Pattern, g *SentenceGraph) []*TreeNode {
	ans := make([]*TreeNode, 0, 4)
	if g == nil || len(p) == 0 {
		return ans
	}
	for _, n := range g.Nodes() {
		if !p.accepts(0, n.UPOS) {
			continue
		}
		for _, chain := range p.chains(g, n.ID, 0) {
			ans = append(ans, chainToTree(g, chain))
		}
	}
	return ans
}

// Search applies the pattern to all the sentence graphs of a document.
// A nil item in graphs (i.e. a sentence which failed to be converted)
// produces an empty match list. The function has no side effects so
// it can be called concurrently for different documents.
func Search(p Pattern, graphs []*SentenceGraph) (Matches, error) {
	if len(p) == 0 {
		return nil, merror.PatternSpecError{Kind: merror.EmptyPatternTuple}
	}
	ans := make(Matches, len(graphs))
	for i, g := range graphs {
		ans[i+1] = SearchSentence(p, g)
	}
	return ans, nil
}
