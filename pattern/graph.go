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
	"sort"
	"udsearch/conllu"
	"udsearch/merror"
)

// Node is a graph vertex representing a single token
type Node struct {
	ID     int
	UPOS   string
	Text   string
	Head   int
	Deprel string
}

// Edge leads from a dependent token to its head
type Edge struct {
	From  int
	To    int
	Label string
}

// SentenceGraph is a directed dependency graph of a single sentence.
// Nodes are stored in an arena indexed by token ID - 1, edges are
// implied by the nodes' head references.
type SentenceGraph struct {

	// Index is a 1-based position of the sentence within its document
	Index      int
	nodes      []Node
	dependents map[int][]int
}

func (g *SentenceGraph) Len() int {
	return len(g.nodes)
}

func (g *SentenceGraph) Node(id int) (Node, bool) {
	if id < 1 || id > len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[id-1], true
}

// Nodes returns all the nodes ordered by their IDs
func (g *SentenceGraph) Nodes() []Node {
	return g.nodes
}

// Root returns ID of the single node without a head
func (g *SentenceGraph) Root() int {
	for _, n := range g.nodes {
		if n.Head == conllu.RootHead {
			return n.ID
		}
	}
	return 0
}

// Dependents returns IDs of tokens whose head is the provided
// token, in ascending order.
func (g *SentenceGraph) Dependents(id int) []int {
	return g.dependents[id]
}

func (g *SentenceGraph) Edges() []Edge {
	ans := make([]Edge, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n.Head != conllu.RootHead {
			ans = append(ans, Edge{From: n.ID, To: n.Head, Label: n.Deprel})
		}
	}
	return ans
}

func violationToError(sentIdx int, v *conllu.TreeViolation) merror.GraphConstructionError {
	ans := merror.GraphConstructionError{SentenceIdx: sentIdx, TokenID: v.TokenID}
	switch v.Kind {
	case conllu.ViolationMultipleRoots:
		ans.Kind = merror.MultipleRoots
	case conllu.ViolationDanglingHead:
		ans.Kind = merror.DanglingHead
	default:
		ans.Kind = merror.Cycle
	}
	return ans
}

// BuildGraph creates a graph for a single sentence. The sentIdx
// is 1-based. In case the sentence is not a dependency tree,
// merror.GraphConstructionError is returned.
func BuildGraph(sentIdx int, sent conllu.Sentence) (*SentenceGraph, error) {
	if err := sent.CheckIDs(); err != nil {
		// IDs out of order make some heads unreachable by index
		return nil, merror.GraphConstructionError{Kind: merror.DanglingHead, SentenceIdx: sentIdx}
	}
	if v := sent.CheckTree(); v != nil {
		return nil, violationToError(sentIdx, v)
	}
	ans := &SentenceGraph{
		Index:      sentIdx,
		nodes:      make([]Node, len(sent.Tokens)),
		dependents: make(map[int][]int),
	}
	for i, tok := range sent.Tokens {
		ans.nodes[i] = Node{
			ID:     tok.ID,
			UPOS:   tok.UPOS,
			Text:   tok.Text,
			Head:   tok.Head,
			Deprel: tok.Deprel,
		}
		if !tok.IsRoot() {
			ans.dependents[tok.Head] = append(ans.dependents[tok.Head], tok.ID)
		}
	}
	for _, deps := range ans.dependents {
		sort.Ints(deps)
	}
	return ans, nil
}

// BuildGraphs creates one graph per document sentence. For sentences
// which cannot be represented as a dependency tree, the respective
// item is nil and the problem is reported in the returned error
// slice. Other sentences are not affected.
func BuildGraphs(doc *conllu.Document) ([]*SentenceGraph, []error) {
	ans := make([]*SentenceGraph, len(doc.Sentences))
	var errs []error
	for i, sent := range doc.Sentences {
		g, err := BuildGraph(i+1, sent)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ans[i] = g
	}
	return ans, errs
}
