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

const (
	// RootHead is the head value of a sentence root token
	RootHead = 0

	// EmptyValue is used for missing column values
	EmptyValue = "_"
)

// Token is a single syntactic word of a sentence
type Token struct {

	// ID is 1-based and unique within a sentence
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Lemma  string `json:"lemma"`
	UPOS   string `json:"upos"`
	XPOS   string `json:"xpos"`
	Head   int    `json:"head"`
	Deprel string `json:"deprel"`
}

func (t Token) IsRoot() bool {
	return t.Head == RootHead
}

type Sentence struct {
	ID     string  `json:"id,omitempty"`
	Text   string  `json:"text,omitempty"`
	Tokens []Token `json:"tokens"`
}

// Token returns a token with the provided ID. Tokens are expected
// to be stored in their ID order (which is checked by CheckIDs) so
// the lookup is constant in a valid sentence.
func (s *Sentence) Token(id int) (Token, bool) {
	if id >= 1 && id <= len(s.Tokens) && s.Tokens[id-1].ID == id {
		return s.Tokens[id-1], true
	}
	for _, tok := range s.Tokens {
		if tok.ID == id {
			return tok, true
		}
	}
	return Token{}, false
}

// CheckIDs tests whether token IDs form the sequence 1, 2, ..., N
func (s *Sentence) CheckIDs() error {
	for i, tok := range s.Tokens {
		if tok.ID != i+1 {
			return fmt.Errorf("unexpected token id %d at position %d", tok.ID, i+1)
		}
	}
	return nil
}

// Document is a backend independent annotation of a text
type Document struct {
	Sentences []Sentence `json:"sentences"`
}

func (d *Document) NumTokens() int {
	var ans int
	for _, s := range d.Sentences {
		ans += len(s.Tokens)
	}
	return ans
}

// UPOSFrequencies counts coarse part-of-speech tags of all the tokens
func (d *Document) UPOSFrequencies() map[string]int {
	ans := make(map[string]int)
	for _, s := range d.Sentences {
		for _, tok := range s.Tokens {
			ans[tok.UPOS]++
		}
	}
	return ans
}
