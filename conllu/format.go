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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	numColumns = 10

	colID     = 0
	colForm   = 1
	colLemma  = 2
	colUPOS   = 3
	colXPOS   = 4
	colFeats  = 5
	colHead   = 6
	colDeprel = 7

	maxLineSize = 1024 * 1024
)

type ParseError struct {
	Line int
	Msg  string
}

func (err ParseError) Error() string {
	return fmt.Sprintf("invalid CoNLL-U data at line %d: %s", err.Line, err.Msg)
}

func emptyToDash(v string) string {
	if v == "" {
		return EmptyValue
	}
	return v
}

func dashToEmpty(v string) string {
	if v == EmptyValue {
		return ""
	}
	return v
}

// isWordLine tells whether the ID column belongs to a syntactic
// word. Multi-word token ranges (`3-4`) and empty nodes (`5.1`)
// do not take part in the basic dependency tree.
func isWordLine(id string) bool {
	return !strings.ContainsAny(id, "-.")
}

// Parse reads a CoNLL-U stream. Sentence-level `sent_id` and `text`
// comments are kept, other comments are ignored. LEMMA and DEPREL
// are kept verbatim as `_` is a valid lemma (e.g. for the form `_`). The function checks
// only the format itself, dependency tree validity is left to
// Sentence.CheckTree.
func Parse(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	doc := &Document{Sentences: make([]Sentence, 0, 50)}
	var curr Sentence
	var lineNum int
	flush := func() {
		if len(curr.Tokens) > 0 {
			doc.Sentences = append(doc.Sentences, curr)
		}
		curr = Sentence{}
	}
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			key, value, ok := strings.Cut(strings.TrimSpace(line[1:]), "=")
			if ok {
				switch strings.TrimSpace(key) {
				case "sent_id":
					curr.ID = strings.TrimSpace(value)
				case "text":
					curr.Text = strings.TrimSpace(value)
				}
			}
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) != numColumns {
			return nil, ParseError{
				Line: lineNum,
				Msg:  fmt.Sprintf("expected %d columns, found %d", numColumns, len(cols)),
			}
		}
		if !isWordLine(cols[colID]) {
			continue
		}
		id, err := strconv.Atoi(cols[colID])
		if err != nil {
			return nil, ParseError{Line: lineNum, Msg: fmt.Sprintf("invalid token id `%s`", cols[colID])}
		}
		head, err := strconv.Atoi(cols[colHead])
		if err != nil {
			return nil, ParseError{Line: lineNum, Msg: fmt.Sprintf("invalid head `%s`", cols[colHead])}
		}
		curr.Tokens = append(curr.Tokens, Token{
			ID:     id,
			Text:   cols[colForm],
			Lemma:  cols[colLemma],
			UPOS:   dashToEmpty(cols[colUPOS]),
			XPOS:   dashToEmpty(cols[colXPOS]),
			Head:   head,
			Deprel: cols[colDeprel],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read CoNLL-U data: %w", err)
	}
	flush()
	for i, s := range doc.Sentences {
		if err := s.CheckIDs(); err != nil {
			return nil, fmt.Errorf("invalid CoNLL-U sentence %d: %w", i+1, err)
		}
	}
	return doc, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Write serializes the document. Columns not represented
// by Token (FEATS, DEPS, MISC) are written as `_`.
func Write(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	for i, s := range doc.Sentences {
		sentID := s.ID
		if sentID == "" {
			sentID = strconv.Itoa(i + 1)
		}
		if _, err := fmt.Fprintf(bw, "# sent_id = %s\n", sentID); err != nil {
			return fmt.Errorf("failed to write CoNLL-U data: %w", err)
		}
		if s.Text != "" {
			if _, err := fmt.Fprintf(bw, "# text = %s\n", s.Text); err != nil {
				return fmt.Errorf("failed to write CoNLL-U data: %w", err)
			}
		}
		for _, tok := range s.Tokens {
			cols := make([]string, numColumns)
			for j := range cols {
				cols[j] = EmptyValue
			}
			cols[colID] = strconv.Itoa(tok.ID)
			cols[colForm] = emptyToDash(tok.Text)
			cols[colLemma] = emptyToDash(tok.Lemma)
			cols[colUPOS] = emptyToDash(tok.UPOS)
			cols[colXPOS] = emptyToDash(tok.XPOS)
			cols[colFeats] = EmptyValue
			cols[colHead] = strconv.Itoa(tok.Head)
			cols[colDeprel] = emptyToDash(tok.Deprel)
			if _, err := bw.WriteString(strings.Join(cols, "\t") + "\n"); err != nil {
				return fmt.Errorf("failed to write CoNLL-U data: %w", err)
			}
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return fmt.Errorf("failed to write CoNLL-U data: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write CoNLL-U data: %w", err)
	}
	return nil
}

func String(doc *Document) (string, error) {
	var buff strings.Builder
	if err := Write(&buff, doc); err != nil {
		return "", err
	}
	return buff.String(), nil
}
