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

package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"udsearch/conllu"
	"udsearch/corpus"
	"udsearch/merror"

	"github.com/rs/zerolog/log"
)

// StanzaWord is a single entry of the Stanza dictionary export.
// Multi-word tokens are exported with a range ID (e.g. `[1, 2]`)
// followed by their syntactic words.
type StanzaWord struct {
	ID     json.RawMessage `json:"id"`
	Text   string          `json:"text"`
	Lemma  string          `json:"lemma"`
	UPOS   string          `json:"upos"`
	XPOS   string          `json:"xpos"`
	Head   *int            `json:"head"`
	Deprel string          `json:"deprel"`
}

// WordID returns the word ID and false in case
// the entry is a multi-word token range.
func (w StanzaWord) WordID() (int, bool) {
	var id int
	if err := json.Unmarshal(w.ID, &id); err != nil {
		return 0, false
	}
	return id, true
}

// StanzaDocument is a list of sentences as produced by Stanza's
// `Document.to_dict()`
type StanzaDocument [][]StanzaWord

// Stanza runs an external process wrapping a Stanza pipeline. The process
// reads a text from its standard input and writes the annotated document
// as JSON to its standard output.
type Stanza struct {
	command string
	args    []string
	timeout time.Duration
}

func (a *Stanza) Name() string {
	return BackendStanza
}

func (a *Stanza) rejected(reason string, cause error) error {
	return merror.AnnotationError{
		Kind:    merror.BackendRejected,
		Backend: BackendStanza,
		Reason:  reason,
		Cause:   cause,
	}
}

func (a *Stanza) run(ctx context.Context, text string) (StanzaDocument, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, a.command, a.args...)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, a.rejected(strings.TrimSpace(stderr.String()), err)
	}
	var ans StanzaDocument
	if err := json.Unmarshal(stdout.Bytes(), &ans); err != nil {
		return nil, a.rejected("failed to decode process output", err)
	}
	return ans, nil
}

// Analyze runs the annotation process for each of the texts.
// The returned items are of the StanzaDocument type.
func (a *Stanza) Analyze(ctx context.Context, texts []string) ([]any, error) {
	ans := make([]any, 0, len(texts))
	for _, text := range texts {
		t0 := time.Now()
		doc, err := a.run(ctx, text)
		if err != nil {
			return nil, err
		}
		log.Debug().
			Int("textLength", len(text)).
			Int("numSentences", len(doc)).
			Float64("procTime", time.Since(t0).Seconds()).
			Msg("text processed by Stanza")
		ans = append(ans, doc)
	}
	return ans, nil
}

func (a *Stanza) Persist(article *corpus.Article) error {
	return persistAnnotation(a, article)
}

func (a *Stanza) Reload(article *corpus.Article) (any, error) {
	return reloadAnnotation(a, article)
}

func (a *Stanza) convert(sdoc StanzaDocument) (*conllu.Document, error) {
	doc := &conllu.Document{Sentences: make([]conllu.Sentence, 0, len(sdoc))}
	for i, swords := range sdoc {
		sent := conllu.Sentence{ID: fmt.Sprintf("%d", i+1)}
		texts := make([]string, 0, len(swords))
		for _, w := range swords {
			id, ok := w.WordID()
			if !ok {
				continue
			}
			if w.Head == nil {
				return nil, a.rejected(
					fmt.Sprintf("missing head of word %d in sentence %d", id, i+1), nil)
			}
			sent.Tokens = append(sent.Tokens, conllu.Token{
				ID:     id,
				Text:   w.Text,
				Lemma:  w.Lemma,
				UPOS:   w.UPOS,
				XPOS:   w.XPOS,
				Head:   *w.Head,
				Deprel: w.Deprel,
			})
			texts = append(texts, w.Text)
		}
		sent.Text = strings.Join(texts, " ")
		doc.Sentences = append(doc.Sentences, sent)
	}
	return doc, nil
}

func (a *Stanza) Unify(annotation any) (*conllu.Document, error) {
	var doc *conllu.Document
	switch tAnnot := annotation.(type) {
	case string:
		return unifyCoNLLU(BackendStanza, tAnnot)
	case StanzaDocument:
		var err error
		doc, err = a.convert(tAnnot)
		if err != nil {
			return nil, err
		}
	case *conllu.Document:
		doc = tAnnot
	default:
		return nil, a.rejected(fmt.Sprintf("unsupported annotation type %T", annotation), nil)
	}
	if err := validateDocument(BackendStanza, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// NewStanza creates the Stanza backend. The configured
// command must be resolvable.
func NewStanza(conf *StanzaConf) (*Stanza, error) {
	path, err := exec.LookPath(conf.Command)
	if err != nil {
		return nil, merror.AnnotationError{
			Kind: merror.BootstrapFailure, Backend: BackendStanza, Cause: err}
	}
	log.Info().
		Str("command", path).
		Strs("args", conf.Args).
		Msg("Stanza analyzer ready")
	return &Stanza{
		command: path,
		args:    conf.Args,
		timeout: time.Duration(conf.RequestTimeoutSecs) * time.Second,
	}, nil
}
