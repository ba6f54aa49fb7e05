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
	"context"
	"errors"
	"fmt"
	"os"
	"udsearch/conllu"
	"udsearch/corpus"
	"udsearch/merror"
)

// Analyzer is a morpho-syntactic annotation backend. Analysis results
// are either backend-native documents or CoNLL-U strings - both are
// accepted by Unify which converts them into the backend independent
// conllu.Document.
//
// Implementations must be safe for concurrent use as a single
// analyzer instance may serve multiple annotation goroutines.
type Analyzer interface {

	// Name identifies the backend. It is also used as a format tag
	// of persisted annotation files.
	Name() string

	// Analyze annotates each of the provided texts
	Analyze(ctx context.Context, texts []string) ([]any, error)

	// Persist writes article's annotation in the CoNLL-U format
	Persist(article *corpus.Article) error

	// Reload loads annotation written by Persist
	Reload(article *corpus.Article) (any, error)

	// Unify converts an annotation into conllu.Document. Documents
	// violating the dependency tree invariants are rejected with
	// merror.AnnotationError (InvariantViolation).
	Unify(annotation any) (*conllu.Document, error)
}

// validateDocument tests that all the document sentences are valid
// dependency trees with token IDs forming the sequence 1..N.
func validateDocument(backend string, doc *conllu.Document) error {
	for i, sent := range doc.Sentences {
		if err := sent.CheckIDs(); err != nil {
			return merror.AnnotationError{
				Kind:        merror.InvariantViolation,
				Backend:     backend,
				SentenceIdx: i + 1,
				Reason:      err.Error(),
			}
		}
		if v := sent.CheckTree(); v != nil {
			return merror.AnnotationError{
				Kind:        merror.InvariantViolation,
				Backend:     backend,
				SentenceIdx: i + 1,
				Reason:      v.String(),
			}
		}
	}
	return nil
}

// unifyCoNLLU parses and validates a CoNLL-U string
func unifyCoNLLU(backend, data string) (*conllu.Document, error) {
	doc, err := conllu.ParseString(data)
	if err != nil {
		return nil, merror.AnnotationError{
			Kind:    merror.BackendRejected,
			Backend: backend,
			Reason:  "invalid CoNLL-U output",
			Cause:   err,
		}
	}
	if err := validateDocument(backend, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// WithArticleID attaches an article ID to an AnnotationError.
// Other errors are returned unchanged.
func WithArticleID(err error, articleID int) error {
	var anErr merror.AnnotationError
	if errors.As(err, &anErr) {
		anErr.ArticleID = articleID
		return anErr
	}
	return err
}

// persistAnnotation writes article annotation to a file specific for
// the analyzer. CoNLL-U strings are written as they are, other
// annotation types are unified first.
func persistAnnotation(an Analyzer, article *corpus.Article) error {
	var data string
	switch tAnnot := article.Annotation.(type) {
	case nil:
		return fmt.Errorf("article %d has no annotation to persist", article.ID)
	case string:
		data = tAnnot
	default:
		doc, err := an.Unify(tAnnot)
		if err != nil {
			return WithArticleID(err, article.ID)
		}
		data, err = conllu.String(doc)
		if err != nil {
			return fmt.Errorf("failed to persist annotation of article %d: %w", article.ID, err)
		}
	}
	path := article.FilePath(corpus.CoNLLUArtifact(an.Name()))
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to persist annotation of article %d: %w", article.ID, err)
	}
	return nil
}

// reloadAnnotation returns the raw CoNLL-U content
// written by persistAnnotation.
func reloadAnnotation(an Analyzer, article *corpus.Article) (any, error) {
	path := article.FilePath(corpus.CoNLLUArtifact(an.Name()))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload annotation of article %d: %w", article.ID, err)
	}
	return string(data), nil
}
