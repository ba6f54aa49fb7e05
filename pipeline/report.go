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

package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"udsearch/analyzer"
	"udsearch/conllu"
	"udsearch/corpus"
)

// ArticleFailure describes a problem which prevented
// processing of a single article.
type ArticleFailure struct {
	ArticleID int
	Err       error
}

func (f ArticleFailure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ArticleID int    `json:"articleId"`
		Error     string `json:"error"`
	}{
		ArticleID: f.ArticleID,
		Error:     f.Err.Error(),
	})
}

// Report summarizes a pipeline run. Articles not listed in Failures
// have been processed successfully.
type Report struct {
	mu           sync.Mutex
	NumArticles  int              `json:"numArticles"`
	NumProcessed int              `json:"numProcessed"`
	Failures     []ArticleFailure `json:"failures"`
}

func (r *Report) addSuccess() {
	r.mu.Lock()
	r.NumProcessed++
	r.mu.Unlock()
}

func (r *Report) addFailure(articleID int, err error) {
	r.mu.Lock()
	r.Failures = append(r.Failures, ArticleFailure{ArticleID: articleID, Err: err})
	r.mu.Unlock()
}

func (r *Report) finish() {
	sort.Slice(r.Failures, func(i, j int) bool {
		return r.Failures[i].ArticleID < r.Failures[j].ArticleID
	})
}

// FailedIDs returns IDs of failed articles in ascending order
func (r *Report) FailedIDs() []int {
	ans := make([]int, len(r.Failures))
	for i, f := range r.Failures {
		ans[i] = f.ArticleID
	}
	return ans
}

func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	msgs := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		msgs[i] = fmt.Sprintf("article %d: %s", f.ArticleID, f.Err)
	}
	return fmt.Errorf("%d of %d articles failed: %s", len(r.Failures), r.NumArticles, strings.Join(msgs, "; "))
}

func newReport(numArticles int) *Report {
	return &Report{NumArticles: numArticles, Failures: []ArticleFailure{}}
}

// loadDocument reloads a persisted annotation of an article. With strict
// set to false, a CoNLL-U annotation is only parsed and not tested for
// dependency tree invariants so broken sentences can be reported
// separately.
func loadDocument(an analyzer.Analyzer, article *corpus.Article, strict bool) (*conllu.Document, error) {
	annot, err := an.Reload(article)
	if err != nil {
		return nil, err
	}
	if src, ok := annot.(string); ok && !strict {
		doc, err := conllu.ParseString(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse annotation of article %d: %w", article.ID, err)
		}
		return doc, nil
	}
	return an.Unify(annot)
}
