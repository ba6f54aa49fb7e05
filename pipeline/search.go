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
	"context"
	"fmt"
	"time"
	"udsearch/analyzer"
	"udsearch/corpus"
	"udsearch/pattern"

	"github.com/rs/zerolog/log"
)

const (
	MetaKeyPatternMatches = "pattern_matches"
)

// PatternSearchPipeline searches for a POS chain pattern in
// annotated articles. Matches are attached to the articles and
// written to their metadata files.
type PatternSearchPipeline struct {
	corpus   *corpus.Manager
	analyzer analyzer.Analyzer
	pattern  pattern.Pattern
}

func (p *PatternSearchPipeline) Pattern() pattern.Pattern {
	return p.pattern
}

// SearchArticle finds all the pattern matches in an article without
// storing them. Sentences which are not valid dependency trees are
// logged and reported with no matches.
func (p *PatternSearchPipeline) SearchArticle(article *corpus.Article) (pattern.Matches, error) {
	doc, err := loadDocument(p.analyzer, article, false)
	if err != nil {
		return nil, analyzer.WithArticleID(err, article.ID)
	}
	graphs, errs := pattern.BuildGraphs(doc)
	for _, err := range errs {
		log.Warn().
			Err(err).
			Int("articleId", article.ID).
			Msg("sentence skipped in pattern search")
	}
	matches, err := pattern.Search(p.pattern, graphs)
	if err != nil {
		return nil, err
	}
	article.Document = doc
	return matches, nil
}

func (p *PatternSearchPipeline) ProcessArticle(article *corpus.Article) error {
	matches, err := p.SearchArticle(article)
	if err != nil {
		return err
	}
	if err := corpus.UpdateMeta(article, MetaKeyPatternMatches, matches.NonEmpty()); err != nil {
		return err
	}
	article.PatternMatches = matches
	return nil
}

func (p *PatternSearchPipeline) Run(ctx context.Context) (*Report, error) {
	articles := p.corpus.Sorted()
	report := newReport(len(articles))
	t0 := time.Now()
	var numMatches int
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			report.finish()
			return report, fmt.Errorf("pattern search interrupted: %w", err)
		}
		if err := p.ProcessArticle(article); err != nil {
			log.Warn().
				Err(err).
				Int("articleId", article.ID).
				Msg("failed to search patterns")
			report.addFailure(article.ID, err)
			continue
		}
		numMatches += article.PatternMatches.NumMatches()
		report.addSuccess()
	}
	report.finish()
	log.Info().
		Str("pattern", p.pattern.String()).
		Int("numArticles", report.NumArticles).
		Int("numFailed", len(report.Failures)).
		Int("numMatches", numMatches).
		Float64("procTime", time.Since(t0).Seconds()).
		Msg("pattern search finished")
	return report, nil
}

// NewPatternSearchPipeline creates a pattern search pipeline. An invalid
// pattern is reported as merror.PatternSpecError before any article
// is touched.
func NewPatternSearchPipeline(
	corp *corpus.Manager,
	an analyzer.Analyzer,
	roles []string,
) (*PatternSearchPipeline, error) {
	ptrn, err := pattern.NewPattern(roles...)
	if err != nil {
		return nil, err
	}
	return &PatternSearchPipeline{
		corpus:   corp,
		analyzer: an,
		pattern:  ptrn,
	}, nil
}
