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

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// TextProcessingPipeline cleans article texts and, with an analyzer
// available, annotates them. Articles are submitted in ascending ID
// order and each of them is processed by exactly one goroutine.
type TextProcessingPipeline struct {
	corpus     *corpus.Manager
	analyzer   analyzer.Analyzer
	numWorkers int
}

// ProcessArticle cleans and annotates a single article. The article
// is updated only in case the annotation succeeds.
func (p *TextProcessingPipeline) ProcessArticle(ctx context.Context, article *corpus.Article) error {
	if err := corpus.WriteCleaned(article); err != nil {
		return err
	}
	if p.analyzer == nil {
		return nil
	}
	res, err := p.analyzer.Analyze(ctx, []string{article.Text})
	if err != nil {
		return analyzer.WithArticleID(err, article.ID)
	}
	if len(res) == 0 {
		return fmt.Errorf("analyzer %s returned no result for article %d", p.analyzer.Name(), article.ID)
	}
	doc, err := p.analyzer.Unify(res[0])
	if err != nil {
		return analyzer.WithArticleID(err, article.ID)
	}
	article.Annotation = res[0]
	article.Document = doc
	return p.analyzer.Persist(article)
}

// Run processes all the corpus articles. Failures of individual
// articles are collected in the report. The returned error is set
// only in case the run has been cancelled.
func (p *TextProcessingPipeline) Run(ctx context.Context) (*Report, error) {
	articles := p.corpus.Sorted()
	report := newReport(len(articles))
	t0 := time.Now()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.numWorkers)
	for _, article := range articles {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := p.ProcessArticle(egCtx, article); err != nil {
				// backend timeouts are article failures, only
				// a cancelled run stops the remaining articles
				if ctx.Err() != nil {
					return err
				}
				log.Warn().
					Err(err).
					Int("articleId", article.ID).
					Msg("failed to process article")
				report.addFailure(article.ID, err)
				return nil
			}
			report.addSuccess()
			log.Debug().Int("articleId", article.ID).Msg("article processed")
			return nil
		})
	}
	err := eg.Wait()
	report.finish()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return report, fmt.Errorf("text processing interrupted: %w", err)
	}
	ev := log.Info().
		Int("numArticles", report.NumArticles).
		Int("numFailed", len(report.Failures)).
		Float64("procTime", time.Since(t0).Seconds())
	if p.analyzer != nil {
		ev.Str("analyzer", p.analyzer.Name())
	}
	ev.Msg("text processing finished")
	return report, nil
}

// NewTextProcessingPipeline creates a new pipeline. The analyzer
// may be nil in which case only texts cleaning is performed.
func NewTextProcessingPipeline(
	corp *corpus.Manager,
	an analyzer.Analyzer,
	numWorkers int,
) *TextProcessingPipeline {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &TextProcessingPipeline{
		corpus:     corp,
		analyzer:   an,
		numWorkers: numWorkers,
	}
}
