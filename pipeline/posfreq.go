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
	"udsearch/analyzer"
	"udsearch/corpus"

	"github.com/rs/zerolog/log"
)

const (
	MetaKeyPOSFrequencies = "pos_frequencies"
)

// POSFrequencyPipeline counts UPOS tags of annotated articles
// and stores them in the articles' metadata.
type POSFrequencyPipeline struct {
	corpus   *corpus.Manager
	analyzer analyzer.Analyzer
}

func (p *POSFrequencyPipeline) ProcessArticle(article *corpus.Article) error {
	doc, err := loadDocument(p.analyzer, article, true)
	if err != nil {
		return analyzer.WithArticleID(err, article.ID)
	}
	freqs := doc.UPOSFrequencies()
	if err := corpus.UpdateMeta(article, MetaKeyPOSFrequencies, freqs); err != nil {
		return err
	}
	article.Document = doc
	article.POSFrequencies = freqs
	return nil
}

func (p *POSFrequencyPipeline) Run(ctx context.Context) (*Report, error) {
	articles := p.corpus.Sorted()
	report := newReport(len(articles))
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			report.finish()
			return report, fmt.Errorf("POS frequency processing interrupted: %w", err)
		}
		if err := p.ProcessArticle(article); err != nil {
			log.Warn().
				Err(err).
				Int("articleId", article.ID).
				Msg("failed to calculate POS frequencies")
			report.addFailure(article.ID, err)
			continue
		}
		report.addSuccess()
	}
	report.finish()
	log.Info().
		Int("numArticles", report.NumArticles).
		Int("numFailed", len(report.Failures)).
		Msg("POS frequencies calculated")
	return report, nil
}

func NewPOSFrequencyPipeline(corp *corpus.Manager, an analyzer.Analyzer) *POSFrequencyPipeline {
	return &POSFrequencyPipeline{corpus: corp, analyzer: an}
}
