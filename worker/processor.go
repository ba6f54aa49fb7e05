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

package worker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"udsearch/analyzer"
	"udsearch/corpus"
	"udsearch/merror"
	"udsearch/pipeline"
	"udsearch/rdb"
	"udsearch/results"

	"github.com/rs/zerolog/log"
)

// Processor performs single article jobs on a loaded corpus
type Processor struct {
	corpus      *corpus.Manager
	analyzer    analyzer.Analyzer
	textProc    *pipeline.TextProcessingPipeline
	posFreqProc *pipeline.POSFrequencyPipeline
}

func (p *Processor) getArticle(articleID int) (*corpus.Article, error) {
	article, ok := p.corpus.Get(articleID)
	if !ok {
		return nil, merror.InputError{Msg: fmt.Sprintf("article %d not found", articleID)}
	}
	return article, nil
}

// AnnotateArticle cleans, annotates and persists a single article.
// Also POS frequencies of the article metadata are updated.
func (p *Processor) AnnotateArticle(ctx context.Context, args rdb.AnnotateArgs) *results.AnnotationResult {
	ans := &results.AnnotationResult{
		ArticleID: args.ArticleID,
		Backend:   p.analyzer.Name(),
	}
	article, err := p.getArticle(args.ArticleID)
	if err != nil {
		ans.Error = err.Error()
		ans.UserError = true
		return ans
	}
	if err := p.textProc.ProcessArticle(ctx, article); err != nil {
		log.Error().Err(err).Int("articleId", article.ID).Msg("failed to annotate article")
		ans.Error = err.Error()
		return ans
	}
	if err := p.posFreqProc.ProcessArticle(article); err != nil {
		log.Error().Err(err).Int("articleId", article.ID).Msg("failed to store POS frequencies")
		ans.Error = err.Error()
		return ans
	}
	ans.NumSentences = len(article.Document.Sentences)
	ans.NumTokens = article.Document.NumTokens()
	ans.POSFrequencies = article.POSFrequencies
	return ans
}

// SearchPatterns searches for a pattern in an already annotated
// article. The result is not stored to the article metadata.
func (p *Processor) SearchPatterns(args rdb.PatternSearchArgs) *results.PatternSearchResult {
	ans := &results.PatternSearchResult{ArticleID: args.ArticleID}
	srch, err := pipeline.NewPatternSearchPipeline(p.corpus, p.analyzer, args.Pattern)
	if err != nil {
		ans.Error = err.Error()
		ans.UserError = true
		return ans
	}
	ans.Pattern = srch.Pattern().String()
	article, err := p.getArticle(args.ArticleID)
	if err != nil {
		ans.Error = err.Error()
		ans.UserError = true
		return ans
	}
	matches, err := srch.SearchArticle(article)
	if errors.Is(err, fs.ErrNotExist) {
		ans.Error = fmt.Sprintf("article %d is not annotated", article.ID)
		ans.UserError = true
		return ans

	} else if err != nil {
		log.Error().Err(err).Int("articleId", article.ID).Msg("failed to search patterns")
		ans.Error = err.Error()
		return ans
	}
	ans.Matches = matches
	ans.NumMatches = matches.NumMatches()
	return ans
}

func NewProcessor(corp *corpus.Manager, an analyzer.Analyzer) *Processor {
	return &Processor{
		corpus:      corp,
		analyzer:    an,
		textProc:    pipeline.NewTextProcessingPipeline(corp, an, 1),
		posFreqProc: pipeline.NewPOSFrequencyPipeline(corp, an),
	}
}
