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


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"udsearch/analyzer"
	"udsearch/cnf"
	"udsearch/corpus"
	"udsearch/merror"
	"udsearch/pipeline"

	"github.com/rs/zerolog/log"
)

type batchPipeline interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

func writeReport(report *pipeline.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if path == "" {
		_, err = fmt.Println(string(data))
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func runValidate(conf *cnf.Conf) {
	if err := corpus.ValidateDataset(conf.CorpusDir); err != nil {
		log.Fatal().Err(err).Str("path", conf.CorpusDir).Msg("dataset validation failed")
		return
	}
	log.Info().Str("path", conf.CorpusDir).Msg("dataset OK")
}

// prepareBatch loads the dataset and bootstraps the analyzer.
// Both steps are fatal for a run so any error ends the process.
func prepareBatch(ctx context.Context, conf *cnf.Conf, withAnalyzer bool) (*corpus.Manager, analyzer.Analyzer) {
	corp, err := corpus.NewManager(conf.CorpusDir)
	if err != nil {
		log.Fatal().Err(err).Str("path", conf.CorpusDir).Msg("failed to load dataset")
		return nil, nil
	}
	if !withAnalyzer {
		return corp, nil
	}
	an, err := analyzer.New(ctx, conf.Analyzer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap analyzer")
		return nil, nil
	}
	return corp, an
}

func runBatch(ctx context.Context, p batchPipeline, reportPath string) {
	report, err := p.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("batch processing interrupted")
		return
	}
	if err := writeReport(report, reportPath); err != nil {
		log.Error().Err(err).Msg("failed to write report")
	}
	if len(report.Failures) > 0 {
		log.Warn().
			Ints("articles", report.FailedIDs()).
			Msg("some articles failed to process")
	}
	for _, f := range report.Failures {
		if merror.IsFatalForRun(f.Err) {
			log.Fatal().Err(f.Err).Int("articleId", f.ArticleID).Msg("dataset no longer usable")
			return
		}
	}
}

func runAnnotate(conf *cnf.Conf, cleanOnly bool, reportPath string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	corp, an := prepareBatch(ctx, conf, !cleanOnly)
	runBatch(
		ctx,
		pipeline.NewTextProcessingPipeline(corp, an, conf.NumAnnotationWorkers),
		reportPath,
	)
}

func runPOSFrequencies(conf *cnf.Conf, reportPath string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	corp, an := prepareBatch(ctx, conf, true)
	runBatch(ctx, pipeline.NewPOSFrequencyPipeline(corp, an), reportPath)
}

func runPatternSearch(conf *cnf.Conf, reportPath string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	corp, an := prepareBatch(ctx, conf, true)
	p, err := pipeline.NewPatternSearchPipeline(corp, an, conf.Pattern)
	if err != nil {
		log.Fatal().Err(err).Strs("pattern", conf.Pattern).Msg("invalid pattern")
		return
	}
	runBatch(ctx, p, reportPath)
}
