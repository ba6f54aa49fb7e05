// Copyright 2023 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2023 Martin Zimandl <martin.zimandl@gmail.com>
// Copyright 2023 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"udsearch/analyzer"
	"udsearch/cnf"
	"udsearch/corpus"
	"udsearch/rdb"
	"udsearch/results"
	"udsearch/worker"

	"github.com/rs/zerolog/log"
)

func getWorkerID() (workerID string) {
	workerID = getEnv("WORKER_ID")
	if workerID == "" {
		workerID = strconv.Itoa(os.Getpid())
	}
	return
}

// redisJobLogger passes job records to the API server
// where worker load is monitored
type redisJobLogger struct {
	radapter *rdb.Adapter
}

func (rl *redisJobLogger) Log(rec results.JobLog) {
	if err := rl.radapter.PublishJobLog(rec); err != nil {
		log.Error().Err(err).Str("func", rec.Func).Msg("failed to publish job log")
	}
}

func runWorker(conf *cnf.Conf) {
	workerID := getWorkerID()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cnf.ValidateRedis(conf); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
		return
	}
	corp, err := corpus.NewManager(conf.CorpusDir)
	if err != nil {
		log.Fatal().Err(err).Str("path", conf.CorpusDir).Msg("failed to load dataset")
		return
	}
	an, err := analyzer.New(ctx, conf.Analyzer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap analyzer")
		return
	}

	radapter := rdb.NewAdapter(conf.Redis, ctx)
	if err := radapter.TestConnection(redisConnectionTestTimeout); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
		return
	}

	ch := radapter.Subscribe()
	wrk := worker.NewWorker(
		workerID,
		radapter,
		ch,
		worker.NewProcessor(corp, an),
		&redisJobLogger{radapter: radapter},
	)

	services := []service{wrk}
	for _, m := range services {
		m.Start(ctx)
	}
	<-ctx.Done()
	log.Warn().Msg("shutdown signal received")
	stopServices(services)
}
