// Copyright 2023 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2023 Institute of the Czech National Corpus,
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
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"
	"udsearch/merror"
	"udsearch/rdb"
	"udsearch/results"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTickerInterval = 2 * time.Second
)

type jobLogger interface {
	Log(rec results.JobLog)
}

type radapter interface {
	DequeueQuery() (rdb.Query, error)
	SomeoneListens(query rdb.Query) (bool, error)
	PublishResult(channelName string, value *rdb.WorkerResult) error
}

type recoveredError struct {
	error
}

// Worker processes queries published by the API server. Queries are
// processed one by one so an article is never modified concurrently
// within a worker.
type Worker struct {
	ID         string
	messages   <-chan *redis.Message
	radapter   radapter
	processor  *Processor
	ticker     *time.Ticker
	jobLogger  jobLogger
	currJobLog *results.JobLog
}

func (w *Worker) publishResult(res results.SerializableResult, channel string) error {
	if w.currJobLog != nil {
		w.currJobLog.End = time.Now()
		w.currJobLog.Err = res.Err()
		w.jobLogger.Log(*w.currJobLog)
		w.currJobLog = nil
	}
	return w.radapter.PublishResult(channel, rdb.CreateWorkerResult(res))
}

func (w *Worker) runQueryProtected(ctx context.Context, query rdb.Query) (ansErr error) {
	defer func() {
		if r := recover(); r != nil {
			ansErr = recoveredError{merror.PanicValueToErr(r)}
		}
	}()
	var ans results.SerializableResult
	switch query.Func {
	case rdb.FuncAnnotateArticle:
		var args rdb.AnnotateArgs
		if err := json.Unmarshal(query.Args, &args); err != nil {
			ans = &results.ErrorResult{Func: query.Func, Error: err.Error(), UserError: true}
			break
		}
		w.currJobLog.ArticleID = args.ArticleID
		ans = w.processor.AnnotateArticle(ctx, args)
	case rdb.FuncSearchPatterns:
		var args rdb.PatternSearchArgs
		if err := json.Unmarshal(query.Args, &args); err != nil {
			ans = &results.ErrorResult{Func: query.Func, Error: err.Error(), UserError: true}
			break
		}
		w.currJobLog.ArticleID = args.ArticleID
		ans = w.processor.SearchPatterns(args)
	default:
		ans = &results.ErrorResult{
			Func:  query.Func,
			Error: fmt.Sprintf("unknown query function: %s", query.Func),
		}
	}
	return w.publishResult(ans, query.Channel)
}

func (w *Worker) tryNextQuery(ctx context.Context) error {
	query, err := w.radapter.DequeueQuery()
	if errors.Is(err, rdb.ErrorEmptyQueue) {
		return nil

	} else if err != nil {
		return err
	}
	log.Debug().
		Str("channel", query.Channel).
		Str("func", query.Func).
		RawJSON("args", query.Args).
		Msg("received query")

	isActive, err := w.radapter.SomeoneListens(query)
	if err != nil {
		return err
	}
	if !isActive {
		log.Warn().
			Str("func", query.Func).
			Str("channel", query.Channel).
			RawJSON("args", query.Args).
			Msg("worker found an inactive query")
		return nil
	}

	w.currJobLog = &results.JobLog{
		WorkerID: w.ID,
		Func:     query.Func,
		Begin:    time.Now(),
	}

	err = w.runQueryProtected(ctx, query)
	var rcvErr recoveredError
	if errors.As(err, &rcvErr) {
		log.Error().Err(rcvErr).Str("func", query.Func).Msg("worker panicked")
		ans := &results.ErrorResult{
			Error: fmt.Sprintf("worker panicked: %s", rcvErr.Error()),
			Func:  query.Func,
		}
		if err := w.publishResult(ans, query.Channel); err != nil {
			return err
		}
		return nil
	}
	return err
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-w.ticker.C:
				if err := w.tryNextQuery(ctx); err != nil {
					log.Error().Err(err).Msg("failed to process query")
				}
			case <-ctx.Done():
				log.Info().Msg("worker exiting")
				return
			case msg := <-w.messages:
				if msg != nil && msg.Payload == rdb.MsgNewQuery {
					// let all the workers compete for the query
					time.Sleep(time.Duration(rand.Intn(40)) * time.Millisecond)
					if err := w.tryNextQuery(ctx); err != nil {
						log.Error().Err(err).Msg("failed to process query")
					}
				}
			}
		}
	}()
}

func (w *Worker) Stop(ctx context.Context) error {
	w.ticker.Stop()
	log.Warn().Str("workerId", w.ID).Msg("stopping worker")
	return nil
}

func NewWorker(
	workerID string,
	radapter radapter,
	messages <-chan *redis.Message,
	processor *Processor,
	jobLogger jobLogger,
) *Worker {
	return &Worker{
		ID:        workerID,
		radapter:  radapter,
		messages:  messages,
		processor: processor,
		ticker:    time.NewTicker(DefaultTickerInterval),
		jobLogger: jobLogger,
	}
}
