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

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
	"udsearch/rdb"
	"udsearch/results"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
)

type radapter interface {
	PublishQuery(query rdb.Query, timeout time.Duration) (<-chan *rdb.WorkerResult, error)
	CacheResult(fn func(rdb.Query) (<-chan *rdb.WorkerResult, error), query rdb.Query) (<-chan *rdb.WorkerResult, error)
	ClearCache(fn string) error
}

// Actions provides the corpus related HTTP API. Dataset inspection
// is performed directly by the API server, annotation and search
// are delegated to workers.
type Actions struct {
	corpusDir     string
	backend       string
	dfltPattern   []string
	radapter      radapter
	workerTimeout time.Duration
}

func (a *Actions) articleIDOrFail(ctx *gin.Context) (int, bool) {
	articleID, err := strconv.Atoi(ctx.Param("articleId"))
	if err != nil || articleID < 1 {
		uniresp.RespondWithErrorJSON(
			ctx,
			fmt.Errorf("invalid article ID `%s`", ctx.Param("articleId")),
			http.StatusBadRequest,
		)
		return 0, false
	}
	return articleID, true
}

func (a *Actions) publish(query rdb.Query) (<-chan *rdb.WorkerResult, error) {
	return a.radapter.PublishQuery(query, a.workerTimeout)
}

// awaitResult reads a worker result and in case of an error it writes
// a proper HTTP response. The second returned value tells whether the
// result is usable.
func (a *Actions) awaitResult(ctx *gin.Context, wait <-chan *rdb.WorkerResult) (results.SerializableResult, bool) {
	rawResult, ok := <-wait
	if !ok || rawResult == nil {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("no result received from worker"), http.StatusInternalServerError)
		return nil, false
	}
	res, err := rdb.DecodeResult(rawResult)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return nil, false
	}
	if err := res.Err(); err != nil {
		if res.IsUserError() {
			uniresp.WriteJSONErrorResponse(
				ctx.Writer, uniresp.NewActionErrorFrom(err), http.StatusBadRequest)

		} else {
			uniresp.WriteJSONErrorResponse(
				ctx.Writer, uniresp.NewActionErrorFrom(err), http.StatusInternalServerError)
		}
		return nil, false
	}
	return res, true
}

func TypedOrRespondError[T results.SerializableResult](ctx *gin.Context, res results.SerializableResult) (T, bool) {
	vt, ok := res.(T)
	if !ok {
		var n T
		uniresp.RespondWithErrorJSON(
			ctx,
			fmt.Errorf("unexpected result type %s", res.Type()),
			http.StatusInternalServerError,
		)
		return n, false
	}
	return vt, true
}

func NewActions(
	corpusDir string,
	backend string,
	dfltPattern []string,
	radapter radapter,
	workerTimeout time.Duration,
) *Actions {
	return &Actions{
		corpusDir:     corpusDir,
		backend:       backend,
		dfltPattern:   dfltPattern,
		radapter:      radapter,
		workerTimeout: workerTimeout,
	}
}
