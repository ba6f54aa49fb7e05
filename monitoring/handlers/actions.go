// Copyright 2023 Martin Zimandl <martin.zimandl@gmail.com>
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
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"udsearch/monitoring"
	"udsearch/rdb"
	"udsearch/results"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
)

const (
	spanRecent = "recent"
	spanTotal  = "total"
)

var (
	knownFuncs = []string{rdb.FuncAnnotateArticle, rdb.FuncSearchPatterns}
)

type Actions struct {
	monitor *monitoring.JobMonitor
}

// spanOrFail reads the `span` argument (`recent` by default)
// and responds with an error in case it is invalid
func spanOrFail(ctx *gin.Context) (string, bool) {
	span := ctx.DefaultQuery("span", spanRecent)
	if span != spanRecent && span != spanTotal {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("unknown time span `%s`", span), http.StatusBadRequest)
		return "", false
	}
	return span, true
}

func respondLoad(ctx *gin.Context, load monitoring.WorkerLoad, err error) {
	if errors.Is(err, monitoring.ErrWorkerNotFound) {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusNotFound)
		return

	} else if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, load)
}

func (a *Actions) WorkersLoad(ctx *gin.Context) {
	span, ok := spanOrFail(ctx)
	if !ok {
		return
	}
	if span == spanTotal {
		respondLoad(ctx, a.monitor.TotalLoad(), nil)
		return
	}
	respondLoad(ctx, a.monitor.RecentLoad(), nil)
}

func (a *Actions) SingleWorkerLoad(ctx *gin.Context) {
	span, ok := spanOrFail(ctx)
	if !ok {
		return
	}
	if span == spanTotal {
		load, err := a.monitor.TotalWorkerLoad(ctx.Param("workerId"))
		respondLoad(ctx, load, err)
		return
	}
	load, err := a.monitor.RecentWorkerLoad(ctx.Param("workerId"))
	respondLoad(ctx, load, err)
}

// RecentRecords lists recent worker jobs. The optional `func`
// argument filters jobs of a single job type.
func (a *Actions) RecentRecords(ctx *gin.Context) {
	fn := ctx.Query("func")
	if fn != "" && !collections.SliceContains(knownFuncs, fn) {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("unknown job function `%s`", fn), http.StatusBadRequest)
		return
	}
	ans := a.monitor.RecentRecords()
	if fn != "" {
		ans = collections.SliceFilter(
			ans,
			func(v results.JobLog, i int) bool {
				return v.Func == fn
			},
		)
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

func (a *Actions) FuncStats(ctx *gin.Context) {
	uniresp.WriteJSONResponse(ctx.Writer, a.monitor.FuncStats())
}

func (a *Actions) ArticleStatus(ctx *gin.Context) {
	articleID, err := strconv.Atoi(ctx.Param("articleId"))
	if err != nil || articleID < 1 {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("invalid article ID `%s`", ctx.Param("articleId")), http.StatusBadRequest)
		return
	}
	ans, err := a.monitor.ArticleStatus(articleID)
	if errors.Is(err, monitoring.ErrArticleNotFound) {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusNotFound)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

// FailingArticles lists articles whose most recent job failed
func (a *Actions) FailingArticles(ctx *gin.Context) {
	uniresp.WriteJSONResponse(ctx.Writer, a.monitor.FailingArticles())
}

func NewActions(monitor *monitoring.JobMonitor) *Actions {
	return &Actions{monitor: monitor}
}
