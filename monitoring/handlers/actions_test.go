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


package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"udsearch/monitoring"
	"udsearch/rdb"
	"udsearch/results"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := monitoring.NewJobMonitor(nil, time.UTC)
	t0 := time.Now().Add(-time.Minute)
	logger.Log(results.JobLog{
		WorkerID: "w1", Func: rdb.FuncAnnotateArticle, ArticleID: 1,
		Begin: t0, End: t0.Add(2 * time.Second)})
	logger.Log(results.JobLog{
		WorkerID: "w2", Func: rdb.FuncSearchPatterns, ArticleID: 1,
		Begin: t0.Add(time.Second), End: t0.Add(3 * time.Second)})
	logger.Log(results.JobLog{
		WorkerID: "w1", Func: rdb.FuncSearchPatterns, ArticleID: 2,
		Begin: t0.Add(3 * time.Second), End: t0.Add(4 * time.Second)})
	logger.Log(results.JobLog{
		WorkerID: "w2", Func: rdb.FuncAnnotateArticle, ArticleID: 5,
		Begin: t0.Add(4 * time.Second), End: t0.Add(5 * time.Second), Err: errors.New("backend rejected")})

	actions := NewActions(logger)
	engine := gin.New()
	engine.GET("/monitoring/workers-load", actions.WorkersLoad)
	engine.GET("/monitoring/workers-load/:workerId", actions.SingleWorkerLoad)
	engine.GET("/monitoring/recent-records", actions.RecentRecords)
	engine.GET("/monitoring/funcs", actions.FuncStats)
	engine.GET("/monitoring/articles/failing", actions.FailingArticles)
	engine.GET("/monitoring/articles/:articleId", actions.ArticleStatus)
	return engine
}

func doGet(engine *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestWorkersLoad(t *testing.T) {
	engine := newTestEngine(t)

	for _, span := range []string{"", "?span=recent", "?span=total"} {
		w := doGet(engine, "/monitoring/workers-load"+span)
		require.Equal(t, http.StatusOK, w.Code, span)
		var ans map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
		assert.Equal(t, 4.0, ans["numJobs"], span)
		assert.Equal(t, 2.0, ans["numWorkers"], span)
	}

	w := doGet(engine, "/monitoring/workers-load?span=week")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSingleWorkerLoad(t *testing.T) {
	engine := newTestEngine(t)

	w := doGet(engine, "/monitoring/workers-load/w1?span=total")
	require.Equal(t, http.StatusOK, w.Code)
	var ans map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, 2.0, ans["numJobs"])

	w = doGet(engine, "/monitoring/workers-load/w3")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecentRecords(t *testing.T) {
	engine := newTestEngine(t)

	w := doGet(engine, "/monitoring/recent-records")
	require.Equal(t, http.StatusOK, w.Code)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 4)

	w = doGet(engine, "/monitoring/recent-records?func=searchPatterns")
	require.Equal(t, http.StatusOK, w.Code)
	var filtered []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filtered))
	require.Len(t, filtered, 2)
	assert.Equal(t, "w2", filtered[0]["workerId"])

	w = doGet(engine, "/monitoring/recent-records?func=concordance")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFuncStats(t *testing.T) {
	engine := newTestEngine(t)
	w := doGet(engine, "/monitoring/funcs")
	require.Equal(t, http.StatusOK, w.Code)
	var ans []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	require.Len(t, ans, 2)
	assert.Equal(t, rdb.FuncAnnotateArticle, ans[0]["func"])
	assert.Equal(t, 2.0, ans[0]["numJobs"])
	assert.Equal(t, 0.5, ans[0]["errorRate"])
	assert.Equal(t, 0.0, ans[1]["errorRate"])
}

func TestArticleStatus(t *testing.T) {
	engine := newTestEngine(t)

	w := doGet(engine, "/monitoring/articles/1")
	require.Equal(t, http.StatusOK, w.Code)
	var ans map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, 1.0, ans["numAnnotations"])
	assert.Equal(t, 1.0, ans["numSearches"])

	assert.Equal(t, http.StatusNotFound, doGet(engine, "/monitoring/articles/7").Code)
	assert.Equal(t, http.StatusBadRequest, doGet(engine, "/monitoring/articles/x").Code)

	w = doGet(engine, "/monitoring/articles/failing")
	require.Equal(t, http.StatusOK, w.Code)
	var failing []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &failing))
	require.Len(t, failing, 1)
	assert.Equal(t, 5.0, failing[0]["articleId"])
	assert.Equal(t, "backend rejected", failing[0]["lastError"])
}
