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
	"fmt"
	"net/http"
	"udsearch/corpus"
	"udsearch/merror"
	"udsearch/pattern"
	"udsearch/rdb"
	"udsearch/results"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type validationResponse struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	Error any    `json:"error,omitempty"`
}

type articleInfo struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url,omitempty"`
	Author    []string `json:"author,omitempty"`
	Date      string   `json:"date,omitempty"`
	Annotated bool     `json:"annotated"`
}

type articlesResponse struct {
	Articles []articleInfo `json:"articles"`
	Backend  string        `json:"backend"`
}

// DatasetValidate reports whether the corpus directory is consistent.
// An invalid dataset is not an error of the request itself.
func (a *Actions) DatasetValidate(ctx *gin.Context) {
	ans := validationResponse{Path: a.corpusDir, Valid: true}
	if err := corpus.ValidateDataset(a.corpusDir); err != nil {
		ans.Valid = false
		if _, ok := err.(json.Marshaler); ok {
			ans.Error = err

		} else {
			ans.Error = err.Error()
		}
		log.Warn().Err(err).Str("path", a.corpusDir).Msg("dataset validation failed")
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

func (a *Actions) Articles(ctx *gin.Context) {
	corp, err := corpus.NewManager(a.corpusDir)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusUnprocessableEntity)
		return
	}
	ans := articlesResponse{
		Articles: make([]articleInfo, 0, corp.Len()),
		Backend:  a.backend,
	}
	for _, article := range corp.Sorted() {
		item := articleInfo{
			ID:        article.ID,
			Annotated: fs.PathExists(article.FilePath(corpus.CoNLLUArtifact(a.backend))),
		}
		meta, err := corpus.ReadMeta(article)
		if err != nil {
			log.Warn().Err(err).Int("articleId", article.ID).Msg("failed to read article metadata")

		} else {
			item.Title = meta.Title
			item.URL = meta.URL
			item.Author = meta.Author
			item.Date = meta.Date
		}
		ans.Articles = append(ans.Articles, item)
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

func (a *Actions) AnnotateArticle(ctx *gin.Context) {
	articleID, ok := a.articleIDOrFail(ctx)
	if !ok {
		return
	}
	logging.AddLogEvent(ctx, "articleId", articleID)
	query, err := rdb.NewQuery(rdb.FuncAnnotateArticle, rdb.AnnotateArgs{ArticleID: articleID})
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	wait, err := a.publish(query)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	res, ok := a.awaitResult(ctx, wait)
	if !ok {
		return
	}
	ans, ok := TypedOrRespondError[*results.AnnotationResult](ctx, res)
	if !ok {
		return
	}
	if err := a.radapter.ClearCache(rdb.FuncSearchPatterns); err != nil {
		log.Error().Err(err).Msg("failed to invalidate pattern search cache")
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

// PatternSearch searches for a POS chain in an annotated article. The
// `pos` argument contains comma separated UPOS tags (`*` matches any tag),
// the configured pattern is used if omitted.
func (a *Actions) PatternSearch(ctx *gin.Context) {
	articleID, ok := a.articleIDOrFail(ctx)
	if !ok {
		return
	}
	logging.AddLogEvent(ctx, "articleId", articleID)
	ptrn, err := pattern.NewPattern(a.dfltPattern...)
	if posArg, found := ctx.GetQuery("pos"); found {
		ptrn, err = pattern.ParsePattern(posArg)
	}
	var psErr merror.PatternSpecError
	if errors.As(err, &psErr) {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusBadRequest)
		return

	} else if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	query, err := rdb.NewQuery(
		rdb.FuncSearchPatterns,
		rdb.PatternSearchArgs{ArticleID: articleID, Pattern: ptrn},
	)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	wait, err := a.radapter.CacheResult(a.publish, query)
	if err != nil {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("failed to search patterns: %w", err), http.StatusInternalServerError)
		return
	}
	res, ok := a.awaitResult(ctx, wait)
	if !ok {
		return
	}
	ans, ok := TypedOrRespondError[*results.PatternSearchResult](ctx, res)
	if !ok {
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}
