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

package rdb

import (
	"encoding/json"
	"fmt"
	"udsearch/results"
)

const (
	FuncAnnotateArticle = "annotateArticle"
	FuncSearchPatterns  = "searchPatterns"
)

type AnnotateArgs struct {
	ArticleID int `json:"articleId"`
}

type PatternSearchArgs struct {
	ArticleID int      `json:"articleId"`
	Pattern   []string `json:"pattern"`
}

// ----------------

// WorkerResult wraps a serialized result of a worker job
type WorkerResult struct {
	ResultType results.ResultType `json:"resultType"`
	Value      json.RawMessage    `json:"value"`
}

func (wr *WorkerResult) AttachValue(value results.SerializableResult) {
	data, err := json.Marshal(value)
	if err != nil {
		data, _ = json.Marshal(&results.ErrorResult{
			Error: fmt.Sprintf("failed to serialize result: %s", err)})
		wr.ResultType = results.ResultTypeError
		wr.Value = data
		return
	}
	wr.ResultType = value.Type()
	wr.Value = data
}

// DecodeResult converts the serialized value into a concrete result.
// Error results are returned as *results.ErrorResult regardless of
// the expected type.
func DecodeResult(wr *WorkerResult) (results.SerializableResult, error) {
	var ans results.SerializableResult
	switch wr.ResultType {
	case results.ResultTypeAnnotation:
		ans = new(results.AnnotationResult)
	case results.ResultTypePatternSearch:
		ans = new(results.PatternSearchResult)
	case results.ResultTypeError:
		ans = new(results.ErrorResult)
	default:
		return nil, fmt.Errorf("unknown result type `%s`", wr.ResultType)
	}
	if err := json.Unmarshal(wr.Value, ans); err != nil {
		return nil, fmt.Errorf("failed to decode worker result: %w", err)
	}
	return ans, nil
}

func CreateWorkerResult(value results.SerializableResult) *WorkerResult {
	ans := new(WorkerResult)
	ans.AttachValue(value)
	return ans
}
