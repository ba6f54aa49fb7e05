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

package results

import (
	"encoding/json"
	"errors"
	"time"
	"udsearch/pattern"
)

const (
	ResultTypeAnnotation    ResultType = "annotation"
	ResultTypePatternSearch ResultType = "patternSearch"
	ResultTypeError         ResultType = "error"
)

type ResultType string

func (rt ResultType) String() string {
	return string(rt)
}

// SerializableResult is a result of a worker job which
// can be passed back to the API server.
type SerializableResult interface {
	Type() ResultType
	Err() error

	// IsUserError tells whether the error (if any) has been caused
	// by invalid input (e.g. an unknown article) instead of a failure
	// of the worker.
	IsUserError() bool
}

func errFromStr(s string) error {
	if s == "" {
		return nil
	}
	return errors.New(s)
}

// JobLog is a record of a single worker job used for monitoring
type JobLog struct {
	WorkerID  string    `json:"workerId"`
	Func      string    `json:"func"`
	ArticleID int       `json:"articleId,omitempty"`
	Begin     time.Time `json:"begin"`
	End       time.Time `json:"end"`
	Err       error     `json:"error"`
}

func (jl JobLog) TimeSpent() time.Duration {
	return jl.End.Sub(jl.Begin)
}

func (jl JobLog) MarshalJSON() ([]byte, error) {
	var errMsg string
	if jl.Err != nil {
		errMsg = jl.Err.Error()
	}
	return json.Marshal(struct {
		WorkerID  string    `json:"workerId"`
		Func      string    `json:"func"`
		ArticleID int       `json:"articleId,omitempty"`
		Begin     time.Time `json:"begin"`
		End       time.Time `json:"end"`
		Error     string    `json:"error,omitempty"`
	}{
		WorkerID:  jl.WorkerID,
		Func:      jl.Func,
		ArticleID: jl.ArticleID,
		Begin:     jl.Begin,
		End:       jl.End,
		Error:     errMsg,
	})
}

func (jl *JobLog) UnmarshalJSON(data []byte) error {
	var tmp struct {
		WorkerID  string    `json:"workerId"`
		Func      string    `json:"func"`
		ArticleID int       `json:"articleId"`
		Begin     time.Time `json:"begin"`
		End       time.Time `json:"end"`
		Error     string    `json:"error"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	jl.WorkerID = tmp.WorkerID
	jl.Func = tmp.Func
	jl.ArticleID = tmp.ArticleID
	jl.Begin = tmp.Begin
	jl.End = tmp.End
	jl.Err = errFromStr(tmp.Error)
	return nil
}

// ----

type ErrorResult struct {
	Func      string `json:"func"`
	Error     string `json:"error"`
	UserError bool   `json:"userError,omitempty"`
}

func (res *ErrorResult) Err() error {
	return errFromStr(res.Error)
}

func (res *ErrorResult) Type() ResultType {
	return ResultTypeError
}

func (res *ErrorResult) IsUserError() bool {
	return res.UserError
}

// ----

type AnnotationResult struct {
	ArticleID      int            `json:"articleId"`
	Backend        string         `json:"backend"`
	NumSentences   int            `json:"numSentences"`
	NumTokens      int            `json:"numTokens"`
	POSFrequencies map[string]int `json:"posFrequencies,omitempty"`
	Error          string         `json:"error,omitempty"`
	UserError      bool           `json:"userError,omitempty"`
}

func (res *AnnotationResult) Err() error {
	return errFromStr(res.Error)
}

func (res *AnnotationResult) Type() ResultType {
	return ResultTypeAnnotation
}

func (res *AnnotationResult) IsUserError() bool {
	return res.UserError
}

// ----

type PatternSearchResult struct {
	ArticleID  int             `json:"articleId"`
	Pattern    string          `json:"pattern"`
	NumMatches int             `json:"numMatches"`
	Matches    pattern.Matches `json:"matches"`
	Error      string          `json:"error,omitempty"`
	UserError  bool            `json:"userError,omitempty"`
}

func (res *PatternSearchResult) Err() error {
	return errFromStr(res.Error)
}

func (res *PatternSearchResult) Type() ResultType {
	return ResultTypePatternSearch
}

func (res *PatternSearchResult) IsUserError() bool {
	return res.UserError
}
