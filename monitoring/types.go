// Copyright 2023 Tomas Machalek <tomas.machalek@gmail.com>
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

package monitoring

import (
	"errors"
	"time"
	"udsearch/rdb"
	"udsearch/results"

	"github.com/bytedance/sonic"
)

const (
	// StaleRecordTTL specifies how long a worker or an article
	// without any job stays in statistics
	StaleRecordTTL = time.Hour * 24
)

var (
	ErrWorkerNotFound  = errors.New("worker not found")
	ErrArticleNotFound = errors.New("no jobs recorded for the article")
)

// StatusWriter stores job logs to a persistent storage
type StatusWriter interface {
	Write(rec results.JobLog)
}

type NullStatusWriter struct{}

func (n *NullStatusWriter) Write(rec results.JobLog) {}

// ---

// WorkerLoad describes how busy worker(s) were within
// a time span
type WorkerLoad struct {
	NumJobs       int
	TotalTimeSecs float64
	NumErrors     int
	FirstUpdate   time.Time
	LastUpdate    time.Time
	NumWorkers    int
}

func (wl *WorkerLoad) add(rec results.JobLog) {
	if wl.FirstUpdate.IsZero() || rec.Begin.Before(wl.FirstUpdate) {
		wl.FirstUpdate = rec.Begin
	}
	if rec.End.After(wl.LastUpdate) {
		wl.LastUpdate = rec.End
	}
	wl.NumJobs++
	if rec.Err != nil {
		wl.NumErrors++
	}
	wl.TotalTimeSecs += rec.TimeSpent().Seconds()
}

// AvgLoad is a ratio of time spent by jobs and the time span covered
// by the load info, per worker
func (wl WorkerLoad) AvgLoad() float64 {
	span := wl.LastUpdate.Sub(wl.FirstUpdate).Seconds()
	if span <= 0 || wl.NumWorkers == 0 {
		return 0
	}
	return wl.TotalTimeSecs / span / float64(wl.NumWorkers)
}

func (wl WorkerLoad) MarshalJSON() ([]byte, error) {
	var t0, t1 *time.Time
	if !wl.FirstUpdate.IsZero() {
		t0 = &wl.FirstUpdate
	}
	if !wl.LastUpdate.IsZero() {
		t1 = &wl.LastUpdate
	}
	return sonic.Marshal(
		struct {
			NumJobs       int        `json:"numJobs"`
			TotalTimeSecs float64    `json:"totalTimeSecs"`
			NumErrors     int        `json:"numErrors"`
			FirstUpdate   *time.Time `json:"firstUpdate,omitempty"`
			LastUpdate    *time.Time `json:"lastUpdate,omitempty"`
			NumWorkers    int        `json:"numWorkers"`
			AvgLoad       float64    `json:"avgLoad"`
		}{
			NumJobs:       wl.NumJobs,
			TotalTimeSecs: wl.TotalTimeSecs,
			NumErrors:     wl.NumErrors,
			FirstUpdate:   t0,
			LastUpdate:    t1,
			NumWorkers:    wl.NumWorkers,
			AvgLoad:       wl.AvgLoad(),
		},
	)
}

// WorkersLoad maps worker IDs to their loads
type WorkersLoad map[string]WorkerLoad

// SumLoad aggregates loads of all the workers
func (wl WorkersLoad) SumLoad(tz *time.Location) WorkerLoad {
	var ans WorkerLoad
	for _, v := range wl {
		ans.NumJobs += v.NumJobs
		ans.NumErrors += v.NumErrors
		ans.TotalTimeSecs += v.TotalTimeSecs
		if ans.FirstUpdate.IsZero() || v.FirstUpdate.Before(ans.FirstUpdate) {
			ans.FirstUpdate = v.FirstUpdate
		}
		if v.LastUpdate.After(ans.LastUpdate) {
			ans.LastUpdate = v.LastUpdate
		}
		ans.NumWorkers++
	}
	if tz != nil {
		ans.FirstUpdate = ans.FirstUpdate.In(tz)
		ans.LastUpdate = ans.LastUpdate.In(tz)
	}
	return ans
}

func (wl WorkersLoad) cleanOldRecords() {
	for k, v := range wl {
		if time.Since(v.LastUpdate) > StaleRecordTTL {
			delete(wl, k)
		}
	}
}

// ---

// FuncStats summarizes jobs of a single job function
// (annotateArticle, searchPatterns)
type FuncStats struct {
	Func          string  `json:"func"`
	NumJobs       int     `json:"numJobs"`
	NumErrors     int     `json:"numErrors"`
	TotalTimeSecs float64 `json:"totalTimeSecs"`
	MaxTimeSecs   float64 `json:"maxTimeSecs"`
}

func (fs *FuncStats) add(rec results.JobLog) {
	fs.NumJobs++
	if rec.Err != nil {
		fs.NumErrors++
	}
	t := rec.TimeSpent().Seconds()
	fs.TotalTimeSecs += t
	if t > fs.MaxTimeSecs {
		fs.MaxTimeSecs = t
	}
}

func (fs FuncStats) ErrorRate() float64 {
	if fs.NumJobs == 0 {
		return 0
	}
	return float64(fs.NumErrors) / float64(fs.NumJobs)
}

func (fs FuncStats) AvgTimeSecs() float64 {
	if fs.NumJobs == 0 {
		return 0
	}
	return fs.TotalTimeSecs / float64(fs.NumJobs)
}

func (fs FuncStats) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(
		struct {
			Func          string  `json:"func"`
			NumJobs       int     `json:"numJobs"`
			NumErrors     int     `json:"numErrors"`
			TotalTimeSecs float64 `json:"totalTimeSecs"`
			MaxTimeSecs   float64 `json:"maxTimeSecs"`
			ErrorRate     float64 `json:"errorRate"`
			AvgTimeSecs   float64 `json:"avgTimeSecs"`
		}{
			Func:          fs.Func,
			NumJobs:       fs.NumJobs,
			NumErrors:     fs.NumErrors,
			TotalTimeSecs: fs.TotalTimeSecs,
			MaxTimeSecs:   fs.MaxTimeSecs,
			ErrorRate:     fs.ErrorRate(),
			AvgTimeSecs:   fs.AvgTimeSecs(),
		},
	)
}

// ---

// ArticleStatus is a job history of a single article. An article
// is failing if its most recent job failed.
type ArticleStatus struct {
	ArticleID      int       `json:"articleId"`
	NumAnnotations int       `json:"numAnnotations"`
	NumSearches    int       `json:"numSearches"`
	NumFailures    int       `json:"numFailures"`
	LastFunc       string    `json:"lastFunc"`
	LastError      string    `json:"lastError,omitempty"`
	LastUpdate     time.Time `json:"lastUpdate"`
}

func (as *ArticleStatus) add(rec results.JobLog) {
	switch rec.Func {
	case rdb.FuncAnnotateArticle:
		as.NumAnnotations++
	case rdb.FuncSearchPatterns:
		as.NumSearches++
	}
	as.LastFunc = rec.Func
	as.LastUpdate = rec.End
	as.LastError = ""
	if rec.Err != nil {
		as.NumFailures++
		as.LastError = rec.Err.Error()
	}
}

func (as ArticleStatus) IsFailing() bool {
	return as.LastError != ""
}
