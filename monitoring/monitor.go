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
	"context"
	"sort"
	"sync"
	"time"
	"udsearch/results"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/rs/zerolog/log"
)

const (
	cleanupInterval = 10 * time.Minute
	recentLogSize   = 100
)

// JobMonitor aggregates records of finished worker jobs by worker,
// by job function and by article. Besides the aggregates, a limited
// number of the most recent records is kept.
type JobMonitor struct {
	mu           sync.RWMutex
	workers      WorkersLoad
	funcs        map[string]*FuncStats
	articles     map[int]*ArticleStatus
	recent       *collections.CircularList[results.JobLog]
	tz           *time.Location
	statusWriter StatusWriter
}

func (m *JobMonitor) Log(rec results.JobLog) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wl := m.workers[rec.WorkerID]
	wl.add(rec)
	wl.NumWorkers = 1
	m.workers[rec.WorkerID] = wl

	fs, ok := m.funcs[rec.Func]
	if !ok {
		fs = &FuncStats{Func: rec.Func}
		m.funcs[rec.Func] = fs
	}
	fs.add(rec)

	if rec.ArticleID > 0 {
		as, ok := m.articles[rec.ArticleID]
		if !ok {
			as = &ArticleStatus{ArticleID: rec.ArticleID}
			m.articles[rec.ArticleID] = as
		}
		as.add(rec)
	}
	m.recent.Append(rec)
	m.statusWriter.Write(rec)
}

// recentLoad summarizes recent records accepted by the match function.
// The returned number of workers is the number of distinct workers found.
func (m *JobMonitor) recentLoad(match func(rec results.JobLog) bool) WorkerLoad {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ans WorkerLoad
	workers := collections.NewSet[string]()
	m.recent.ForEach(func(i int, rec results.JobLog) bool {
		if match(rec) {
			workers.Add(rec.WorkerID)
			ans.add(rec)
		}
		return true
	})
	ans.NumWorkers = workers.Size()
	return ans
}

func (m *JobMonitor) TotalLoad() WorkerLoad {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.workers.SumLoad(m.tz)
}

func (m *JobMonitor) RecentLoad() WorkerLoad {
	return m.recentLoad(func(rec results.JobLog) bool { return true })
}

func (m *JobMonitor) TotalWorkerLoad(workerID string) (WorkerLoad, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ans, ok := m.workers[workerID]
	if !ok {
		return ans, ErrWorkerNotFound
	}
	return ans, nil
}

func (m *JobMonitor) RecentWorkerLoad(workerID string) (WorkerLoad, error) {
	ans := m.recentLoad(func(rec results.JobLog) bool { return rec.WorkerID == workerID })
	if ans.NumJobs == 0 {
		return ans, ErrWorkerNotFound
	}
	return ans, nil
}

// RecentRecords returns the most recent job records, oldest first
func (m *JobMonitor) RecentRecords() []results.JobLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ans := make([]results.JobLog, 0, m.recent.Len())
	m.recent.ForEach(func(i int, rec results.JobLog) bool {
		ans = append(ans, rec)
		return true
	})
	return ans
}

// FuncStats returns statistics of all the job functions
// seen so far, sorted by function name
func (m *JobMonitor) FuncStats() []FuncStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ans := make([]FuncStats, 0, len(m.funcs))
	for _, v := range m.funcs {
		ans = append(ans, *v)
	}
	sort.Slice(ans, func(i, j int) bool { return ans[i].Func < ans[j].Func })
	return ans
}

func (m *JobMonitor) ArticleStatus(articleID int) (ArticleStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	as, ok := m.articles[articleID]
	if !ok {
		return ArticleStatus{}, ErrArticleNotFound
	}
	return *as, nil
}

// FailingArticles lists articles whose most recent job failed,
// sorted by article ID
func (m *JobMonitor) FailingArticles() []ArticleStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ans := make([]ArticleStatus, 0, len(m.articles))
	for _, v := range m.articles {
		if v.IsFailing() {
			ans = append(ans, *v)
		}
	}
	sort.Slice(ans, func(i, j int) bool { return ans[i].ArticleID < ans[j].ArticleID })
	return ans
}

func (m *JobMonitor) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers.cleanOldRecords()
	for id, as := range m.articles {
		if time.Since(as.LastUpdate) > StaleRecordTTL {
			delete(m.articles, id)
		}
	}
}

func (m *JobMonitor) Start(ctx context.Context) {
	log.Info().Msg("starting job monitor")
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.cleanup()
			}
		}
	}()
}

func (m *JobMonitor) Stop(ctx context.Context) error {
	log.Info().Msg("stopping job monitor")
	return nil
}

func NewJobMonitor(statusWriter StatusWriter, tz *time.Location) *JobMonitor {
	if statusWriter == nil {
		statusWriter = &NullStatusWriter{}
	}
	return &JobMonitor{
		workers:      make(WorkersLoad),
		funcs:        make(map[string]*FuncStats),
		articles:     make(map[int]*ArticleStatus),
		recent:       collections.NewCircularList[results.JobLog](recentLogSize),
		tz:           tz,
		statusWriter: statusWriter,
	}
}
