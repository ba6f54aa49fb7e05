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

package monitoring

import (
	"context"
	"errors"
	"time"
	"udsearch/rdb"
	"udsearch/results"

	"github.com/rs/zerolog/log"
)

const (
	collectorInterval = 2 * time.Second
)

type jobLogSource interface {
	DequeueJobLog() (results.JobLog, error)
}

// JobLogCollector moves job records published by workers
// into a JobMonitor.
type JobLogCollector struct {
	source  jobLogSource
	monitor *JobMonitor
}

// collect drains all the available records and returns
// their number
func (c *JobLogCollector) collect() (int, error) {
	var numRec int
	for {
		rec, err := c.source.DequeueJobLog()
		if errors.Is(err, rdb.ErrorEmptyQueue) {
			return numRec, nil

		} else if err != nil {
			return numRec, err
		}
		c.monitor.Log(rec)
		numRec++
	}
}

func (c *JobLogCollector) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(collectorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if numRec, err := c.collect(); err != nil {
					log.Error().Err(err).Msg("failed to collect worker job logs")

				} else if numRec > 0 {
					log.Debug().Int("numRecords", numRec).Msg("collected worker job logs")
				}
			}
		}
	}()
}

func (c *JobLogCollector) Stop(ctx context.Context) error {
	log.Info().Msg("stopping job log collector")
	return nil
}

func NewJobLogCollector(source jobLogSource, monitor *JobMonitor) *JobLogCollector {
	return &JobLogCollector{source: source, monitor: monitor}
}
