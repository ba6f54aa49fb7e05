// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
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
	"time"
	"udsearch/results"

	"github.com/czcorpus/hltscl"
	"github.com/rs/zerolog/log"
)

/*
Expected table:

create table udsearch_jobs (
	"time" timestamp with time zone NOT NULL,
	worker_id text,
	func text,
	article_id int,
	failed int,
	duration_secs float
);
select create_hypertable('udsearch_jobs', 'time');

*/

const (
	jobsTable    = "udsearch_jobs"
	writeTimeout = 20 * time.Second
)

// TimescaleDBWriter stores one row per finished job so
// failure rates per article and per function can be queried
// over longer periods than the in-memory monitor keeps.
type TimescaleDBWriter struct {
	writer   *hltscl.TableWriter
	dataCh   chan<- hltscl.Entry
	errCh    <-chan hltscl.WriteError
	location *time.Location
}

func (sw *TimescaleDBWriter) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-sw.errCh:
				if !ok {
					return
				}
				log.Error().
					Err(err.Err).
					Str("entry", err.Entry.String()).
					Str("table", jobsTable).
					Msg("failed to write job record to TimescaleDB")
			}
		}
	}()
}

func (sw *TimescaleDBWriter) Stop(ctx context.Context) error {
	log.Warn().Msg("stopping TimescaleDB job writer")
	return nil
}

func (sw *TimescaleDBWriter) Write(rec results.JobLog) {
	var failed int
	if rec.Err != nil {
		failed = 1
	}
	sw.dataCh <- *sw.writer.NewEntry(rec.End.In(sw.location)).
		Str("worker_id", rec.WorkerID).
		Str("func", rec.Func).
		Int("article_id", rec.ArticleID).
		Int("failed", failed).
		Float("duration_secs", rec.TimeSpent().Seconds())
}

func NewTimescaleDBWriter(
	ctx context.Context,
	conf hltscl.PgConf,
	tz *time.Location,
) (*TimescaleDBWriter, error) {
	conn, err := hltscl.CreatePool(conf)
	if err != nil {
		return nil, err
	}
	writer := hltscl.NewTableWriter(conn, jobsTable, "time", tz)
	dataCh, errCh := writer.Activate(ctx, hltscl.WithTimeout(writeTimeout))
	return &TimescaleDBWriter{
		writer:   writer,
		dataCh:   dataCh,
		errCh:    errCh,
		location: tz,
	}, nil
}
