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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"udsearch/results"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	MsgNewQuery                = "newQuery"
	DefaultQueueKey            = "udsearchQueue"
	DefaultResultChannelPrefix = "udsearchResults"
	DefaultQueryChannel        = "udsearchQueries"
	DefaultResultExpiration    = 10 * time.Minute
	DefaultQueryAnswerTimeout  = 60 * time.Second
	DefaultJobLogQueueKey      = "udsearchJobLogs"
	maxJobLogQueueLength       = 10000
)

var (
	ErrorEmptyQueue = errors.New("no queries in the queue")
)

type Query struct {
	Channel string          `json:"channel"`
	Func    string          `json:"func"`
	Args    json.RawMessage `json:"args"`
}

func (q Query) ToJSON() (string, error) {
	ans, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	return string(ans), nil
}

func NewQuery(fn string, args any) (Query, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return Query{}, fmt.Errorf("failed to create query %s: %w", fn, err)
	}
	return Query{Func: fn, Args: data}, nil
}

func DecodeQuery(q string) (Query, error) {
	var ans Query
	err := json.Unmarshal([]byte(q), &ans)
	return ans, err
}

// Adapter provides a Redis based job queue shared by the API
// server (which publishes queries) and workers (which process
// them and publish results).
type Adapter struct {
	ctx                 context.Context
	c                   *redis.Client
	channelQuery        string
	channelResultPrefix string
	cachePath           string
}

func (a *Adapter) TestConnection(timeout time.Duration) error {
	tick := time.NewTicker(2 * time.Second)
	defer tick.Stop()
	timeoutCh := time.After(timeout)
	for {
		select {
		case <-timeoutCh:
			return fmt.Errorf("failed to connect to Redis at %s: timeout", a.c.Options().Addr)
		case <-a.ctx.Done():
			return a.ctx.Err()
		case <-tick.C:
			log.Info().Str("address", a.c.Options().Addr).Msg("waiting for Redis server")
			if err := a.c.Ping(a.ctx).Err(); err != nil {
				log.Error().Err(err).Msg("failed to ping Redis server, will try again")

			} else {
				log.Info().Msg("Redis connection OK")
				return nil
			}
		}
	}
}

func (a *Adapter) SomeoneListens(query Query) (bool, error) {
	cmd := a.c.PubSubNumSub(a.ctx, query.Channel)
	if cmd.Err() != nil {
		return false, fmt.Errorf("failed to check channel listeners: %w", cmd.Err())
	}
	return cmd.Val()[query.Channel] > 0, nil
}

// PublishQuery publishes a new query and returns a channel
// which will receive the result. In case no result arrives
// within the timeout, an error result is produced.
func (a *Adapter) PublishQuery(query Query, timeout time.Duration) (<-chan *WorkerResult, error) {
	query.Channel = fmt.Sprintf("%s:%s", a.channelResultPrefix, uuid.New().String())
	log.Debug().
		Str("channel", query.Channel).
		Str("func", query.Func).
		RawJSON("args", query.Args).
		Msg("publishing query")

	msg, err := query.ToJSON()
	if err != nil {
		return nil, err
	}
	sub := a.c.Subscribe(a.ctx, query.Channel)
	if err := a.c.LPush(a.ctx, DefaultQueueKey, msg).Err(); err != nil {
		sub.Close()
		return nil, err
	}
	ans := make(chan *WorkerResult)

	// now we wait for response and send result via `ans`
	go func() {
		defer close(ans)
		defer sub.Close()
		result := new(WorkerResult)
		select {
		case item := <-sub.Channel():
			cmd := a.c.Get(a.ctx, item.Payload)
			if cmd.Err() != nil {
				result.AttachValue(&results.ErrorResult{Func: query.Func, Error: cmd.Err().Error()})

			} else if err := json.Unmarshal([]byte(cmd.Val()), result); err != nil {
				result.AttachValue(&results.ErrorResult{Func: query.Func, Error: err.Error()})
			}
		case <-time.After(timeout):
			result.AttachValue(&results.ErrorResult{
				Func:  query.Func,
				Error: fmt.Sprintf("worker result timeout (%s)", timeout),
			})
		case <-a.ctx.Done():
			result.AttachValue(&results.ErrorResult{Func: query.Func, Error: a.ctx.Err().Error()})
		}
		ans <- result
	}()
	return ans, a.c.Publish(a.ctx, a.channelQuery, MsgNewQuery).Err()
}

func (a *Adapter) DequeueQuery() (Query, error) {
	cmd := a.c.RPop(a.ctx, DefaultQueueKey)
	if errors.Is(cmd.Err(), redis.Nil) {
		return Query{}, ErrorEmptyQueue

	} else if cmd.Err() != nil {
		return Query{}, fmt.Errorf("failed to dequeue query: %w", cmd.Err())
	}
	q, err := DecodeQuery(cmd.Val())
	if err != nil {
		return Query{}, fmt.Errorf("failed to deserialize query: %w", err)
	}
	return q, nil
}

func (a *Adapter) PublishResult(channelName string, value *WorkerResult) error {
	log.Debug().
		Str("channel", channelName).
		Str("resultType", value.ResultType.String()).
		Msg("publishing result")
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	if err := a.c.Set(a.ctx, channelName, string(data), DefaultResultExpiration).Err(); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return a.c.Publish(a.ctx, channelName, channelName).Err()
}

// PublishJobLog passes a worker job record to the API server.
// Only a limited number of the most recent records is kept.
func (a *Adapter) PublishJobLog(rec results.JobLog) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize job log: %w", err)
	}
	if err := a.c.LPush(a.ctx, DefaultJobLogQueueKey, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to publish job log: %w", err)
	}
	return a.c.LTrim(a.ctx, DefaultJobLogQueueKey, 0, maxJobLogQueueLength-1).Err()
}

func (a *Adapter) DequeueJobLog() (results.JobLog, error) {
	var ans results.JobLog
	cmd := a.c.RPop(a.ctx, DefaultJobLogQueueKey)
	if errors.Is(cmd.Err(), redis.Nil) {
		return ans, ErrorEmptyQueue

	} else if cmd.Err() != nil {
		return ans, fmt.Errorf("failed to dequeue job log: %w", cmd.Err())
	}
	if err := json.Unmarshal([]byte(cmd.Val()), &ans); err != nil {
		return ans, fmt.Errorf("failed to deserialize job log: %w", err)
	}
	return ans, nil
}

func (a *Adapter) Subscribe() <-chan *redis.Message {
	sub := a.c.Subscribe(a.ctx, a.channelQuery)
	return sub.Channel()
}

// NewAdapter creates a Redis adapter. The configuration
// is expected to be validated already.
func NewAdapter(conf *Conf, ctx context.Context) *Adapter {
	return &Adapter{
		c: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", conf.Host, conf.Port),
			Password: conf.Password,
			DB:       conf.DB,
		}),
		ctx:                 ctx,
		channelQuery:        conf.ChannelQuery,
		channelResultPrefix: conf.ChannelResultPrefix,
		cachePath:           conf.CachePath,
	}
}
