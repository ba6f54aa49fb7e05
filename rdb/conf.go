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

package rdb

import (
	"fmt"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/rs/zerolog/log"
)

const (
	dfltPort = 6379
)

type Conf struct {
	Host                string `json:"host"`
	Port                int    `json:"port"`
	DB                  int    `json:"db"`
	Password            string `json:"password"`
	ChannelQuery        string `json:"channelQuery"`
	ChannelResultPrefix string `json:"channelResultPrefix"`

	// QueryAnswerTimeoutSecs specifies how long the API server
	// waits for a worker result
	QueryAnswerTimeoutSecs int `json:"queryAnswerTimeoutSecs"`

	// CachePath is an optional directory for caching pattern
	// search results
	CachePath string `json:"cachePath"`
}

func (conf *Conf) ValidateAndDefaults(confContext string) error {
	if conf == nil {
		return fmt.Errorf("missing configuration section `%s`", confContext)
	}
	if conf.Host == "" {
		return fmt.Errorf("missing `%s.host`", confContext)
	}
	if conf.Port == 0 {
		conf.Port = dfltPort
		log.Warn().
			Int("value", dfltPort).
			Msgf("%s.port not specified, using default", confContext)
	}
	if conf.ChannelQuery == "" {
		conf.ChannelQuery = DefaultQueryChannel
		log.Warn().
			Str("channel", conf.ChannelQuery).
			Msgf("%s.channelQuery not specified, using default", confContext)
	}
	if conf.ChannelResultPrefix == "" {
		conf.ChannelResultPrefix = DefaultResultChannelPrefix
		log.Warn().
			Str("channel", conf.ChannelResultPrefix).
			Msgf("%s.channelResultPrefix not specified, using default", confContext)
	}
	if conf.QueryAnswerTimeoutSecs == 0 {
		conf.QueryAnswerTimeoutSecs = int(DefaultQueryAnswerTimeout.Seconds())
		log.Warn().
			Int("value", conf.QueryAnswerTimeoutSecs).
			Msgf("%s.queryAnswerTimeoutSecs not specified, using default", confContext)
	}
	if conf.CachePath != "" {
		isDir, err := fs.IsDir(conf.CachePath)
		if err != nil {
			return fmt.Errorf("failed to test `%s.cachePath`: %w", confContext, err)
		}
		if !isDir {
			return fmt.Errorf("`%s.cachePath` is not a directory", confContext)
		}
	}
	return nil
}
