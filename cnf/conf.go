// Copyright 2019 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2019 Institute of the Czech National Corpus,
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

package cnf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"udsearch/analyzer"
	"udsearch/rdb"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/hltscl"
	"github.com/rs/zerolog/log"
)

const (
	dfltServerWriteTimeoutSecs = 30
	dfltServerReadTimeoutSecs  = 10
	dfltListenPort             = 8089
	dfltNumAnnotationWorkers   = 1
	dfltTimeZone               = "Europe/Prague"
)

var (
	dfltPattern = []string{"VERB", "NOUN", "ADP"}
)

// Conf is a global configuration of the app
type Conf struct {
	ListenAddress          string   `json:"listenAddress"`
	ListenPort             int      `json:"listenPort"`
	ServerReadTimeoutSecs  int      `json:"serverReadTimeoutSecs"`
	ServerWriteTimeoutSecs int      `json:"serverWriteTimeoutSecs"`
	CorsAllowedOrigins     []string `json:"corsAllowedOrigins"`
	AuthHeaderName         string   `json:"authHeaderName"`
	AuthTokens             []string `json:"authTokens"`

	// PublicURLs lists addresses the API is reachable at
	// (e.g. behind a proxy). They are used in the API docs.
	PublicURLs []string `json:"publicUrls"`

	// CorpusDir is a directory with `{id}_raw.txt` and
	// `{id}_meta.json` files
	CorpusDir string         `json:"corpusDir"`
	Analyzer  *analyzer.Conf `json:"analyzer"`

	// Pattern is a default POS chain to search for
	Pattern              []string `json:"pattern"`
	NumAnnotationWorkers int      `json:"numAnnotationWorkers"`

	Redis       *rdb.Conf        `json:"redis"`
	TimescaleDB *hltscl.PgConf   `json:"timescaleDb"`
	LogFile     string           `json:"logFile"`
	LogLevel    logging.LogLevel `json:"logLevel"`
	TimeZone    string           `json:"timeZone"`

	srcPath string
}

func (conf *Conf) IsDebugMode() bool {
	return conf.LogLevel == "debug"
}

func (conf *Conf) TimezoneLocation() *time.Location {
	// we can ignore the error here as we always call ValidateAndDefaults
	// first (which also tries to load the location and report possible
	// error)
	loc, _ := time.LoadLocation(conf.TimeZone)
	return loc
}

// GetSourcePath returns an absolute path of a file
// the config was loaded from.
func (conf *Conf) GetSourcePath() string {
	if filepath.IsAbs(conf.srcPath) {
		return conf.srcPath
	}
	var cwd string
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "[failed to get working dir]"
	}
	return filepath.Join(cwd, conf.srcPath)
}

func LoadConfig(path string) (*Conf, error) {
	if path == "" {
		return nil, fmt.Errorf("cannot load config - path not specified")
	}
	rawData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	var conf Conf
	conf.srcPath = path
	if err := json.Unmarshal(rawData, &conf); err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	return &conf, nil
}

// ValidateAndDefaults checks the configuration and sets default values
// for missing optional items. Sections needed only by some actions
// (analyzer, redis) are validated by ValidateAnalyzer and ValidateRedis.
func ValidateAndDefaults(conf *Conf) error {
	if conf.CorpusDir == "" {
		return fmt.Errorf("missing `corpusDir`")
	}
	isDir, err := fs.IsDir(conf.CorpusDir)
	if err != nil {
		return fmt.Errorf("failed to test `corpusDir`: %w", err)
	}
	if !isDir {
		return fmt.Errorf("`corpusDir` %s is not a directory", conf.CorpusDir)
	}
	if conf.ListenPort == 0 {
		conf.ListenPort = dfltListenPort
		log.Warn().Msgf("listenPort not specified, using default: %d", dfltListenPort)
	}
	if conf.ServerWriteTimeoutSecs == 0 {
		conf.ServerWriteTimeoutSecs = dfltServerWriteTimeoutSecs
		log.Warn().Msgf(
			"serverWriteTimeoutSecs not specified, using default: %d",
			dfltServerWriteTimeoutSecs,
		)
	}
	if conf.ServerReadTimeoutSecs == 0 {
		conf.ServerReadTimeoutSecs = dfltServerReadTimeoutSecs
		log.Warn().Msgf(
			"serverReadTimeoutSecs not specified, using default: %d",
			dfltServerReadTimeoutSecs,
		)
	}
	if len(conf.Pattern) == 0 {
		conf.Pattern = dfltPattern
		log.Warn().Strs("pattern", dfltPattern).Msg("pattern not specified, using default")
	}
	if conf.NumAnnotationWorkers == 0 {
		conf.NumAnnotationWorkers = dfltNumAnnotationWorkers
		log.Warn().Msgf(
			"numAnnotationWorkers not specified, using default: %d",
			dfltNumAnnotationWorkers,
		)

	} else if conf.NumAnnotationWorkers < 0 {
		return fmt.Errorf("invalid `numAnnotationWorkers`: %d", conf.NumAnnotationWorkers)
	}
	if conf.TimeZone == "" {
		conf.TimeZone = dfltTimeZone
		log.Warn().
			Str("timeZone", dfltTimeZone).
			Msg("time zone not specified, using default")
	}
	if _, err := time.LoadLocation(conf.TimeZone); err != nil {
		return fmt.Errorf("invalid time zone: %w", err)
	}
	return nil
}

func ValidateAnalyzer(conf *Conf) error {
	return conf.Analyzer.ValidateAndDefaults("analyzer")
}

func ValidateRedis(conf *Conf) error {
	return conf.Redis.ValidateAndDefaults("redis")
}
