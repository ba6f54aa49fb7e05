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

package rdb

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"udsearch/results"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/rs/zerolog/log"
)

const (
	cacheFileSuffix = ".cache.json"
)

func (a *Adapter) cacheFilePath(query Query) string {
	hashKey := sha1.Sum(query.Args)
	return filepath.Join(a.cachePath, query.Func+hex.EncodeToString(hashKey[:])+cacheFileSuffix)
}

// CacheResult returns a cached result of the query if available.
// Otherwise it calls fn and stores its successful result to the
// cache. With no cache directory configured, fn is called directly.
func (a *Adapter) CacheResult(
	fn func(Query) (<-chan *WorkerResult, error),
	query Query,
) (<-chan *WorkerResult, error) {
	if len(a.cachePath) == 0 {
		return fn(query)
	}
	path := a.cacheFilePath(query)
	isf, _ := fs.IsFile(path)
	if isf {
		content, err := os.ReadFile(path)
		var result WorkerResult
		if err == nil {
			err = json.Unmarshal(content, &result)
		}
		if err == nil {
			ans := make(chan *WorkerResult, 1)
			ans <- &result
			close(ans)
			log.Debug().Str("path", path).Str("func", query.Func).Msg("using cached result")
			return ans, nil
		}
		log.Error().Err(err).Msgf("Error while reading cache file %s", path)
	}

	wr, err := fn(query)
	if err != nil {
		return nil, err
	}
	ans := make(chan *WorkerResult, 1)
	go func() {
		defer close(ans)
		rawResult, ok := <-wr
		if !ok {
			return
		}
		if isCacheable(rawResult) {
			if err := a.writeCacheFile(path, rawResult); err != nil {
				log.Error().Err(err).Msgf("Error while writing cache file %s", path)
			}
		}
		ans <- rawResult
	}()
	return ans, nil
}

// isCacheable tells whether a worker result is a success. Workers
// report job failures also inside typed results.
func isCacheable(wr *WorkerResult) bool {
	if wr.ResultType == results.ResultTypeError {
		return false
	}
	res, err := DecodeResult(wr)
	if err != nil {
		log.Error().Err(err).Msg("failed to decode worker result for caching")
		return false
	}
	return res.Err() == nil
}

func (a *Adapter) writeCacheFile(path string, result *WorkerResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ClearCache removes all the cached results of the provided function
func (a *Adapter) ClearCache(fn string) error {
	if len(a.cachePath) == 0 {
		return nil
	}
	entries, err := os.ReadDir(a.cachePath)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), fn) ||
			!strings.HasSuffix(entry.Name(), cacheFileSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(a.cachePath, entry.Name())); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}
	return nil
}
