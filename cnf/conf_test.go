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

package cnf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndValidate(t *testing.T) {
	conf, err := LoadConfig("testdata/conf.json")
	require.NoError(t, err)
	require.NoError(t, ValidateAndDefaults(conf))
	assert.Equal(t, dfltListenPort, conf.ListenPort)
	assert.Equal(t, []string{"VERB", "NOUN", "ADP"}, conf.Pattern)
	assert.Equal(t, 1, conf.NumAnnotationWorkers)
	assert.Equal(t, dfltTimeZone, conf.TimeZone)
	assert.NotNil(t, conf.TimezoneLocation())
	assert.False(t, conf.IsDebugMode())
	assert.True(t, len(conf.GetSourcePath()) > len("testdata/conf.json"))

	require.NoError(t, ValidateAnalyzer(conf))
	assert.Equal(t, 60, conf.Analyzer.UDPipe.RequestTimeoutSecs)
	require.NoError(t, ValidateRedis(conf))
	assert.Equal(t, 6379, conf.Redis.Port)
	assert.Equal(t, 2, conf.Redis.DB)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
	_, err = LoadConfig("testdata/nonexistent.json")
	assert.Error(t, err)
}

func TestValidateCorpusDir(t *testing.T) {
	assert.Error(t, ValidateAndDefaults(&Conf{}))
	assert.Error(t, ValidateAndDefaults(&Conf{CorpusDir: "testdata/conf.json"}))
	assert.Error(t, ValidateAndDefaults(&Conf{CorpusDir: t.TempDir(), TimeZone: "Mars/Olympus"}))
	assert.Error(t, ValidateAndDefaults(&Conf{CorpusDir: t.TempDir(), NumAnnotationWorkers: -2}))
}

func TestMissingSections(t *testing.T) {
	conf := &Conf{CorpusDir: t.TempDir()}
	assert.Error(t, ValidateAnalyzer(conf))
	assert.Error(t, ValidateRedis(conf))
}
