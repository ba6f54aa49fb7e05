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

package corpus

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
	"udsearch/merror"
	"udsearch/pattern"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	dir := mkDataset(t, []int{3, 1, 2}, []int{1, 2, 3})
	m, err := NewManager(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []int{1, 2, 3}, m.SortedIDs())
	a, ok := m.Get(2)
	require.True(t, ok)
	assert.Equal(t, "Text of article 2.", a.Text)
	assert.Equal(t, dir, a.Dir)
	for i, a := range m.Sorted() {
		assert.Equal(t, i+1, a.ID)
	}
	assert.Len(t, m.Articles(), 3)
}

func TestNewManagerInvalidDataset(t *testing.T) {
	_, err := NewManager(mkDataset(t, []int{1, 2, 3}, []int{1, 2}))
	var dcErr merror.DatasetConsistencyError
	assert.True(t, errors.As(err, &dcErr))
}

func TestArtifactPath(t *testing.T) {
	assert.Equal(t, "/data/3_raw.txt", ArtifactPath("/data", 3, ArtifactRaw))
	assert.Equal(t, "/data/3_meta.json", ArtifactPath("/data", 3, ArtifactMeta))
	assert.Equal(t, "/data/3_cleaned.txt", ArtifactPath("/data", 3, ArtifactCleaned))
	assert.Equal(
		t, "/data/3_stanza_conllu.conllu", ArtifactPath("/data", 3, CoNLLUArtifact("stanza")))
}

func TestWriteCleaned(t *testing.T) {
	dir := mkDataset(t, []int{1}, []int{1})
	m, err := NewManager(dir)
	require.NoError(t, err)
	a, _ := m.Get(1)
	require.NoError(t, WriteCleaned(a))
	data, err := os.ReadFile(a.FilePath(ArtifactCleaned))
	require.NoError(t, err)
	assert.Equal(t, "text of article 1", string(data))
}

func TestUpdateMetaPreservesKeys(t *testing.T) {
	dir := mkDataset(t, []int{1}, []int{1})
	writeFile(t, ArtifactPath(dir, 1, ArtifactMeta), `{"id": 1, "title": "T", "custom": {"a": 1}}`)
	a, err := LoadRaw(ArtifactPath(dir, 1, ArtifactRaw))
	require.NoError(t, err)

	matches := pattern.Matches{2: {{UPOS: "VERB", Text: "went", Children: []*pattern.TreeNode{}}}}
	require.NoError(t, UpdateMeta(a, "pattern_matches", matches))

	meta, err := ReadMeta(a)
	require.NoError(t, err)
	assert.Equal(t, "T", meta.Title)
	assert.Equal(t, matches, meta.PatternMatches)

	data, err := os.ReadFile(a.MetaFilePath())
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, map[string]any{"a": float64(1)}, raw["custom"])
}

func TestUpdateMetaCreatesFile(t *testing.T) {
	a := &Article{ID: 5, Dir: t.TempDir()}
	require.NoError(t, UpdateMeta(a, "pos_frequencies", map[string]int{"NOUN": 2}))
	meta, err := ReadMeta(a)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"NOUN": 2}, meta.POSFrequencies)
}

func TestLoadRawInvalidName(t *testing.T) {
	_, err := LoadRaw("/tmp/foo.txt")
	assert.Error(t, err)
}
