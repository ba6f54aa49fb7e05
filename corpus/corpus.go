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

package corpus

import (
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
)

// Manager holds all the articles of a corpus directory. The set
// of articles is fixed once the manager is created, only the
// articles' payload changes during processing.
type Manager struct {
	path    string
	storage map[int]*Article
}

func (m *Manager) Path() string {
	return m.path
}

// Articles returns the internal id -> article mapping. The map must
// be treated as read-only.
func (m *Manager) Articles() map[int]*Article {
	return m.storage
}

func (m *Manager) Get(articleID int) (*Article, bool) {
	a, ok := m.storage[articleID]
	return a, ok
}

func (m *Manager) Len() int {
	return len(m.storage)
}

// SortedIDs returns article IDs in ascending order
func (m *Manager) SortedIDs() []int {
	ans := make([]int, 0, len(m.storage))
	for id := range m.storage {
		ans = append(ans, id)
	}
	sort.Ints(ans)
	return ans
}

// Sorted returns articles in ascending order of their IDs
func (m *Manager) Sorted() []*Article {
	ids := m.SortedIDs()
	ans := make([]*Article, len(ids))
	for i, id := range ids {
		ans[i] = m.storage[id]
	}
	return ans
}

func (m *Manager) scanDataset() error {
	entries, err := os.ReadDir(m.path)
	if err != nil {
		return fmt.Errorf("failed to scan dataset: %w", err)
	}
	for _, item := range listArtifacts(entries, rawSuffix) {
		if item.id < 1 {
			continue
		}
		article, err := LoadRaw(ArtifactPath(m.path, item.id, ArtifactRaw))
		if err != nil {
			return fmt.Errorf("failed to scan dataset: %w", err)
		}
		m.storage[item.id] = article
	}
	log.Debug().
		Str("path", m.path).
		Int("numArticles", len(m.storage)).
		Msg("scanned dataset")
	return nil
}

// NewManager validates a corpus directory and loads raw texts
// of all its articles.
func NewManager(path string) (*Manager, error) {
	if err := ValidateDataset(path); err != nil {
		return nil, err
	}
	ans := &Manager{
		path:    path,
		storage: make(map[int]*Article),
	}
	if err := ans.scanDataset(); err != nil {
		return nil, err
	}
	return ans, nil
}
