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
	"fmt"
	"os"
	"path/filepath"

	"github.com/czcorpus/cnc-gokit/fs"
)

const (
	metaIndent = "    "
)

// LoadRaw creates an article from a `{id}_raw.txt` file
func LoadRaw(path string) (*Article, error) {
	id, ok := parseArticleID(filepath.Base(path))
	if !ok {
		return nil, fmt.Errorf("cannot determine article ID from %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load raw article: %w", err)
	}
	return &Article{
		ID:   id,
		Dir:  filepath.Dir(path),
		Text: string(data),
	}, nil
}

// WriteCleaned stores a cleaned version of the article text
func WriteCleaned(article *Article) error {
	if err := os.WriteFile(
		article.FilePath(ArtifactCleaned), []byte(article.CleanedText()), 0644); err != nil {
		return fmt.Errorf("failed to write cleaned text of article %d: %w", article.ID, err)
	}
	return nil
}

// ReadMeta loads article metadata
func ReadMeta(article *Article) (*Metadata, error) {
	data, err := os.ReadFile(article.MetaFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata of article %d: %w", article.ID, err)
	}
	var ans Metadata
	if err := json.Unmarshal(data, &ans); err != nil {
		return nil, fmt.Errorf("failed to read metadata of article %d: %w", article.ID, err)
	}
	return &ans, nil
}

// UpdateMeta sets a single top-level key of the article metadata file.
// All the other keys (including the ones unknown to Metadata) are kept.
// If the file does not exist yet, it is created.
func UpdateMeta(article *Article, key string, value any) error {
	path := article.MetaFilePath()
	entries := make(map[string]json.RawMessage)
	isFile, err := fs.IsFile(path)
	if err != nil {
		return fmt.Errorf("failed to update metadata of article %d: %w", article.ID, err)
	}
	if isFile {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to update metadata of article %d: %w", article.ID, err)
		}
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("failed to update metadata of article %d: %w", article.ID, err)
		}
	}
	encValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to update metadata of article %d: %w", article.ID, err)
	}
	entries[key] = encValue
	data, err := json.MarshalIndent(entries, "", metaIndent)
	if err != nil {
		return fmt.Errorf("failed to update metadata of article %d: %w", article.ID, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to update metadata of article %d: %w", article.ID, err)
	}
	return nil
}
