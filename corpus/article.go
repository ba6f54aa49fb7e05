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
	"fmt"
	"path/filepath"
	"udsearch/conllu"
	"udsearch/pattern"
)

type ArtifactType string

const (
	ArtifactRaw     ArtifactType = "raw"
	ArtifactMeta    ArtifactType = "meta"
	ArtifactCleaned ArtifactType = "cleaned"

	rawSuffix  = "_raw.txt"
	metaSuffix = "_meta.json"
)

// CoNLLUArtifact returns an artifact type of annotation
// produced by the provided backend (e.g. `udpipe`).
func CoNLLUArtifact(backend string) ArtifactType {
	return ArtifactType(backend + "_conllu")
}

// ArtifactPath generates a path of an article file. The path
// depends only on the article ID and the artifact type so files
// of different articles never collide.
func ArtifactPath(dir string, articleID int, at ArtifactType) string {
	switch at {
	case ArtifactRaw:
		return filepath.Join(dir, fmt.Sprintf("%d%s", articleID, rawSuffix))
	case ArtifactMeta:
		return filepath.Join(dir, fmt.Sprintf("%d%s", articleID, metaSuffix))
	case ArtifactCleaned:
		return filepath.Join(dir, fmt.Sprintf("%d_cleaned.txt", articleID))
	default:
		return filepath.Join(dir, fmt.Sprintf("%d_%s.conllu", articleID, at))
	}
}

// Article is a single text of a corpus along with all the data
// attached to it by processing pipelines. An article is always
// modified by at most one goroutine at a time.
type Article struct {
	ID   int
	Dir  string
	Text string

	// Annotation is the latest output of an analyzer backend,
	// i.e. either a CoNLL-U string or a backend-native document
	Annotation any

	// Document is a unified form of Annotation
	Document *conllu.Document

	PatternMatches pattern.Matches
	POSFrequencies map[string]int
}

func (a *Article) FilePath(at ArtifactType) string {
	return ArtifactPath(a.Dir, a.ID, at)
}

func (a *Article) MetaFilePath() string {
	return a.FilePath(ArtifactMeta)
}

func (a *Article) CleanedText() string {
	return CleanText(a.Text)
}

// Metadata describes an article as collected by the scraper.
// Attributes are opaque for the processing itself.
type Metadata struct {
	ID             int             `json:"id"`
	URL            string          `json:"url"`
	Title          string          `json:"title"`
	Author         []string        `json:"author"`
	Date           string          `json:"date"`
	Topics         []string        `json:"topics"`
	POSFrequencies map[string]int  `json:"pos_frequencies,omitempty"`
	PatternMatches pattern.Matches `json:"pattern_matches,omitempty"`
}
