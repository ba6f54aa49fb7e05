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
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"udsearch/merror"

	"github.com/czcorpus/cnc-gokit/fs"
)

// parseArticleID extracts a numeric prefix from a file name like
// `12_raw.txt`. Only plain decimal prefixes are accepted.
func parseArticleID(filename string) (int, bool) {
	prefix, _, found := strings.Cut(filename, "_")
	if !found || prefix == "" {
		return 0, false
	}
	for _, c := range prefix {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}
	return id, true
}

type datasetFile struct {
	name string
	id   int
}

// listArtifacts returns all regular files with the provided suffix,
// sorted by their name.
func listArtifacts(entries []os.DirEntry, suffix string) []datasetFile {
	ans := make([]datasetFile, 0, len(entries)/2)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		id, ok := parseArticleID(e.Name())
		if !ok {
			id = -1
		}
		ans = append(ans, datasetFile{name: e.Name(), id: id})
	}
	sort.Slice(ans, func(i, j int) bool { return ans[i].name < ans[j].name })
	return ans
}

// findMissingIDs compares found IDs with the expected sequence 1..len(files).
// IDs written more than once (e.g. `01_raw.txt` along with `1_raw.txt`)
// are returned as duplicates.
func findMissingIDs(files []datasetFile) (missing []int, duplicates []int) {
	found := make(map[int]int, len(files))
	for _, f := range files {
		found[f.id]++
	}
	missing = make([]int, 0, 5)
	duplicates = make([]int, 0, 5)
	for i := 1; i <= len(files); i++ {
		switch found[i] {
		case 0:
			missing = append(missing, i)
		case 1:
		default:
			duplicates = append(duplicates, i)
		}
	}
	return
}

func checkIDs(files []datasetFile, missingKind, duplicateKind merror.DatasetConsistencyKind) error {
	missing, duplicates := findMissingIDs(files)
	if len(duplicates) > 0 {
		return merror.DatasetConsistencyError{Kind: duplicateKind, IDs: duplicates}
	}
	if len(missing) > 0 {
		return merror.DatasetConsistencyError{Kind: missingKind, IDs: missing}
	}
	return nil
}

func checkNonEmpty(dir string, files []datasetFile) error {
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		size, err := fs.FileSize(path)
		if err != nil {
			return fmt.Errorf("failed to validate dataset: %w", err)
		}
		if size == 0 {
			return merror.DatasetConsistencyError{Kind: merror.EmptyArtifact, Path: path}
		}
	}
	return nil
}

// ValidateDataset checks whether a directory contains a consistent
// set of articles, i.e. files `{id}_raw.txt` and `{id}_meta.json`
// where ids form the sequence 1..N and no file is empty.
// The function does not modify anything.
func ValidateDataset(path string) error {
	if !fs.PathExists(path) {
		return merror.DatasetStructureError{Kind: merror.MissingPath, Path: path}
	}
	isDir, err := fs.IsDir(path)
	if err != nil {
		return fmt.Errorf("failed to validate dataset: %w", err)
	}
	if !isDir {
		return merror.DatasetStructureError{Kind: merror.NotADirectory, Path: path}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("failed to validate dataset: %w", err)
	}
	if len(entries) == 0 {
		return merror.DatasetStructureError{Kind: merror.EmptyDirectory, Path: path}
	}

	raw := listArtifacts(entries, rawSuffix)
	meta := listArtifacts(entries, metaSuffix)
	if len(raw) != len(meta) {
		return merror.DatasetConsistencyError{
			Kind:    merror.RawMetaCountMismatch,
			NumRaw:  len(raw),
			NumMeta: len(meta),
		}
	}
	if err := checkIDs(raw, merror.MissingRawIDs, merror.DuplicateRawIDs); err != nil {
		return err
	}
	if err := checkIDs(meta, merror.MissingMetaIDs, merror.DuplicateMetaIDs); err != nil {
		return err
	}
	if err := checkNonEmpty(path, raw); err != nil {
		return err
	}
	return checkNonEmpty(path, meta)
}
