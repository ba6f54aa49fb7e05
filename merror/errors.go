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

package merror

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type InputError struct {
	Msg string
}

func (err InputError) Error() string {
	return err.Msg
}

func (err InputError) MarshalJSON() ([]byte, error) {
	if err.Msg != "" {
		return json.Marshal(err.Msg)
	}
	return json.Marshal(nil)
}

// ----------------------------

type DatasetStructureKind int

const (
	MissingPath DatasetStructureKind = iota + 1
	NotADirectory
	EmptyDirectory
)

func (k DatasetStructureKind) String() string {
	switch k {
	case MissingPath:
		return "MissingPath"
	case NotADirectory:
		return "NotADirectory"
	case EmptyDirectory:
		return "EmptyDirectory"
	default:
		return "Unknown"
	}
}

// DatasetStructureError reports a corpus directory which cannot
// be processed at all.
type DatasetStructureError struct {
	Kind DatasetStructureKind
	Path string
}

func (err DatasetStructureError) Error() string {
	switch err.Kind {
	case MissingPath:
		return fmt.Sprintf("dataset directory %s does not exist", err.Path)
	case NotADirectory:
		return fmt.Sprintf("dataset path %s is not a directory", err.Path)
	case EmptyDirectory:
		return fmt.Sprintf("dataset directory %s is empty", err.Path)
	}
	return fmt.Sprintf("invalid dataset directory %s", err.Path)
}

func (err DatasetStructureError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string `json:"kind"`
		Path    string `json:"path"`
		Message string `json:"message"`
	}{
		Kind:    err.Kind.String(),
		Path:    err.Path,
		Message: err.Error(),
	})
}

// ----------------------------

type DatasetConsistencyKind int

const (
	RawMetaCountMismatch DatasetConsistencyKind = iota + 1
	MissingRawIDs
	MissingMetaIDs
	DuplicateRawIDs
	DuplicateMetaIDs
	EmptyArtifact
)

func (k DatasetConsistencyKind) String() string {
	switch k {
	case RawMetaCountMismatch:
		return "RawMetaCountMismatch"
	case MissingRawIDs:
		return "MissingRawIds"
	case MissingMetaIDs:
		return "MissingMetaIds"
	case DuplicateRawIDs:
		return "DuplicateRawIds"
	case DuplicateMetaIDs:
		return "DuplicateMetaIds"
	case EmptyArtifact:
		return "EmptyArtifact"
	default:
		return "Unknown"
	}
}

// DatasetConsistencyError reports a corpus directory whose
// raw and meta artifacts do not form a dense 1..N id range
// or contain an empty file.
type DatasetConsistencyError struct {
	Kind    DatasetConsistencyKind
	NumRaw  int
	NumMeta int
	IDs     []int
	Path    string
}

func formatIDs(ids []int) string {
	tmp := make([]string, len(ids))
	for i, v := range ids {
		tmp[i] = fmt.Sprintf("%d", v)
	}
	return "{" + strings.Join(tmp, ", ") + "}"
}

func (err DatasetConsistencyError) Error() string {
	switch err.Kind {
	case RawMetaCountMismatch:
		return fmt.Sprintf(
			"number of meta and raw files is not equal: %d != %d", err.NumRaw, err.NumMeta)
	case MissingRawIDs:
		return fmt.Sprintf("raw IDs in dataset are not found: %s", formatIDs(err.IDs))
	case MissingMetaIDs:
		return fmt.Sprintf("meta IDs in dataset are not found: %s", formatIDs(err.IDs))
	case DuplicateRawIDs:
		return fmt.Sprintf("raw IDs in dataset are duplicated: %s", formatIDs(err.IDs))
	case DuplicateMetaIDs:
		return fmt.Sprintf("meta IDs in dataset are duplicated: %s", formatIDs(err.IDs))
	case EmptyArtifact:
		return fmt.Sprintf("dataset file %s is empty", err.Path)
	}
	return "inconsistent dataset"
}

func (err DatasetConsistencyError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string `json:"kind"`
		IDs     []int  `json:"ids,omitempty"`
		Path    string `json:"path,omitempty"`
		Message string `json:"message"`
	}{
		Kind:    err.Kind.String(),
		IDs:     err.IDs,
		Path:    err.Path,
		Message: err.Error(),
	})
}

// ----------------------------

type AnnotationKind int

const (
	BootstrapFailure AnnotationKind = iota + 1
	BackendRejected
	InvariantViolation
)

func (k AnnotationKind) String() string {
	switch k {
	case BootstrapFailure:
		return "BootstrapFailure"
	case BackendRejected:
		return "BackendRejected"
	case InvariantViolation:
		return "InvariantViolation"
	default:
		return "Unknown"
	}
}

// AnnotationError is produced by analyzers. Only BootstrapFailure
// is fatal for a whole run, the other kinds concern a single article.
type AnnotationError struct {
	Kind      AnnotationKind
	Backend   string
	ArticleID int

	// SentenceIdx is a 1-based sentence index (InvariantViolation only)
	SentenceIdx int
	Reason      string
	Cause       error
}

func (err AnnotationError) Error() string {
	var ans strings.Builder
	ans.WriteString(fmt.Sprintf("%s annotation error", err.Backend))
	if err.ArticleID > 0 {
		ans.WriteString(fmt.Sprintf(" (article %d)", err.ArticleID))
	}
	switch err.Kind {
	case BootstrapFailure:
		ans.WriteString(": failed to bootstrap analyzer")
	case BackendRejected:
		ans.WriteString(": backend rejected input")
	case InvariantViolation:
		ans.WriteString(fmt.Sprintf(": invalid dependency tree in sentence %d", err.SentenceIdx))
	}
	if err.Reason != "" {
		ans.WriteString(": " + err.Reason)
	}
	if err.Cause != nil {
		ans.WriteString(": " + err.Cause.Error())
	}
	return ans.String()
}

func (err AnnotationError) Unwrap() error {
	return err.Cause
}

func (err AnnotationError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind        string `json:"kind"`
		ArticleID   int    `json:"articleId,omitempty"`
		SentenceIdx int    `json:"sentenceIdx,omitempty"`
		Message     string `json:"message"`
	}{
		Kind:        err.Kind.String(),
		ArticleID:   err.ArticleID,
		SentenceIdx: err.SentenceIdx,
		Message:     err.Error(),
	})
}

// ----------------------------

type GraphConstructionKind int

const (
	MultipleRoots GraphConstructionKind = iota + 1
	DanglingHead
	Cycle
)

func (k GraphConstructionKind) String() string {
	switch k {
	case MultipleRoots:
		return "MultipleRoots"
	case DanglingHead:
		return "DanglingHead"
	case Cycle:
		return "Cycle"
	default:
		return "Unknown"
	}
}

// GraphConstructionError concerns a single sentence. Such a sentence
// is excluded from pattern search, the rest of the document is not
// affected.
type GraphConstructionError struct {
	Kind        GraphConstructionKind
	SentenceIdx int
	TokenID     int
}

func (err GraphConstructionError) Error() string {
	switch err.Kind {
	case MultipleRoots:
		return fmt.Sprintf("sentence %d has multiple roots", err.SentenceIdx)
	case DanglingHead:
		return fmt.Sprintf(
			"sentence %d: token %d refers to a non-existing head", err.SentenceIdx, err.TokenID)
	case Cycle:
		return fmt.Sprintf("sentence %d: dependency cycle detected", err.SentenceIdx)
	}
	return fmt.Sprintf("sentence %d: failed to build graph", err.SentenceIdx)
}

func (err GraphConstructionError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind        string `json:"kind"`
		SentenceIdx int    `json:"sentenceIdx"`
		TokenID     int    `json:"tokenId,omitempty"`
		Message     string `json:"message"`
	}{
		Kind:        err.Kind.String(),
		SentenceIdx: err.SentenceIdx,
		TokenID:     err.TokenID,
		Message:     err.Error(),
	})
}

// ----------------------------

type PatternSpecKind int

const (
	EmptyPatternTuple PatternSpecKind = iota + 1
	EmptyPatternRole
)

type PatternSpecError struct {
	Kind PatternSpecKind
	Role int
}

func (err PatternSpecError) Error() string {
	if err.Kind == EmptyPatternRole {
		return fmt.Sprintf("invalid pattern: role %d is empty", err.Role)
	}
	return "invalid pattern: no part of speech specified"
}

func (err PatternSpecError) MarshalJSON() ([]byte, error) {
	return json.Marshal(err.Error())
}

// -----------------

// IsFatalForRun tells whether the error must stop processing
// of the whole corpus (as opposed to a single article or sentence).
func IsFatalForRun(err error) bool {
	var dsErr DatasetStructureError
	var dcErr DatasetConsistencyError
	var psErr PatternSpecError
	var anErr AnnotationError
	switch {
	case errors.As(err, &dsErr), errors.As(err, &dcErr), errors.As(err, &psErr):
		return true
	case errors.As(err, &anErr):
		return anErr.Kind == BootstrapFailure
	}
	return false
}

func PanicValueToErr(v any) (err error) {
	switch tr := v.(type) {
	case error:
		err = fmt.Errorf("recovered panic: %w", tr)
	case string:
		err = fmt.Errorf("recovered panic: %s", tr)
	default:
		err = fmt.Errorf("recovered panic from an error of type %T", v)
	}
	return
}
