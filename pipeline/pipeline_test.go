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

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"udsearch/analyzer"
	"udsearch/conllu"
	"udsearch/corpus"
	"udsearch/merror"
	"udsearch/pattern"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fakeBackend = "fake"

	annotDogChasesCat = "# sent_id = 1\n# text = Dog chases cat.\n" +
		"1\tDog\tdog\tNOUN\t_\t_\t2\tnsubj\t_\t_\n" +
		"2\tchases\tchase\tVERB\t_\t_\t0\troot\t_\t_\n" +
		"3\tcat\tcat\tNOUN\t_\t_\t2\tobj\t_\t_\n" +
		"4\t.\t.\tPUNCT\t_\t_\t2\tpunct\t_\t_\n\n"

	annotRedBoxes = "# sent_id = 1\n# text = Big red boxes.\n" +
		"1\tBig\tbig\tADJ\t_\t_\t3\tamod\t_\t_\n" +
		"2\tred\tred\tADJ\t_\t_\t3\tamod\t_\t_\n" +
		"3\tboxes\tbox\tNOUN\t_\t_\t0\troot\t_\t_\n" +
		"4\t.\t.\tPUNCT\t_\t_\t3\tpunct\t_\t_\n\n"

	annotTwoRoots = "# sent_id = 1\n" +
		"1\tDog\tdog\tNOUN\t_\t_\t0\troot\t_\t_\n" +
		"2\tbarks\tbark\tVERB\t_\t_\t0\troot\t_\t_\n\n"
)

var fakeResponses = map[string]string{
	"Dog chases cat.": annotDogChasesCat,
	"Big red boxes.":  annotRedBoxes,
	"Dog barks.":      annotTwoRoots,
}

// fakeAnalyzer maps known texts to prepared CoNLL-U annotations
type fakeAnalyzer struct{}

func (a *fakeAnalyzer) Name() string {
	return fakeBackend
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, texts []string) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ans := make([]any, len(texts))
	for i, t := range texts {
		res, ok := fakeResponses[t]
		if !ok {
			return nil, merror.AnnotationError{
				Kind:    merror.BackendRejected,
				Backend: fakeBackend,
				Reason:  "unknown text",
			}
		}
		ans[i] = res
	}
	return ans, nil
}

func (a *fakeAnalyzer) Persist(article *corpus.Article) error {
	return os.WriteFile(
		article.FilePath(corpus.CoNLLUArtifact(fakeBackend)),
		[]byte(article.Annotation.(string)),
		0644,
	)
}

func (a *fakeAnalyzer) Reload(article *corpus.Article) (any, error) {
	data, err := os.ReadFile(article.FilePath(corpus.CoNLLUArtifact(fakeBackend)))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (a *fakeAnalyzer) Unify(annotation any) (*conllu.Document, error) {
	doc, err := conllu.ParseString(annotation.(string))
	if err != nil {
		return nil, err
	}
	for i, sent := range doc.Sentences {
		if v := sent.CheckTree(); v != nil {
			return nil, merror.AnnotationError{
				Kind:        merror.InvariantViolation,
				Backend:     fakeBackend,
				SentenceIdx: i + 1,
				Reason:      v.String(),
			}
		}
	}
	return doc, nil
}

func mkCorpus(t *testing.T, texts ...string) *corpus.Manager {
	dir := t.TempDir()
	for i, text := range texts {
		id := i + 1
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, fmt.Sprintf("%d_raw.txt", id)), []byte(text), 0644))
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, fmt.Sprintf("%d_meta.json", id)),
			[]byte(fmt.Sprintf(`{"id": %d, "title": "Article %d"}`, id, id)),
			0644,
		))
	}
	corp, err := corpus.NewManager(dir)
	require.NoError(t, err)
	return corp
}

func readMetaMap(t *testing.T, article *corpus.Article) map[string]json.RawMessage {
	data, err := os.ReadFile(article.MetaFilePath())
	require.NoError(t, err)
	var ans map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &ans))
	return ans
}

func TestTextProcessingWithoutAnalyzer(t *testing.T) {
	corp := mkCorpus(t, "Dog chases cat.", "Big red boxes.")
	report, err := NewTextProcessingPipeline(corp, nil, 1).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.NumProcessed)
	assert.Empty(t, report.Failures)

	for _, article := range corp.Sorted() {
		assert.FileExists(t, article.FilePath(corpus.ArtifactCleaned))
		assert.NoFileExists(t, article.FilePath(corpus.CoNLLUArtifact(fakeBackend)))
		assert.Nil(t, article.Annotation)
	}
	a1, _ := corp.Get(1)
	data, err := os.ReadFile(a1.FilePath(corpus.ArtifactCleaned))
	require.NoError(t, err)
	assert.Equal(t, "dog chases cat", string(data))
}

func TestTextProcessingIsolatesFailures(t *testing.T) {
	corp := mkCorpus(t, "Dog chases cat.", "Something unknown.", "Big red boxes.", "Dog barks.")
	report, err := NewTextProcessingPipeline(corp, &fakeAnalyzer{}, 3).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.NumArticles)
	assert.Equal(t, 2, report.NumProcessed)
	assert.Equal(t, []int{2, 4}, report.FailedIDs())
	assert.Error(t, report.Err())

	var anErr merror.AnnotationError
	require.ErrorAs(t, report.Failures[0].Err, &anErr)
	assert.Equal(t, merror.BackendRejected, anErr.Kind)
	assert.Equal(t, 2, anErr.ArticleID)
	require.ErrorAs(t, report.Failures[1].Err, &anErr)
	assert.Equal(t, merror.InvariantViolation, anErr.Kind)
	assert.Equal(t, 4, anErr.ArticleID)

	for _, id := range []int{1, 3} {
		article, _ := corp.Get(id)
		assert.NotNil(t, article.Document)
		assert.FileExists(t, article.FilePath(corpus.CoNLLUArtifact(fakeBackend)))
	}
	for _, id := range []int{2, 4} {
		article, _ := corp.Get(id)
		assert.Nil(t, article.Annotation)
		assert.Nil(t, article.Document)
		assert.FileExists(t, article.FilePath(corpus.ArtifactCleaned))
	}
}

// newStallingUDPipe creates a UDPipe service which never answers
// requests containing the `stall` text
func newStallingUDPipe(t *testing.T, stall string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models": {"english-ewt": ["tokenizer", "tagger", "parser"]}, "default_model": "english-ewt"}`))
	})
	mux.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		text := r.PostForm.Get("data")
		if text == stall {
			<-r.Context().Done()
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"model":  "english-ewt",
			"result": fakeResponses[text],
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestTextProcessingBackendTimeoutIsArticleFailure(t *testing.T) {
	srv := newStallingUDPipe(t, "Dog barks.")
	an, err := analyzer.New(context.Background(), &analyzer.Conf{
		Backend: analyzer.BackendUDPipe,
		UDPipe:  &analyzer.UDPipeConf{URL: srv.URL, RequestTimeoutSecs: 1},
	})
	require.NoError(t, err)

	corp := mkCorpus(t, "Dog barks.", "Dog chases cat.", "Big red boxes.")
	report, err := NewTextProcessingPipeline(corp, an, 1).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.NumArticles)
	assert.Equal(t, 2, report.NumProcessed)
	assert.Equal(t, []int{1}, report.FailedIDs())

	var anErr merror.AnnotationError
	require.ErrorAs(t, report.Failures[0].Err, &anErr)
	assert.Equal(t, 1, anErr.ArticleID)
	assert.Equal(t, merror.BackendRejected, anErr.Kind)

	for _, id := range []int{2, 3} {
		article, _ := corp.Get(id)
		assert.NotNil(t, article.Document)
		assert.FileExists(t, article.FilePath(corpus.CoNLLUArtifact(analyzer.BackendUDPipe)))
	}
}

func TestTextProcessingCancelled(t *testing.T) {
	corp := mkCorpus(t, "Dog chases cat.")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTextProcessingPipeline(corp, &fakeAnalyzer{}, 1).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPOSFrequencies(t *testing.T) {
	corp := mkCorpus(t, "Dog chases cat.", "Big red boxes.")
	_, err := NewTextProcessingPipeline(corp, &fakeAnalyzer{}, 1).Run(context.Background())
	require.NoError(t, err)

	report, err := NewPOSFrequencyPipeline(corp, &fakeAnalyzer{}).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Failures)

	a1, _ := corp.Get(1)
	assert.Equal(t, map[string]int{"NOUN": 2, "VERB": 1, "PUNCT": 1}, a1.POSFrequencies)
	meta := readMetaMap(t, a1)
	assert.JSONEq(t, `{"NOUN": 2, "VERB": 1, "PUNCT": 1}`, string(meta[MetaKeyPOSFrequencies]))
	assert.JSONEq(t, `"Article 1"`, string(meta["title"]))
}

func TestPOSFrequenciesMissingAnnotation(t *testing.T) {
	corp := mkCorpus(t, "Dog chases cat.")
	report, err := NewPOSFrequencyPipeline(corp, &fakeAnalyzer{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, report.FailedIDs())
}

func TestPatternSearch(t *testing.T) {
	corp := mkCorpus(t, "Dog chases cat.", "Big red boxes.")
	_, err := NewTextProcessingPipeline(corp, &fakeAnalyzer{}, 2).Run(context.Background())
	require.NoError(t, err)

	ps, err := NewPatternSearchPipeline(corp, &fakeAnalyzer{}, []string{"VERB", "NOUN"})
	require.NoError(t, err)
	report, err := ps.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Failures)

	a1, _ := corp.Get(1)
	require.Len(t, a1.PatternMatches[1], 2)
	assert.Equal(t, "chases", a1.PatternMatches[1][0].Text)
	assert.Equal(t, "Dog", a1.PatternMatches[1][0].Children[0].Text)
	assert.Equal(t, "cat", a1.PatternMatches[1][1].Children[0].Text)
	assert.JSONEq(
		t,
		`{"1": [
			{"upos": "VERB", "text": "chases", "children": [{"upos": "NOUN", "text": "Dog", "children": []}]},
			{"upos": "VERB", "text": "chases", "children": [{"upos": "NOUN", "text": "cat", "children": []}]}
		]}`,
		string(readMetaMap(t, a1)[MetaKeyPatternMatches]),
	)

	a2, _ := corp.Get(2)
	assert.Equal(t, pattern.Matches{1: {}}, a2.PatternMatches)
	assert.JSONEq(t, `{}`, string(readMetaMap(t, a2)[MetaKeyPatternMatches]))
}

func TestPatternSearchSkipsBrokenSentence(t *testing.T) {
	corp := mkCorpus(t, "Dog barks. Dog chases cat.")
	article, _ := corp.Get(1)
	require.NoError(t, os.WriteFile(
		article.FilePath(corpus.CoNLLUArtifact(fakeBackend)),
		[]byte(annotTwoRoots+strings.Replace(annotDogChasesCat, "sent_id = 1", "sent_id = 2", 1)),
		0644,
	))
	ps, err := NewPatternSearchPipeline(corp, &fakeAnalyzer{}, []string{"VERB", "NOUN"})
	require.NoError(t, err)
	report, err := ps.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Empty(t, article.PatternMatches[1])
	assert.Len(t, article.PatternMatches[2], 2)
}

func TestPatternSearchIsIdempotent(t *testing.T) {
	corp := mkCorpus(t, "Dog chases cat.")
	_, err := NewTextProcessingPipeline(corp, &fakeAnalyzer{}, 1).Run(context.Background())
	require.NoError(t, err)
	ps, err := NewPatternSearchPipeline(corp, &fakeAnalyzer{}, []string{"VERB", "*"})
	require.NoError(t, err)
	article, _ := corp.Get(1)
	m1, err := ps.SearchArticle(article)
	require.NoError(t, err)
	m2, err := ps.SearchArticle(article)
	require.NoError(t, err)
	assert.Equal(t, m1, m2)
	assert.Len(t, m1[1], 3)
}

func TestNewPatternSearchPipelineInvalidPattern(t *testing.T) {
	corp := mkCorpus(t, "Dog chases cat.")
	_, err := NewPatternSearchPipeline(corp, &fakeAnalyzer{}, []string{})
	var psErr merror.PatternSpecError
	require.ErrorAs(t, err, &psErr)
	assert.Equal(t, merror.EmptyPatternTuple, psErr.Kind)
	assert.True(t, merror.IsFatalForRun(err))
}
