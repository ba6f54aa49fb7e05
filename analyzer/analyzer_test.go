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

package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"udsearch/corpus"
	"udsearch/merror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dogChasesCat = "# sent_id = 1\n# text = Dog chases cat\n" +
	"1\tDog\tdog\tNOUN\tNN\t_\t2\tnsubj\t_\t_\n" +
	"2\tchases\tchase\tVERB\tVBZ\t_\t0\troot\t_\t_\n" +
	"3\tcat\tcat\tNOUN\tNN\t_\t2\tobj\t_\t_\n\n"

const twoRoots = "1\tDog\tdog\tNOUN\t_\t_\t0\troot\t_\t_\n" +
	"2\tbarks\tbark\tVERB\t_\t_\t0\troot\t_\t_\n\n"

func newUDPipeService(t *testing.T, result string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(udpipeModels{
			Models:       map[string][]string{"english-ewt": {"tokenizer", "tagger", "parser"}},
			DefaultModel: "english-ewt",
		})
	})
	mux.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("data") == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("No input data"))
			return
		}
		json.NewEncoder(w).Encode(udpipeResponse{Model: r.PostForm.Get("model"), Result: result})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestUDPipeBootstrapAndAnalyze(t *testing.T) {
	srv := newUDPipeService(t, dogChasesCat)
	an, err := New(context.Background(), &Conf{
		Backend: BackendUDPipe,
		UDPipe:  &UDPipeConf{URL: srv.URL, Model: "english-ewt"},
	})
	require.NoError(t, err)
	assert.Equal(t, "udpipe", an.Name())

	res, err := an.Analyze(context.Background(), []string{"dog chases cat"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, dogChasesCat, res[0])

	doc, err := an.Unify(res[0])
	require.NoError(t, err)
	require.Len(t, doc.Sentences, 1)
	assert.Equal(t, "VERB", doc.Sentences[0].Tokens[1].UPOS)
}

func TestUDPipeUnknownModel(t *testing.T) {
	srv := newUDPipeService(t, dogChasesCat)
	_, err := NewUDPipe(context.Background(), &UDPipeConf{URL: srv.URL, Model: "czech-pdt"})
	var anErr merror.AnnotationError
	require.ErrorAs(t, err, &anErr)
	assert.Equal(t, merror.BootstrapFailure, anErr.Kind)
	assert.True(t, merror.IsFatalForRun(err))
}

func TestUDPipeServiceUnavailable(t *testing.T) {
	srv := newUDPipeService(t, dogChasesCat)
	url := srv.URL
	srv.Close()
	_, err := NewUDPipe(context.Background(), &UDPipeConf{URL: url})
	var anErr merror.AnnotationError
	require.ErrorAs(t, err, &anErr)
	assert.Equal(t, merror.BootstrapFailure, anErr.Kind)
}

func TestUDPipeRejectsEmptyInput(t *testing.T) {
	srv := newUDPipeService(t, dogChasesCat)
	an, err := NewUDPipe(context.Background(), &UDPipeConf{URL: srv.URL})
	require.NoError(t, err)
	_, err = an.Analyze(context.Background(), []string{""})
	var anErr merror.AnnotationError
	require.ErrorAs(t, err, &anErr)
	assert.Equal(t, merror.BackendRejected, anErr.Kind)
	assert.False(t, merror.IsFatalForRun(err))
}

func TestUDPipeUnifyInvalidTree(t *testing.T) {
	an := &UDPipe{}
	_, err := an.Unify(twoRoots)
	var anErr merror.AnnotationError
	require.ErrorAs(t, err, &anErr)
	assert.Equal(t, merror.InvariantViolation, anErr.Kind)
	assert.Equal(t, 1, anErr.SentenceIdx)
}

func TestUDPipeUnifyUnsupportedType(t *testing.T) {
	an := &UDPipe{}
	_, err := an.Unify(42)
	assert.Error(t, err)
}

func TestPersistAndReload(t *testing.T) {
	article := &corpus.Article{ID: 7, Dir: t.TempDir(), Annotation: dogChasesCat}
	an := &UDPipe{}
	require.NoError(t, an.Persist(article))
	data, err := os.ReadFile(article.FilePath(corpus.CoNLLUArtifact("udpipe")))
	require.NoError(t, err)
	assert.Equal(t, dogChasesCat, string(data))

	reloaded, err := an.Reload(article)
	require.NoError(t, err)
	doc1, err := an.Unify(article.Annotation)
	require.NoError(t, err)
	doc2, err := an.Unify(reloaded)
	require.NoError(t, err)
	assert.Equal(t, doc1, doc2)
}

func TestPersistWithoutAnnotation(t *testing.T) {
	article := &corpus.Article{ID: 1, Dir: t.TempDir()}
	an := &UDPipe{}
	assert.Error(t, an.Persist(article))
}

func TestReloadMissing(t *testing.T) {
	article := &corpus.Article{ID: 1, Dir: t.TempDir()}
	an := &Stanza{}
	_, err := an.Reload(article)
	assert.Error(t, err)
}

func newTestStanza(t *testing.T, fixture string) *Stanza {
	an, err := NewStanza(&StanzaConf{
		Command:            "cat",
		Args:               []string{fixture},
		RequestTimeoutSecs: 10,
	})
	require.NoError(t, err)
	return an
}

func TestStanzaAnalyzeAndUnify(t *testing.T) {
	an := newTestStanza(t, "testdata/stanza_doc.json")
	res, err := an.Analyze(context.Background(), []string{"Dog chases cat. Del mar."})
	require.NoError(t, err)
	require.Len(t, res, 1)
	sdoc, ok := res[0].(StanzaDocument)
	require.True(t, ok)
	assert.Len(t, sdoc, 2)

	doc, err := an.Unify(sdoc)
	require.NoError(t, err)
	require.Len(t, doc.Sentences, 2)
	assert.Equal(t, "Dog chases cat", doc.Sentences[0].Text)
	assert.Len(t, doc.Sentences[1].Tokens, 3, "multi-word token ranges are skipped")
	assert.Equal(t, 0, doc.Sentences[1].Tokens[2].Head)
}

func TestStanzaPersistConverts(t *testing.T) {
	an := newTestStanza(t, "testdata/stanza_doc.json")
	res, err := an.Analyze(context.Background(), []string{"x"})
	require.NoError(t, err)
	article := &corpus.Article{ID: 3, Dir: t.TempDir(), Annotation: res[0]}
	require.NoError(t, an.Persist(article))

	reloaded, err := an.Reload(article)
	require.NoError(t, err)
	doc1, err := an.Unify(res[0])
	require.NoError(t, err)
	doc2, err := an.Unify(reloaded)
	require.NoError(t, err)
	assert.Equal(t, doc1.Sentences[0].Tokens, doc2.Sentences[0].Tokens)
	assert.Equal(t, doc1.Sentences[1].Tokens, doc2.Sentences[1].Tokens)
}

func TestStanzaCycleIsRejected(t *testing.T) {
	an := newTestStanza(t, "testdata/stanza_cycle.json")
	res, err := an.Analyze(context.Background(), []string{"a b"})
	require.NoError(t, err)
	_, err = an.Unify(res[0])
	var anErr merror.AnnotationError
	require.ErrorAs(t, err, &anErr)
	assert.Equal(t, merror.InvariantViolation, anErr.Kind)
}

func TestStanzaProcessFailure(t *testing.T) {
	an := newTestStanza(t, "testdata/missing.json")
	_, err := an.Analyze(context.Background(), []string{"a"})
	var anErr merror.AnnotationError
	require.ErrorAs(t, err, &anErr)
	assert.Equal(t, merror.BackendRejected, anErr.Kind)
}

func TestStanzaBootstrapFailure(t *testing.T) {
	_, err := New(context.Background(), &Conf{
		Backend: BackendStanza,
		Stanza:  &StanzaConf{Command: "udsearch-nonexistent-stanza-runner"},
	})
	var anErr merror.AnnotationError
	require.True(t, errors.As(err, &anErr))
	assert.Equal(t, merror.BootstrapFailure, anErr.Kind)
}

func TestConfValidation(t *testing.T) {
	assert.Error(t, (&Conf{Backend: "spacy"}).ValidateAndDefaults("analyzer"))
	assert.Error(t, (&Conf{Backend: BackendUDPipe}).ValidateAndDefaults("analyzer"))
	conf := &Conf{Backend: BackendStanza, Stanza: &StanzaConf{Command: "stanza-run"}}
	assert.NoError(t, conf.ValidateAndDefaults("analyzer"))
	assert.Equal(t, dfltRequestTimeoutSecs, conf.Stanza.RequestTimeoutSecs)
}
