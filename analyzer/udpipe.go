// Copyright 2023 Tomas Machalek <tomas.machalek@gmail.com>
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

package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"udsearch/conllu"
	"udsearch/corpus"
	"udsearch/merror"

	"github.com/czcorpus/cnc-gokit/httpclient"
	"github.com/rs/zerolog/log"
)

type udpipeModels struct {
	Models       map[string][]string `json:"models"`
	DefaultModel string              `json:"default_model"`
}

type udpipeResponse struct {
	Model            string   `json:"model"`
	Acknowledgements []string `json:"acknowledgements"`
	Result           string   `json:"result"`
}

// UDPipe is a client of the UDPipe REST service
// (https://lindat.mff.cuni.cz/services/udpipe/api-reference.php).
// The native output is a CoNLL-U string.
type UDPipe struct {
	baseURL *url.URL
	model   string
	client  *http.Client
}

func (a *UDPipe) Name() string {
	return BackendUDPipe
}

func (a *UDPipe) endpoint(name string) string {
	return a.baseURL.JoinPath(name).String()
}

func (a *UDPipe) rejected(reason string, cause error) error {
	return merror.AnnotationError{
		Kind:    merror.BackendRejected,
		Backend: BackendUDPipe,
		Reason:  reason,
		Cause:   cause,
	}
}

func (a *UDPipe) process(ctx context.Context, text string) (string, error) {
	form := url.Values{}
	form.Set("data", text)
	form.Set("tokenizer", "")
	form.Set("tagger", "")
	form.Set("parser", "")
	if a.model != "" {
		form.Set("model", a.model)
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, a.endpoint("process"), strings.NewReader(form.Encode()))
	if err != nil {
		return "", a.rejected("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := a.client.Do(req)
	if err != nil {
		return "", a.rejected("request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", a.rejected("failed to read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", a.rejected(
			fmt.Sprintf("service responded with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			nil,
		)
	}
	var ans udpipeResponse
	if err := json.Unmarshal(body, &ans); err != nil {
		return "", a.rejected("failed to decode response", err)
	}
	return ans.Result, nil
}

// Analyze sends each text to the service. The returned items are
// CoNLL-U strings.
func (a *UDPipe) Analyze(ctx context.Context, texts []string) ([]any, error) {
	ans := make([]any, 0, len(texts))
	for _, text := range texts {
		t0 := time.Now()
		res, err := a.process(ctx, text)
		if err != nil {
			return nil, err
		}
		log.Debug().
			Int("textLength", len(text)).
			Float64("procTime", time.Since(t0).Seconds()).
			Msg("text processed by UDPipe")
		ans = append(ans, res)
	}
	return ans, nil
}

func (a *UDPipe) Persist(article *corpus.Article) error {
	return persistAnnotation(a, article)
}

func (a *UDPipe) Reload(article *corpus.Article) (any, error) {
	return reloadAnnotation(a, article)
}

func (a *UDPipe) Unify(annotation any) (*conllu.Document, error) {
	switch tAnnot := annotation.(type) {
	case string:
		return unifyCoNLLU(BackendUDPipe, tAnnot)
	case *conllu.Document:
		if err := validateDocument(BackendUDPipe, tAnnot); err != nil {
			return nil, err
		}
		return tAnnot, nil
	default:
		return nil, a.rejected(fmt.Sprintf("unsupported annotation type %T", annotation), nil)
	}
}

// checkModel verifies that the service is available and it
// provides the required model.
func (a *UDPipe) checkModel(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint("models"), nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("models endpoint responded with status %d", resp.StatusCode)
	}
	var models udpipeModels
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return fmt.Errorf("failed to decode models list: %w", err)
	}
	if a.model == "" {
		log.Info().Str("model", models.DefaultModel).Msg("UDPipe model not specified, service default will be used")
		return nil
	}
	if _, ok := models.Models[a.model]; !ok {
		return fmt.Errorf("model %s not available", a.model)
	}
	return nil
}

// NewUDPipe creates a UDPipe client and checks that the service
// provides the configured model.
func NewUDPipe(ctx context.Context, conf *UDPipeConf) (*UDPipe, error) {
	baseURL, err := url.Parse(conf.URL)
	if err != nil {
		return nil, merror.AnnotationError{
			Kind: merror.BootstrapFailure, Backend: BackendUDPipe, Cause: err}
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = httpclient.TransportMaxIdleConns
	transport.MaxConnsPerHost = httpclient.TransportMaxConnsPerHost
	transport.MaxIdleConnsPerHost = httpclient.TransportMaxIdleConnsPerHost
	transport.IdleConnTimeout = time.Duration(conf.IdleConnTimeoutSecs) * time.Second
	ans := &UDPipe{
		baseURL: baseURL,
		model:   conf.Model,
		client: &http.Client{
			Timeout:   time.Duration(conf.RequestTimeoutSecs) * time.Second,
			Transport: transport,
		},
	}
	if err := ans.checkModel(ctx); err != nil {
		return nil, merror.AnnotationError{
			Kind: merror.BootstrapFailure, Backend: BackendUDPipe, Cause: err}
	}
	log.Info().
		Str("url", conf.URL).
		Str("model", conf.Model).
		Msg("UDPipe analyzer ready")
	return ans, nil
}
