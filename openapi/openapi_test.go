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

package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"udsearch/cnf"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pathArgRegexp = regexp.MustCompile(`\{(\w+)\}`)

func collectRefs(prop ObjectProperty, ans map[string]bool) {
	if prop.Ref != "" {
		ans[prop.Ref] = true
	}
	for _, v := range prop.Properties {
		collectRefs(v, ans)
	}
	if prop.Items != nil {
		collectRefs(*prop.Items, ans)
	}
	if prop.AdditionalProperties != nil {
		collectRefs(*prop.AdditionalProperties, ans)
	}
}

func TestNewResponsePathArgsAreDescribed(t *testing.T) {
	resp := NewResponse("1.2.0", "")
	assert.Empty(t, resp.Servers)
	assert.Contains(t, resp.Paths, "/articles/{articleId}/patterns")
	assert.NotNil(t, resp.Paths["/articles/{articleId}/annotate"].Post)
	assert.Nil(t, resp.Paths["/articles/{articleId}/annotate"].Get)

	for path, methods := range resp.Paths {
		for _, m := range []*Method{methods.Get, methods.Post} {
			if m == nil {
				continue
			}
			assert.NotEmpty(t, m.OperationID, path)
			assert.Contains(t, m.Responses, http.StatusOK, path)
			for _, arg := range pathArgRegexp.FindAllStringSubmatch(path, -1) {
				var found bool
				for _, p := range m.Parameters {
					if p.Name == arg[1] && p.In == "path" {
						found = true
						assert.True(t, p.Required, path)
					}
				}
				assert.True(t, found, "missing parameter %s in %s", arg[1], path)
			}
		}
	}
}

func TestNewResponseRefsResolve(t *testing.T) {
	resp := NewResponse("1.2.0", "")
	refs := make(map[string]bool)
	for _, schema := range resp.Components.Schemas {
		collectRefs(schema, refs)
	}
	for _, methods := range resp.Paths {
		for _, m := range []*Method{methods.Get, methods.Post} {
			if m == nil {
				continue
			}
			for _, r := range m.Responses {
				for _, c := range r.Content {
					collectRefs(c.Schema, refs)
				}
			}
		}
	}
	require.NotEmpty(t, refs)
	for ref := range refs {
		name := strings.TrimPrefix(ref, "#/components/schemas/")
		assert.Contains(t, resp.Components.Schemas, name, ref)
	}
}

func TestFindCurrentPublicURL(t *testing.T) {
	conf := &cnf.Conf{
		PublicURLs: []string{"https://api.example.org/udsearch", "https://api.example.org/udsearch/v2"},
	}
	req := httptest.NewRequest(http.MethodGet, "/openapi", nil)
	req.Header.Set("x-forwarded-proto", "https")
	req.Header.Set("x-forwarded-host", "api.example.org")
	req.Header.Set("x-original-path", "/udsearch/v2/openapi")
	assert.Equal(t, "https://api.example.org/udsearch/v2", findCurrentPublicURL(conf, req))

	req.Header.Set("x-original-path", "/udsearch/openapi")
	assert.Equal(t, "https://api.example.org/udsearch", findCurrentPublicURL(conf, req))

	direct := httptest.NewRequest(http.MethodGet, "/openapi", nil)
	assert.Equal(t, "", findCurrentPublicURL(conf, direct))
}

func TestHandleRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conf := &cnf.Conf{PublicURLs: []string{"http://example.com"}}
	engine := gin.New()
	engine.GET("/openapi", MkHandleRequest(conf, "1.2.0"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var ans APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, "1.2.0", ans.Info.Version)
	assert.Equal(t, []Server{{URL: "http://example.com"}}, ans.Servers)
	assert.Contains(t, ans.Paths, "/monitoring/articles/{articleId}")
	assert.Contains(t, ans.Components.Schemas, "PatternSearchResult")
}

func TestAPIDocUsesFirstPublicURL(t *testing.T) {
	conf := &cnf.Conf{PublicURLs: []string{"https://a.example.org", "https://b.example.org"}}
	doc, err := newAPIDoc(conf, "1.2.0")
	require.NoError(t, err)
	var ans map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc.ReadDoc()), &ans))
	assert.Equal(t, "3.1.0", ans["openapi"])
	assert.Equal(t, []any{map[string]any{"url": "https://a.example.org"}}, ans["servers"])
}
