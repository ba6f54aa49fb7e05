// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Martin Zimandl <martin.zimandl@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
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

const (
	jsonContentType = "application/json"
	tagArticles     = "articles"
	tagMonitoring   = "monitoring"
)

func jsonResponse(desc string, schema ObjectProperty) MethodResponse {
	return MethodResponse{
		Description: desc,
		Content: map[string]MethodResponseContent{
			jsonContentType: {Schema: schema},
		},
	}
}

func errorResponse(desc string) MethodResponse {
	return jsonResponse(desc, schemaRef("Error"))
}

func articleIDParam() Parameter {
	return Parameter{
		Name:        "articleId",
		In:          "path",
		Description: "Numeric identifier of an article (the `{id}` part of `{id}_raw.txt`)",
		Required:    true,
		Schema:      ParamSchema{Type: "integer"},
	}
}

func articlePaths(paths map[string]Methods) {
	paths["/"] = Methods{
		Get: &Method{
			Description: "Shows the server name, version, configured annotation backend and the default POS pattern.",
			OperationID: "ServerInfo",
			Parameters:  []Parameter{},
			Responses: MethodResponses{
				200: jsonResponse("Server information", ObjectProperty{
					Type: "object",
					Properties: ObjectProperties{
						"name":           ObjectProperty{Type: "string"},
						"version":        ObjectProperty{Type: "object"},
						"backend":        ObjectProperty{Type: "string"},
						"defaultPattern": ObjectProperty{Type: "array", Items: &ObjectProperty{Type: "string"}},
					},
				}),
			},
		},
	}
	paths["/dataset/validate"] = Methods{
		Get: &Method{
			Description: "Checks whether the configured corpus directory contains a consistent set of articles. " +
				"Files `{id}_raw.txt` and `{id}_meta.json` must form the same dense range 1..N and none of them may be empty.",
			OperationID: "DatasetValidate",
			Tags:        []string{tagArticles},
			Parameters:  []Parameter{},
			Responses: MethodResponses{
				200: jsonResponse("Validation result", schemaRef("DatasetValidation")),
			},
		},
	}
	paths["/articles"] = Methods{
		Get: &Method{
			Description: "Lists articles of the corpus along with their metadata and the information " +
				"whether an annotation produced by the configured backend exists.",
			OperationID: "Articles",
			Tags:        []string{tagArticles},
			Parameters:  []Parameter{},
			Responses: MethodResponses{
				200: jsonResponse("List of articles", schemaRef("ArticleList")),
				422: errorResponse("Invalid or unreadable dataset"),
			},
		},
	}
	paths["/articles/{articleId}/annotate"] = Methods{
		Post: &Method{
			Description: "Annotates an article using the configured backend and stores the resulting CoNLL-U file. " +
				"The request must contain a valid authentication token.",
			OperationID: "AnnotateArticle",
			Tags:        []string{tagArticles},
			Parameters:  []Parameter{articleIDParam()},
			Responses: MethodResponses{
				200: jsonResponse("Annotation summary", schemaRef("AnnotationResult")),
				400: errorResponse("Invalid article ID or article which cannot be annotated"),
				401: errorResponse("Missing or invalid authentication token"),
				500: errorResponse("Annotation backend or worker failure"),
			},
		},
	}
	paths["/articles/{articleId}/patterns"] = Methods{
		Get: &Method{
			Description: "Searches dependency trees of an annotated article for chains of words " +
				"with the specified universal POS tags. Each match is returned as a tree.",
			OperationID: "PatternSearch",
			Tags:        []string{tagArticles},
			Parameters: []Parameter{
				articleIDParam(),
				{
					Name: "pos",
					In:   "query",
					Description: "Comma-separated chain of UPOS tags, `*` matches any tag. " +
						"If omitted, the configured default pattern is used.",
					Required: false,
					Schema:   ParamSchema{Type: "string"},
				},
			},
			Responses: MethodResponses{
				200: jsonResponse("Found matches", schemaRef("PatternSearchResult")),
				400: errorResponse("Invalid article ID, invalid pattern or article not annotated"),
				500: errorResponse("Worker failure"),
			},
		},
	}
}

func monitoringPaths(paths map[string]Methods) {
	spanParam := Parameter{
		Name:        "span",
		In:          "query",
		Description: "Use `total` for all the tracked jobs, by default only the recent ones are used.",
		Required:    false,
		Schema:      ParamSchema{Type: "string", Enum: []string{"recent", "total"}},
	}
	paths["/monitoring/workers-load"] = Methods{
		Get: &Method{
			Description: "Shows summed load of all the workers.",
			OperationID: "WorkersLoad",
			Tags:        []string{tagMonitoring},
			Parameters:  []Parameter{spanParam},
			Responses: MethodResponses{
				200: jsonResponse("Load of the workers", schemaRef("WorkerLoad")),
			},
		},
	}
	paths["/monitoring/workers-load/{workerId}"] = Methods{
		Get: &Method{
			Description: "Shows load of a single worker.",
			OperationID: "SingleWorkerLoad",
			Tags:        []string{tagMonitoring},
			Parameters: []Parameter{
				{
					Name:        "workerId",
					In:          "path",
					Description: "ID of the worker",
					Required:    true,
					Schema:      ParamSchema{Type: "string"},
				},
				spanParam,
			},
			Responses: MethodResponses{
				200: jsonResponse("Load of the worker", schemaRef("WorkerLoad")),
				404: errorResponse("Worker not found"),
			},
		},
	}
	paths["/monitoring/recent-records"] = Methods{
		Get: &Method{
			Description: "Shows the most recent job records.",
			OperationID: "RecentRecords",
			Tags:        []string{tagMonitoring},
			Parameters: []Parameter{
				{
					Name:        "func",
					In:          "query",
					Description: "Show only jobs of the specified function",
					Required:    false,
					Schema:      ParamSchema{Type: "string"},
				},
			},
			Responses: MethodResponses{
				200: jsonResponse("Job records", ObjectProperty{
					Type:  "array",
					Items: &ObjectProperty{Ref: "#/components/schemas/JobRecord"},
				}),
				400: errorResponse("Unknown function"),
			},
		},
	}
	paths["/monitoring/funcs"] = Methods{
		Get: &Method{
			Description: "Shows number of jobs, error rate and processing time per worker function.",
			OperationID: "FuncStats",
			Tags:        []string{tagMonitoring},
			Parameters:  []Parameter{},
			Responses: MethodResponses{
				200: jsonResponse("Function statistics", ObjectProperty{
					Type:  "array",
					Items: &ObjectProperty{Ref: "#/components/schemas/FuncStats"},
				}),
			},
		},
	}
	paths["/monitoring/articles/failing"] = Methods{
		Get: &Method{
			Description: "Lists articles whose most recent job failed.",
			OperationID: "FailingArticles",
			Tags:        []string{tagMonitoring},
			Parameters:  []Parameter{},
			Responses: MethodResponses{
				200: jsonResponse("Failing articles", ObjectProperty{
					Type:  "array",
					Items: &ObjectProperty{Ref: "#/components/schemas/ArticleStatus"},
				}),
			},
		},
	}
	paths["/monitoring/articles/{articleId}"] = Methods{
		Get: &Method{
			Description: "Shows processing history summary of an article.",
			OperationID: "ArticleStatus",
			Tags:        []string{tagMonitoring},
			Parameters:  []Parameter{articleIDParam()},
			Responses: MethodResponses{
				200: jsonResponse("Article status", schemaRef("ArticleStatus")),
				400: errorResponse("Invalid article ID"),
				404: errorResponse("No job found for the article"),
			},
		},
	}
}

// NewResponse creates an OpenAPI 3 description of the HTTP API.
// The `url` argument may be empty in which case no server is listed.
func NewResponse(ver, url string) *APIResponse {
	paths := make(map[string]Methods)
	articlePaths(paths)
	monitoringPaths(paths)
	servers := []Server{}
	if url != "" {
		servers = append(servers, Server{URL: url})
	}
	return &APIResponse{
		OpenAPI: "3.1.0",
		Info: Info{
			Title: "UDSearch",
			Description: "Annotates news articles with Universal Dependencies and searches " +
				"their dependency trees for POS tag chains.",
			Version: ver,
		},
		Servers:    servers,
		Paths:      paths,
		Components: Components{Schemas: createSchemas()},
	}
}
