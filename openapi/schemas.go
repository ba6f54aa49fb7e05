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

func schemaRef(name string) ObjectProperty {
	return ObjectProperty{Ref: "#/components/schemas/" + name}
}

func createSchemas() ObjectProperties {
	ans := make(ObjectProperties)
	ans["Error"] = ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"error": ObjectProperty{
				Type: "object",
				Properties: ObjectProperties{
					"message": ObjectProperty{Type: "string"},
				},
			},
		},
	}
	ans["DatasetValidation"] = ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"path":  ObjectProperty{Type: "string"},
			"valid": ObjectProperty{Type: "boolean"},
			"error": ObjectProperty{
				Type:        "object",
				Description: "Structure or consistency problem of the dataset (missing in case the dataset is valid)",
				Properties: ObjectProperties{
					"kind": ObjectProperty{
						Type: "string",
						Enum: []string{
							"MissingPath", "NotADirectory", "EmptyDirectory",
							"RawMetaCountMismatch", "MissingRawIds", "MissingMetaIds",
							"DuplicateRawIds", "DuplicateMetaIds", "EmptyArtifact",
						},
					},
					"ids": ObjectProperty{
						Type:  "array",
						Items: &ObjectProperty{Type: "integer"},
					},
				},
			},
		},
	}
	ans["ArticleList"] = ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"backend": ObjectProperty{Type: "string"},
			"articles": ObjectProperty{
				Type: "array",
				Items: &ObjectProperty{
					Type: "object",
					Properties: ObjectProperties{
						"id":        ObjectProperty{Type: "integer"},
						"title":     ObjectProperty{Type: "string"},
						"url":       ObjectProperty{Type: "string"},
						"author":    ObjectProperty{Type: "array", Items: &ObjectProperty{Type: "string"}},
						"date":      ObjectProperty{Type: "string"},
						"annotated": ObjectProperty{Type: "boolean"},
					},
				},
			},
		},
	}
	ans["AnnotationResult"] = ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"articleId":    ObjectProperty{Type: "integer"},
			"backend":      ObjectProperty{Type: "string", Enum: []string{"udpipe", "stanza"}},
			"numSentences": ObjectProperty{Type: "integer"},
			"numTokens":    ObjectProperty{Type: "integer"},
			"posFrequencies": ObjectProperty{
				Type:                 "object",
				Description:          "Number of tokens per UPOS tag",
				AdditionalProperties: &ObjectProperty{Type: "integer"},
			},
		},
	}
	ans["TreeNode"] = ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"upos": ObjectProperty{Type: "string"},
			"text": ObjectProperty{Type: "string"},
			"children": ObjectProperty{
				Type:  "array",
				Items: &ObjectProperty{Ref: "#/components/schemas/TreeNode"},
			},
		},
	}
	ans["PatternSearchResult"] = ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"articleId":  ObjectProperty{Type: "integer"},
			"pattern":    ObjectProperty{Type: "string"},
			"numMatches": ObjectProperty{Type: "integer"},
			"matches": ObjectProperty{
				Type:        "object",
				Description: "Match trees keyed by 1-based sentence index",
				AdditionalProperties: &ObjectProperty{
					Type:  "array",
					Items: &ObjectProperty{Ref: "#/components/schemas/TreeNode"},
				},
			},
		},
	}
	ans["WorkerLoad"] = ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"numJobs":       ObjectProperty{Type: "integer"},
			"totalTimeSecs": ObjectProperty{Type: "number"},
			"numErrors":     ObjectProperty{Type: "integer"},
			"firstUpdate":   ObjectProperty{Type: "string"},
			"lastUpdate":    ObjectProperty{Type: "string"},
			"numWorkers":    ObjectProperty{Type: "integer"},
			"avgLoad":       ObjectProperty{Type: "number"},
		},
	}
	ans["JobRecord"] = ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"workerId":  ObjectProperty{Type: "string"},
			"func":      ObjectProperty{Type: "string"},
			"articleId": ObjectProperty{Type: "integer"},
			"begin":     ObjectProperty{Type: "string"},
			"end":       ObjectProperty{Type: "string"},
			"error":     ObjectProperty{Type: "string"},
		},
	}
	ans["FuncStats"] = ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"func":          ObjectProperty{Type: "string"},
			"numJobs":       ObjectProperty{Type: "integer"},
			"numErrors":     ObjectProperty{Type: "integer"},
			"totalTimeSecs": ObjectProperty{Type: "number"},
			"maxTimeSecs":   ObjectProperty{Type: "number"},
			"errorRate":     ObjectProperty{Type: "number"},
			"avgTimeSecs":   ObjectProperty{Type: "number"},
		},
	}
	ans["ArticleStatus"] = ObjectProperty{
		Type: "object",
		Properties: ObjectProperties{
			"articleId":      ObjectProperty{Type: "integer"},
			"numAnnotations": ObjectProperty{Type: "integer"},
			"numSearches":    ObjectProperty{Type: "integer"},
			"numFailures":    ObjectProperty{Type: "integer"},
			"lastFunc":       ObjectProperty{Type: "string"},
			"lastError":      ObjectProperty{Type: "string"},
			"lastUpdate":     ObjectProperty{Type: "string"},
		},
	}
	return ans
}
