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
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// stripMarkup returns text content of a possibly HTML-contaminated
// string with entities decoded. Contents of `script` and `style`
// elements is dropped.
func stripMarkup(s string) string {
	var ans strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var skip bool
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ans.String()
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style":
				skip = true
			case "br", "p", "div", "li":
				ans.WriteString(" ")
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style":
				skip = false
			case "p", "div", "li":
				ans.WriteString(" ")
			}
		case html.TextToken:
			if !skip {
				ans.Write(tokenizer.Text())
			}
		}
	}
}

// CleanText produces a normalized form of an article text: markup
// removed, lowercased, without punctuation and with whitespace
// sequences replaced by a single space.
func CleanText(s string) string {
	s = strings.Map(
		func(r rune) rune {
			if unicode.IsPunct(r) {
				return -1
			}
			return unicode.ToLower(r)
		},
		stripMarkup(s),
	)
	return strings.Join(strings.Fields(s), " ")
}
