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

package conllu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCoNLLU = `# newdoc
# sent_id = 1
# text = Dog chases cat.
1	Dog	dog	NOUN	NN	_	2	nsubj	_	_
2	chases	chase	VERB	VBZ	_	0	root	_	_
3	cat	cat	NOUN	NN	_	2	obj	_	_
4	.	.	PUNCT	_	_	2	punct	_	_

# sent_id = 2
# text = Del mar.
1-2	Del	_	_	_	_	_	_	_	_
1	De	de	ADP	_	_	3	case	_	_
2	el	el	DET	_	_	3	det	_	_
3	mar	mar	NOUN	_	_	0	root	_	_
3.1	x	x	X	_	_	_	_	_	_
`

func TestParseSample(t *testing.T) {
	doc, err := ParseString(sampleCoNLLU)
	require.NoError(t, err)
	require.Len(t, doc.Sentences, 2)

	s1 := doc.Sentences[0]
	assert.Equal(t, "1", s1.ID)
	assert.Equal(t, "Dog chases cat.", s1.Text)
	assert.Len(t, s1.Tokens, 4)
	assert.Equal(t, Token{ID: 2, Text: "chases", Lemma: "chase", UPOS: "VERB", XPOS: "VBZ", Head: 0, Deprel: "root"}, s1.Tokens[1])
	assert.Equal(t, "", s1.Tokens[3].XPOS)

	s2 := doc.Sentences[1]
	assert.Len(t, s2.Tokens, 3, "multi-word ranges and empty nodes are skipped")
	assert.Equal(t, "mar", s2.Tokens[2].Text)
	assert.Equal(t, 7, doc.NumTokens())
}

func TestParseWrongColumnCount(t *testing.T) {
	_, err := ParseString("1\tDog\tdog\tNOUN\t_\t_\t0\n")
	var pErr ParseError
	assert.ErrorAs(t, err, &pErr)
	assert.Equal(t, 1, pErr.Line)
}

func TestParseInvalidHead(t *testing.T) {
	_, err := ParseString("1\tDog\tdog\tNOUN\t_\t_\tx\troot\t_\t_\n")
	assert.Error(t, err)
}

func TestParseNonSequentialIDs(t *testing.T) {
	_, err := ParseString("1\tA\ta\tNOUN\t_\t_\t0\troot\t_\t_\n3\tB\tb\tNOUN\t_\t_\t1\tnmod\t_\t_\n")
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	orig, err := ParseString(sampleCoNLLU)
	require.NoError(t, err)
	data, err := String(orig)
	require.NoError(t, err)
	reloaded, err := ParseString(data)
	require.NoError(t, err)
	require.Len(t, reloaded.Sentences, len(orig.Sentences))
	for i := range orig.Sentences {
		assert.Equal(t, orig.Sentences[i].Tokens, reloaded.Sentences[i].Tokens)
		assert.Equal(t, orig.Sentences[i].Text, reloaded.Sentences[i].Text)
	}
}

func TestWriteGeneratesSentIDs(t *testing.T) {
	doc := &Document{Sentences: []Sentence{
		{Tokens: []Token{{ID: 1, Text: "Hi", UPOS: "INTJ", Head: 0, Deprel: "root"}}},
	}}
	out, err := String(doc)
	require.NoError(t, err)
	assert.Equal(t, "# sent_id = 1\n1\tHi\t_\tINTJ\t_\t_\t0\troot\t_\t_\n\n", out)
}

func TestUnderscoreLemmaIsKept(t *testing.T) {
	src := "# sent_id = 1\n" +
		"1\tSee\tsee\tVERB\t_\t_\t0\troot\t_\t_\n" +
		"2\t_\t_\tSYM\t_\t_\t1\tobj\t_\t_\n\n"
	doc, err := ParseString(src)
	require.NoError(t, err)
	tok := doc.Sentences[0].Tokens[1]
	assert.Equal(t, "_", tok.Text)
	assert.Equal(t, "_", tok.Lemma)
	assert.Equal(t, "obj", tok.Deprel)

	out, err := String(doc)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

type failingWriter struct{}

func (fw failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteReportsWriterFailure(t *testing.T) {
	doc, err := ParseString(sampleCoNLLU)
	require.NoError(t, err)
	err = Write(failingWriter{}, doc)
	assert.ErrorContains(t, err, "disk full")
}

func TestUPOSFrequencies(t *testing.T) {
	doc, err := ParseString(sampleCoNLLU)
	require.NoError(t, err)
	freqs := doc.UPOSFrequencies()
	assert.Equal(t, 3, freqs["NOUN"])
	assert.Equal(t, 1, freqs["VERB"])
	assert.Equal(t, 1, freqs["ADP"])
}
