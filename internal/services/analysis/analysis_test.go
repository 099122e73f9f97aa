// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package analysis

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_Plain(t *testing.T) {
	text, err := ExtractText([]byte("hereby the parties agree"), "text/plain; charset=utf-8")

	require.NoError(t, err)
	assert.Equal(t, "hereby the parties agree", text)
}

func TestExtractText_Empty(t *testing.T) {
	_, err := ExtractText([]byte("   \n\t"), TypeText)

	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtractText_UnsupportedType(t *testing.T) {
	_, err := ExtractText([]byte("irrelevant"), "application/msword")

	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExtractText_DOCX(t *testing.T) {
	data := buildDOCX(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Section 1.</w:t></w:r><w:r><w:t> Liability is unlimited.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Section 2. Venue is Hamburg.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, err := ExtractText(data, TypeDOCX)

	require.NoError(t, err)
	assert.Contains(t, text, "Section 1. Liability is unlimited.")
	assert.Contains(t, text, "Section 2. Venue is Hamburg.")
	assert.Less(t, strings.Index(text, "Section 1."), strings.Index(text, "Section 2."))
}

func TestExtractText_DOCXWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	require.NoError(t, zw.Close())

	_, err := ExtractText(buf.Bytes(), TypeDOCX)

	assert.Error(t, err)
}

func TestExtractText_CorruptPDF(t *testing.T) {
	_, err := ExtractText([]byte("not a pdf at all"), TypePDF)

	assert.Error(t, err)
}

func TestSupportedType(t *testing.T) {
	assert.True(t, SupportedType("application/pdf"))
	assert.True(t, SupportedType("TEXT/PLAIN; charset=utf-8"))
	assert.False(t, SupportedType("application/msword"))
	assert.False(t, SupportedType("image/png"))
}

// completionStub returns a canned answer or error.
type completionStub struct {
	answer string
	err    error
	gotReq openai.ChatCompletionRequest
}

func (c *completionStub) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.gotReq = req
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: c.answer}},
		},
	}, nil
}

func TestAnalyze_StructuredAnswer(t *testing.T) {
	stub := &completionStub{answer: `{"summary":"A lease.","risks":["No exit clause"],"key_points":["12 month term"]}`}
	analyzer := &OpenAIAnalyzer{client: stub, model: "test-model"}

	result, err := analyzer.Analyze(context.Background(), "lease text")

	require.NoError(t, err)
	assert.Equal(t, "A lease.", result.Summary)
	assert.Equal(t, []string{"No exit clause"}, result.Risks)
	assert.Equal(t, []string{"12 month term"}, result.KeyPoints)
	assert.Empty(t, result.Raw)
}

func TestAnalyze_FencedAnswer(t *testing.T) {
	stub := &completionStub{answer: "```json\n{\"summary\":\"A lease.\",\"risks\":[],\"key_points\":[]}\n```"}
	analyzer := &OpenAIAnalyzer{client: stub, model: "test-model"}

	result, err := analyzer.Analyze(context.Background(), "lease text")

	require.NoError(t, err)
	assert.Equal(t, "A lease.", result.Summary)
}

func TestAnalyze_NonJSONFallsBackToRaw(t *testing.T) {
	stub := &completionStub{answer: "This contract looks fine overall."}
	analyzer := &OpenAIAnalyzer{client: stub, model: "test-model"}

	result, err := analyzer.Analyze(context.Background(), "contract text")

	require.NoError(t, err)
	assert.Empty(t, result.Summary)
	assert.Equal(t, "This contract looks fine overall.", result.Raw)
}

func TestAnalyze_TruncatesInput(t *testing.T) {
	stub := &completionStub{answer: `{"summary":"ok"}`}
	analyzer := &OpenAIAnalyzer{client: stub, model: "test-model"}

	_, err := analyzer.Analyze(context.Background(), strings.Repeat("x", maxInputChars+500))

	require.NoError(t, err)
	require.Len(t, stub.gotReq.Messages, 2)
	assert.Len(t, stub.gotReq.Messages[1].Content, maxInputChars)
}

func TestAnalyze_UpstreamError(t *testing.T) {
	stub := &completionStub{err: errors.New("connection refused")}
	analyzer := &OpenAIAnalyzer{client: stub, model: "test-model"}

	_, err := analyzer.Analyze(context.Background(), "contract text")

	assert.ErrorIs(t, err, ErrUpstream)
}

func TestNewOpenAIAnalyzer_RequiresKey(t *testing.T) {
	_, err := NewOpenAIAnalyzer("", "", "")
	assert.Error(t, err)

	analyzer, err := NewOpenAIAnalyzer("sk-test", "", "")
	require.NoError(t, err)
	assert.Equal(t, openai.GPT4oMini, analyzer.model)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abcd", 2))
	assert.Equal(t, "", Truncate("abcd", 0))
	assert.Equal(t, "äö", Truncate("äöü", 2))
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
