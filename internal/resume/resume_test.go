package resume

import (
	"testing"

	"github.com/jobportal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONIsPrettyPrinted(t *testing.T) {
	res, err := Parse(types.ResumeJSON, []byte(`{"name":"Ada","skills":["go","sql"],"years":3}`))
	require.NoError(t, err)

	want := "{\n  \"name\": \"Ada\",\n  \"skills\": [\n    \"go\",\n    \"sql\"\n  ],\n  \"years\": 3\n}"
	assert.Equal(t, want, res.Text)
	assert.Equal(t, types.ResumeJSON, res.Type)
	assert.JSONEq(t, `{"name":"Ada","skills":["go","sql"],"years":3}`, string(res.Data))
}

func TestParseJSONKeepsKeyOrder(t *testing.T) {
	res, err := Parse(types.ResumeJSON, []byte(`{"z":1,"a":2}`))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"z\": 1,\n  \"a\": 2\n}", res.Text)
}

func TestFormatJSONNormalisesDocument(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		text    string
		compact string
	}{
		{"trailing zero fraction", `{"a":1.0}`, "{\n  \"a\": 1\n}", `{"a":1}`},
		{"exponent", `{"n":1e2}`, "{\n  \"n\": 100\n}", `{"n":100}`},
		{"small exponent", `{"n":1.5E-7}`, "{\n  \"n\": 1.5e-7\n}", `{"n":1.5e-7}`},
		{"negative zero", `[-0.0]`, "[\n  0\n]", `[0]`},
		{"escaped slash", `{"s":"A\/"}`, "{\n  \"s\": \"A/\"\n}", `{"s":"A/"}`},
		{"unicode escape", `{"s":"caf\u00e9 <b>"}`, "{\n  \"s\": \"café <b>\"\n}", `{"s":"café <b>"}`},
		{"control character", `{"s":"a\u0001\tb"}`, "{\n  \"s\": \"a\\u0001\\tb\"\n}", `{"s":"a\u0001\tb"}`},
		{"duplicate key", `{"a":1,"a":2}`, "{\n  \"a\": 2\n}", `{"a":2}`},
		{"duplicate keeps first position", `{"a":1,"b":2,"a":3}`, "{\n  \"a\": 3,\n  \"b\": 2\n}", `{"a":3,"b":2}`},
		{"empty containers", `{"o":{},"l":[ ]}`, "{\n  \"o\": {},\n  \"l\": []\n}", `{"o":{},"l":[]}`},
		{"scalars", ` [true, false, null] `, "[\n  true,\n  false,\n  null\n]", `[true,false,null]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, compact, err := FormatJSON([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
			assert.Equal(t, tt.compact, string(compact))
		})
	}
}

func TestParseJSONRejectsInvalidInput(t *testing.T) {
	for _, in := range []string{"", "   ", "{", `{"a":}`, "not json"} {
		_, err := Parse(types.ResumeJSON, []byte(in))
		assert.ErrorIs(t, err, ErrInvalidJSON, "input %q", in)
	}
}

func TestParseTextIsVerbatim(t *testing.T) {
	in := "  Ada Lovelace\n\nAnalyst  "
	res, err := Parse(types.ResumeText, []byte(in))
	require.NoError(t, err)
	assert.Equal(t, in, res.Text)

	_, err = Parse(types.ResumeText, []byte(" \n\t"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParseBrokenPDFStoresSentinel(t *testing.T) {
	res, err := Parse(types.ResumePDF, []byte("%PDF-1.4 this is not really a pdf"))
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.Error(t, res.Cause)
	assert.Equal(t, ExtractionFailed, res.Text)
	assert.Equal(t, "[resume text extraction failed]", res.Text)
}

func TestParseUnsupportedType(t *testing.T) {
	_, err := Parse("docx", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    types.ResumeType
		wantErr bool
	}{
		{"", "", false},
		{"PDF", types.ResumePDF, false},
		{" json ", types.ResumeJSON, false},
		{"text", types.ResumeText, false},
		{"doc", "", true},
	}
	for _, tc := range tests {
		got, err := ParseType(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedType)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        string
		want        types.ResumeType
	}{
		{"magic wins over extension", "cv.txt", "text/plain", "%PDF-1.7", types.ResumePDF},
		{"pdf extension", "CV.PDF", "", "garbage", types.ResumePDF},
		{"json extension", "cv.json", "", "{}", types.ResumeJSON},
		{"json content type", "cv", "application/json; charset=utf-8", "{}", types.ResumeJSON},
		{"pdf content type", "upload", "application/pdf", "x", types.ResumePDF},
		{"fallback text", "cv", "", "hello", types.ResumeText},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectFileType(tc.filename, tc.contentType, []byte(tc.data)))
		})
	}
}
