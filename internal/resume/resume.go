// Package resume turns uploaded resumes into the canonical text stored with
// an application.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jobportal/apiserver/types"
	"github.com/ledongthuc/pdf"
)

// ExtractionFailed is stored in place of the text of a PDF that could not be read.
const ExtractionFailed = "[resume text extraction failed]"

// MaxUploadSize caps resume file uploads.
const MaxUploadSize = 10 << 20

var (
	ErrInvalidJSON     = errors.New("invalid resume json")
	ErrEmpty           = errors.New("resume is empty")
	ErrUnsupportedType = errors.New("unsupported resume type")
	ErrTooLarge        = errors.New("resume file is too large")
)

var pdfMagic = []byte("%PDF-")

// Result is the outcome of parsing a resume.
type Result struct {
	Type types.ResumeType `json:"type"`
	Text string           `json:"text"`

	// Data is the compact JSON document for JSON resumes.
	Data json.RawMessage `json:"data,omitempty"`

	// Failed is set when a PDF could not be read and Text holds ExtractionFailed.
	Failed bool `json:"-"`
	// Cause is the extraction error behind Failed.
	Cause error `json:"-"`
}

// ParseType validates a declared resume type. Empty input yields "".
func ParseType(s string) (types.ResumeType, error) {
	switch t := types.ResumeType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return "", nil
	case types.ResumePDF, types.ResumeJSON, types.ResumeText:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
}

// DetectFileType guesses the type of an uploaded file from its content,
// its extension and its declared content type, in that order.
func DetectFileType(filename, contentType string, data []byte) types.ResumeType {
	if bytes.HasPrefix(data, pdfMagic) {
		return types.ResumePDF
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return types.ResumePDF
	case ".json":
		return types.ResumeJSON
	case ".txt", ".text", ".md":
		return types.ResumeText
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "application/pdf":
			return types.ResumePDF
		case "application/json":
			return types.ResumeJSON
		}
	}
	return types.ResumeText
}

// Parse converts data of the given type into canonical text.
// A PDF that cannot be read is not an error: the result carries
// ExtractionFailed and Failed is set.
func Parse(kind types.ResumeType, data []byte) (Result, error) {
	switch kind {
	case types.ResumePDF:
		text, err := ExtractPDFText(data)
		if err != nil {
			return Result{Type: kind, Text: ExtractionFailed, Failed: true, Cause: err}, nil
		}
		return Result{Type: kind, Text: text}, nil
	case types.ResumeJSON:
		text, compact, err := FormatJSON(data)
		if err != nil {
			return Result{}, err
		}
		return Result{Type: kind, Text: text, Data: compact}, nil
	case types.ResumeText:
		if strings.TrimSpace(string(data)) == "" {
			return Result{}, ErrEmpty
		}
		return Result{Type: kind, Text: string(data)}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedType, kind)
	}
}

// FormatJSON parses a JSON document and writes it back out indented by two
// spaces, together with its compact form. Key order is kept, a repeated key
// keeps its first position and its last value, and numbers and strings are
// written in their shortest form.
func FormatJSON(data []byte) (string, json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !json.Valid(data) {
		return "", nil, ErrInvalidJSON
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var indented, compact bytes.Buffer
	writeValue(&indented, doc, "  ", 0)
	writeValue(&compact, doc, "", 0)
	return indented.String(), json.RawMessage(compact.Bytes()), nil
}

// ExtractPDFText returns the plain text of a PDF document.
// Documents without any extractable text are reported as errors.
func ExtractPDFText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	text = strings.TrimSpace(string(raw))
	if text == "" {
		return "", errors.New("pdf contains no extractable text")
	}
	return text, nil
}
