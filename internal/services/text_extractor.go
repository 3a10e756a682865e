package services

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"alfredoptarigan/resume-parser/internal/common"
	"alfredoptarigan/resume-parser/internal/models"
)

// TextExtractor turns an uploaded document into raw text. Implementations
// are pure: the same bytes always yield the same text.
type TextExtractor interface {
	ExtractText(data []byte, docType models.DocumentType) (string, error)
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

// ExtractText implements TextExtractor.
func (e *textExtractor) ExtractText(data []byte, docType models.DocumentType) (string, error) {
	var (
		text string
		err  error
	)

	switch docType {
	case models.DocumentTypePDF:
		text, err = e.extractPDF(data)
	case models.DocumentTypeDOCX:
		text, err = e.extractDOCX(data)
	default:
		return "", common.NewError(common.ErrUnsupportedFormat, fmt.Sprintf("document type %q is not supported", docType), nil)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", common.NewError(common.ErrExtractionFailure, "no text content found in document", nil)
	}

	return text, nil
}

func (e *textExtractor) extractPDF(data []byte) (text string, err error) {
	// The parser panics on some malformed object streams.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = common.NewError(common.ErrExtractionFailure, "malformed PDF", fmt.Errorf("%v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return "", common.NewError(common.ErrExtractionFailure, "PDF is password protected", err)
		}
		return "", common.NewError(common.ErrExtractionFailure, "failed to open PDF", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", common.NewError(common.ErrExtractionFailure, fmt.Sprintf("failed to read PDF page %d", pageIndex), err)
		}

		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n\n")
		}
		textBuilder.WriteString(pageText)
	}

	return textBuilder.String(), nil
}

func (e *textExtractor) extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", common.NewError(common.ErrExtractionFailure, "failed to open DOCX", err)
	}
	defer doc.Close()

	text, err := documentXMLText(doc.Editable().GetContent())
	if err != nil {
		return "", common.NewError(common.ErrExtractionFailure, "failed to read DOCX body", err)
	}
	return text, nil
}

// documentXMLText walks word/document.xml and emits one line per paragraph,
// in document order. Table cells are paragraphs too, so they are included.
func documentXMLText(content string) (string, error) {
	const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	decoder := xml.NewDecoder(strings.NewReader(content))
	var (
		out       strings.Builder
		paragraph strings.Builder
		inText    bool
		depth     int
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				depth++
			case "t":
				inText = true
			case "tab":
				paragraph.WriteByte('\t')
			case "br", "cr":
				paragraph.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				depth--
				if depth == 0 {
					out.WriteString(paragraph.String())
					out.WriteByte('\n')
					paragraph.Reset()
				}
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}

	return out.String(), nil
}

// ResolveDocumentType decides the document type from the file extension.
// Files without an extension fall back to the declared content type, then
// to sniffing the first bytes.
func ResolveDocumentType(filename, contentType string, head []byte) models.DocumentType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return models.DocumentTypePDF
	case ".docx":
		return models.DocumentTypeDOCX
	case "":
	default:
		return models.DocumentTypeUnknown
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case models.ContentTypePDF:
			return models.DocumentTypePDF
		case models.ContentTypeDOCX:
			return models.DocumentTypeDOCX
		}
	}

	if len(head) == 0 {
		return models.DocumentTypeUnknown
	}
	detected := mimetype.Detect(head)
	switch {
	case detected.Is(models.ContentTypePDF):
		return models.DocumentTypePDF
	case detected.Is(models.ContentTypeDOCX):
		return models.DocumentTypeDOCX
	}

	return models.DocumentTypeUnknown
}

// ContentTypeFor returns the canonical media type for a document type.
func ContentTypeFor(docType models.DocumentType) string {
	switch docType {
	case models.DocumentTypePDF:
		return models.ContentTypePDF
	case models.DocumentTypeDOCX:
		return models.ContentTypeDOCX
	}
	return "application/octet-stream"
}
