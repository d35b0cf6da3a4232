package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// ErrUnsupportedType 表示文件类型不在支持范围内。
var ErrUnsupportedType = errors.New("unsupported file type")

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Text 把简历文件字节转换成纯文本。
// fileType 接受 MIME 或短后缀（"pdf" / "application/pdf" 等）。
func Text(data []byte, fileType string) (string, error) {
	switch normalizeType(fileType) {
	case "text/plain":
		return string(data), nil
	case "application/pdf":
		return pdfText(data)
	case docxMIME:
		return docxText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, fileType)
	}
}

func normalizeType(fileType string) string {
	t := strings.ToLower(strings.TrimSpace(fileType))
	switch t {
	case "pdf", ".pdf":
		return "application/pdf"
	case "docx", ".docx":
		return docxMIME
	case "txt", ".txt":
		return "text/plain"
	}
	return t
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
	}
	return builder.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return doc.Editable().GetContent(), nil
}
