package transcript

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	docx "github.com/fumiama/go-docx"
)

// ErrUnsupportedType is returned for extensions outside the supported set.
var ErrUnsupportedType = errors.New("unsupported file type")

// Read converts an uploaded file's raw bytes into plain text based on its
// extension (compared case-insensitively). Text-family files never fail:
// invalid UTF-8 falls back to a Latin-1 decode.
func Read(data []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".txt", ".md", ".rtf":
		if utf8.Valid(data) {
			return string(data), nil
		}
		return decodeLatin1(data), nil
	case ".docx":
		return readDocx(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

// decodeLatin1 widens each byte to its rune. Every byte is a valid Latin-1
// code point, so this cannot fail.
func decodeLatin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

func readDocx(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			paragraphs = append(paragraphs, p.String())
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}
