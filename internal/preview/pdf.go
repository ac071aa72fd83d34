package preview

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// maxPDFFileBytes bounds the files handed to the pure Go parser, which can
// use a lot of memory on large documents.
const maxPDFFileBytes = 20 << 20

var errTooLarge = fmt.Errorf("pdf larger than %d bytes", maxPDFFileBytes)

func pdfOpen(path string) (*os.File, *pdf.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if fi.Size() > maxPDFFileBytes {
		_ = f.Close()
		return nil, nil, errTooLarge
	}
	r, err := pdf.NewReader(f, fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("open pdf: %w", err)
	}
	return f, r, nil
}

// pdfText extracts the plain text of the PDF at path page by page, stopping
// once maxBytes have been collected.
func pdfText(ctx context.Context, path string, maxBytes int64) (text string, err error) {
	// the parser panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdfOpen(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		remaining := maxBytes - int64(sb.Len())
		if remaining <= 0 {
			break
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; ok {
				continue
			}
			fnt := p.Font(name)
			fonts[name] = &fnt
		}
		pageText, err := p.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if int64(len(pageText)) > remaining {
			cut := int(remaining)
			for cut > 0 && !utf8.RuneStart(pageText[cut]) {
				cut--
			}
			pageText = pageText[:cut]
		}
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}
