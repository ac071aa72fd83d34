// Package preview produces short text snippets for PDF search hits.
package preview

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"native_find/internal/cache"
	"native_find/internal/logger"
	"native_find/internal/nativesearch"
)

// ErrNotPDF is returned for records whose file is not a PDF.
var ErrNotPDF = errors.New("preview is only available for pdf files")

type Previewer struct {
	cache    *cache.Cache
	maxChars int
	extract  cache.Extractor
}

// New returns a Previewer that keeps extracted text in c.
func New(c *cache.Cache, maxChars int) *Previewer {
	p := &Previewer{cache: c, maxChars: maxChars}
	p.extract = func(ctx context.Context, path string) (string, error) {
		return pdfText(ctx, path, c.TextLimit())
	}
	return p
}

// Snippet returns text from the record's PDF. With contains set it returns
// the first passage around that term, or "" when the term does not occur;
// otherwise the start of the document.
func (p *Previewer) Snippet(ctx context.Context, rec nativesearch.SearchRecord, contains string) (string, error) {
	path := rec.Path()
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "", ErrNotPDF
	}
	text, err := p.cache.GetOrExtract(ctx, path, p.extract)
	if err != nil {
		logger.FromContext(ctx).Debug("pdf preview failed", zap.String("path", path), zap.Error(err))
		return "", err
	}

	contains = strings.TrimSpace(contains)
	if contains == "" {
		return Head(text, p.maxChars), nil
	}
	snips := FindSnippets(text, contains, p.maxChars/2, 1)
	if len(snips) == 0 {
		return "", nil
	}
	return strings.TrimSpace(snips[0]), nil
}
