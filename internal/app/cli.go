package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"native_find/internal/logger"
	"native_find/internal/nativesearch"
	"native_find/internal/preview"
)

type CLIOptions struct {
	Query    string
	JSON     bool
	OpenIdx  int
	Preview  bool
	Contains string
}

type Searcher interface {
	Search(ctx context.Context, fragment string) ([]nativesearch.SearchRecord, error)
}

type Snippeter interface {
	Snippet(ctx context.Context, rec nativesearch.SearchRecord, contains string) (string, error)
}

// Env carries what a command needs besides its options.
type Env struct {
	Searcher Searcher
	// Previewer may be nil when previews are not requested.
	Previewer Snippeter
	Reveal    func(path string) error
	Timeout   time.Duration
	Out       io.Writer
}

type jsonResult struct {
	Index int `json:"index"`
	nativesearch.SearchRecord
	Path    string `json:"path"`
	Snippet string `json:"snippet,omitempty"`
}

// RunCLI runs one search and prints the results to env.Out.
func RunCLI(ctx context.Context, opts CLIOptions, env Env) error {
	log := logger.FromContext(ctx)
	if env.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, env.Timeout)
		defer cancel()
	}

	recs, err := env.Searcher.Search(ctx, opts.Query)
	switch {
	case err == nil:
	case nativesearch.IsPartial(err):
		log.Warn("some results could not be read", zap.Error(err))
	default:
		return err
	}

	snippets := make([]string, len(recs))
	if opts.Preview && env.Previewer != nil {
		for i, rec := range recs {
			snippets[i] = previewOf(ctx, env.Previewer, rec, opts.Contains)
		}
	}

	w := bufio.NewWriter(env.Out)
	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for i, rec := range recs {
			if err := enc.Encode(jsonResult{Index: i + 1, SearchRecord: rec, Path: rec.Path(), Snippet: snippets[i]}); err != nil {
				return err
			}
		}
	} else {
		if len(recs) == 0 {
			fmt.Fprintln(w, "No matches.")
		}
		for i, rec := range recs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s", i+1, rec.Name, rec.Location, rec.Attribute)
			if snippets[i] != "" {
				fmt.Fprintf(w, "\t%s", snippets[i])
			}
			fmt.Fprintln(w)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if opts.OpenIdx > 0 {
		idx := opts.OpenIdx - 1
		if idx >= len(recs) {
			return fmt.Errorf("--open out of range: 1..%d", len(recs))
		}
		if env.Reveal == nil {
			return errors.New("reveal is not available")
		}
		return env.Reveal(recs[idx].Path())
	}
	return nil
}

func previewOf(ctx context.Context, p Snippeter, rec nativesearch.SearchRecord, contains string) string {
	if !strings.EqualFold(filepath.Ext(rec.Name), ".pdf") {
		return ""
	}
	snip, err := p.Snippet(ctx, rec, contains)
	if err != nil {
		if !errors.Is(err, preview.ErrNotPDF) {
			logger.FromContext(ctx).Debug("no preview", zap.String("name", rec.Name), zap.Error(err))
		}
		return ""
	}
	return snip
}
