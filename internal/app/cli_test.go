package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"native_find/internal/nativesearch"
)

type fakeSearcher struct {
	recs     []nativesearch.SearchRecord
	err      error
	fragment string
	deadline bool
}

func (f *fakeSearcher) Search(ctx context.Context, fragment string) ([]nativesearch.SearchRecord, error) {
	f.fragment = fragment
	_, f.deadline = ctx.Deadline()
	return f.recs, f.err
}

type fakeSnippeter map[string]string

func (f fakeSnippeter) Snippet(_ context.Context, rec nativesearch.SearchRecord, contains string) (string, error) {
	s, ok := f[rec.Name+"|"+contains]
	if !ok {
		return "", errors.New("no text layer")
	}
	return s, nil
}

var sampleRecords = []nativesearch.SearchRecord{
	{Name: "invoice.pdf", Location: "file:C:/Users/me/invoice.pdf", Attribute: "52311"},
	{Name: "scan.png", Location: "file:C:/Users/me/scan.png", Attribute: "1200"},
}

func TestRunCLI_TabOutput(t *testing.T) {
	var out bytes.Buffer
	s := &fakeSearcher{recs: sampleRecords}

	err := RunCLI(context.Background(), CLIOptions{Query: "inv"}, Env{Searcher: s, Out: &out})
	require.NoError(t, err)
	assert.Equal(t, "inv", s.fragment)
	assert.False(t, s.deadline)
	assert.Equal(t,
		"1\tinvoice.pdf\tfile:C:/Users/me/invoice.pdf\t52311\n"+
			"2\tscan.png\tfile:C:/Users/me/scan.png\t1200\n",
		out.String())
}

func TestRunCLI_NoMatches(t *testing.T) {
	var out bytes.Buffer
	err := RunCLI(context.Background(), CLIOptions{Query: "zzz"}, Env{Searcher: &fakeSearcher{recs: []nativesearch.SearchRecord{}}, Out: &out})
	require.NoError(t, err)
	assert.Equal(t, "No matches.\n", out.String())

	out.Reset()
	err = RunCLI(context.Background(), CLIOptions{Query: "zzz", JSON: true}, Env{Searcher: &fakeSearcher{}, Out: &out})
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestRunCLI_JSONWithPreview(t *testing.T) {
	var out bytes.Buffer
	env := Env{
		Searcher:  &fakeSearcher{recs: sampleRecords},
		Previewer: fakeSnippeter{"invoice.pdf|total": "the 【total】 due"},
		Out:       &out,
	}

	err := RunCLI(context.Background(), CLIOptions{JSON: true, Preview: true, Contains: "total"}, env)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.EqualValues(t, 1, first["index"])
	assert.Equal(t, "invoice.pdf", first["name"])
	assert.Equal(t, "C:/Users/me/invoice.pdf", first["path"])
	assert.Equal(t, "the 【total】 due", first["snippet"])
	assert.NotContains(t, second, "snippet")
}

func TestRunCLI_PartialResultsStillPrint(t *testing.T) {
	var out bytes.Buffer
	s := &fakeSearcher{recs: sampleRecords[:1], err: &nativesearch.PartialError{}}

	err := RunCLI(context.Background(), CLIOptions{Query: "inv"}, Env{Searcher: s, Out: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "invoice.pdf")
}

func TestRunCLI_Failure(t *testing.T) {
	var out bytes.Buffer
	s := &fakeSearcher{err: nativesearch.ErrUnsupported}
	err := RunCLI(context.Background(), CLIOptions{Query: "inv"}, Env{Searcher: s, Out: &out})
	assert.ErrorIs(t, err, nativesearch.ErrUnsupported)
	assert.Empty(t, out.String())
}

func TestRunCLI_Open(t *testing.T) {
	var out bytes.Buffer
	var revealed string
	env := Env{
		Searcher: &fakeSearcher{recs: sampleRecords},
		Out:      &out,
		Reveal:   func(p string) error { revealed = p; return nil },
		Timeout:  time.Minute,
	}

	require.NoError(t, RunCLI(context.Background(), CLIOptions{OpenIdx: 2}, env))
	assert.Equal(t, "C:/Users/me/scan.png", revealed)
	assert.True(t, env.Searcher.(*fakeSearcher).deadline)

	err := RunCLI(context.Background(), CLIOptions{OpenIdx: 3}, env)
	assert.EqualError(t, err, "--open out of range: 1..2")
}

func TestDisplayAttribute(t *testing.T) {
	assert.Equal(t, "512 B", DisplayAttribute("512"))
	assert.Equal(t, "1.5 KB", DisplayAttribute("1536"))
	assert.Equal(t, "9.5 MB", DisplayAttribute("9961472"))
	assert.Equal(t, "2024-01-02 03:04:05", DisplayAttribute("2024-01-02 03:04:05"))
	assert.Equal(t, "", DisplayAttribute(""))
}

func TestQueryIsSearchable(t *testing.T) {
	assert.False(t, queryIsSearchable(""))
	assert.False(t, queryIsSearchable("a"))
	assert.False(t, queryIsSearchable("*?*"))
	assert.True(t, queryIsSearchable("cv"))
	assert.True(t, queryIsSearchable("报"))
}
