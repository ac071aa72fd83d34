package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestCache_GetOrExtract_TruncatesAndReadsBack(t *testing.T) {
	tmpDir := t.TempDir()
	doc := writeFile(t, tmpDir, "a.pdf", "x")

	c := &Cache{Root: filepath.Join(tmpDir, "cache"), MaxTextBytes: 10}
	got, err := c.GetOrExtract(context.Background(), doc, func(context.Context, string) (string, error) {
		return "1234567890ABC", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "1234567890", got)

	got, err = c.GetOrExtract(context.Background(), doc, func(context.Context, string) (string, error) {
		t.Fatal("extractor should not be called on cache hit")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "1234567890", got)
}

func TestCache_GetOrExtract_InvalidatesOnChange(t *testing.T) {
	tmpDir := t.TempDir()
	doc := writeFile(t, tmpDir, "b.pdf", "x")
	c := &Cache{Root: filepath.Join(tmpDir, "cache")}

	calls := 0
	extract := func(context.Context, string) (string, error) {
		calls++
		return "text", nil
	}
	_, err := c.GetOrExtract(context.Background(), doc, extract)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(doc, []byte("changed"), 0o644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(doc, later, later))

	_, err = c.GetOrExtract(context.Background(), doc, extract)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCache_GetOrExtract_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	c := &Cache{Root: filepath.Join(tmpDir, "cache")}

	_, err := c.GetOrExtract(context.Background(), filepath.Join(tmpDir, "missing.pdf"), func(context.Context, string) (string, error) {
		return "", nil
	})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = c.GetOrExtract(context.Background(), tmpDir, func(context.Context, string) (string, error) {
		return "", nil
	})
	assert.ErrorContains(t, err, "not a regular file")

	boom := errors.New("broken xref table")
	doc := writeFile(t, tmpDir, "c.pdf", "x")
	_, err = c.GetOrExtract(context.Background(), doc, func(context.Context, string) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	_, statErr := os.Stat(c.entryPath(doc))
	assert.True(t, os.IsNotExist(statErr), "failed extraction must not be cached")
}

func TestCache_Read_RejectsForeignFile(t *testing.T) {
	tmpDir := t.TempDir()
	doc := writeFile(t, tmpDir, "d.pdf", "x")
	st, err := os.Stat(doc)
	require.NoError(t, err)

	c := &Cache{Root: filepath.Join(tmpDir, "cache")}
	entry := c.entryPath(doc)
	require.NoError(t, os.MkdirAll(filepath.Dir(entry), 0o755))
	require.NoError(t, os.WriteFile(entry, []byte("not a cache entry at all"), 0o644))

	_, ok := c.read(entry, st.Size(), st.ModTime())
	assert.False(t, ok)
}

func TestNew_DefaultRoot(t *testing.T) {
	c, err := New("", 0)
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}
	assert.Equal(t, filepath.Join("nfind", "preview"), filepath.Join(filepath.Base(filepath.Dir(c.Root)), filepath.Base(c.Root)))
	assert.EqualValues(t, defaultMaxTextBytes, c.maxTextBytes())
}

func TestTruncateUTF8(t *testing.T) {
	// "你" is 3 bytes in UTF-8.
	s := "你a"
	assert.Equal(t, "", truncateUTF8(s, 1))
	assert.Equal(t, "你", truncateUTF8(s, 3))
	assert.Equal(t, "你a", truncateUTF8(s, 4))
	assert.Equal(t, "你a", truncateUTF8(s, 0))
}
