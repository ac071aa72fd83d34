// Package cache keeps extracted document text on disk, keyed by file path and
// invalidated when the file's size or modification time changes.
package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"
)

const defaultMaxTextBytes = 2 << 20

// magic prefixes every entry so a format change invalidates old files.
var magic = [4]byte{'n', 'f', 'p', '1'}

const headerLen = len(magic) + 16

type Extractor func(ctx context.Context, path string) (string, error)

type Cache struct {
	Root         string
	MaxTextBytes int64
}

// New returns a cache rooted at root, or at <user cache dir>/nfind/preview
// when root is empty.
func New(root string, maxTextBytes int64) (*Cache, error) {
	if root == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user cache dir: %w", err)
		}
		root = filepath.Join(base, "nfind", "preview")
	}
	return &Cache{Root: root, MaxTextBytes: maxTextBytes}, nil
}

// TextLimit is the most text, in bytes, kept per entry.
func (c *Cache) TextLimit() int64 { return c.maxTextBytes() }

func (c *Cache) maxTextBytes() int64 {
	if c.MaxTextBytes > 0 {
		return c.MaxTextBytes
	}
	return defaultMaxTextBytes
}

// truncateUTF8 cuts s to at most maxBytes without splitting a rune.
func truncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (c *Cache) entryPath(absPath string) string {
	sum := sha1.Sum([]byte(absPath))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(c.Root, name[:2], name+".gz")
}

// GetOrExtract returns the cached text for absPath or runs extract and stores
// its result. Write failures are not reported; the text is still returned.
func (c *Cache) GetOrExtract(ctx context.Context, absPath string, extract Extractor) (string, error) {
	if extract == nil {
		return "", errors.New("extractor is nil")
	}
	st, err := os.Stat(absPath)
	if err != nil {
		return "", err
	}
	if !st.Mode().IsRegular() {
		return "", fmt.Errorf("%s: not a regular file", absPath)
	}

	entry := c.entryPath(absPath)
	if text, ok := c.read(entry, st.Size(), st.ModTime()); ok {
		return text, nil
	}

	text, err := extract(ctx, absPath)
	if err != nil {
		return "", err
	}
	text = truncateUTF8(text, int(c.maxTextBytes()))
	_ = c.write(entry, st.Size(), st.ModTime(), text)
	return text, nil
}

func (c *Cache) read(path string, size int64, mtime time.Time) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	var hdr [headerLen]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return "", false
	}
	if !bytes.Equal(hdr[:len(magic)], magic[:]) {
		return "", false
	}
	fields := hdr[len(magic):]
	if int64(binary.LittleEndian.Uint64(fields[0:8])) != mtime.UnixNano() ||
		int64(binary.LittleEndian.Uint64(fields[8:16])) != size {
		return "", false
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		return "", false
	}
	defer zr.Close()
	max := c.maxTextBytes()
	b, err := io.ReadAll(io.LimitReader(zr, max+1))
	if err != nil {
		return "", false
	}
	return truncateUTF8(string(b), int(max)), true
}

func (c *Cache) write(path string, size int64, mtime time.Time, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		_ = f.Close()
		_ = os.Remove(tmp)
	}()

	var hdr [headerLen]byte
	copy(hdr[:], magic[:])
	binary.LittleEndian.PutUint64(hdr[len(magic):], uint64(mtime.UnixNano()))
	binary.LittleEndian.PutUint64(hdr[len(magic)+8:], uint64(size))
	if _, err := f.Write(hdr[:]); err != nil {
		return err
	}

	zw := gzip.NewWriter(f)
	_, err = io.WriteString(zw, text)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
