package nativesearch

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxResultsCeiling bounds Filters.MaxResults regardless of configuration.
const MaxResultsCeiling = 100

// SearchRecord is one file returned by the platform index.
// Location is a plain path on macOS and a "file:" URI on Windows.
type SearchRecord struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	Attribute string `json:"attribute"`
}

// Path returns Location as a filesystem path, stripping the file: scheme.
func (r SearchRecord) Path() string {
	loc := r.Location
	if !strings.HasPrefix(strings.ToLower(loc), "file:") {
		return loc
	}
	loc = loc[len("file:"):]
	// Windows Search emits "file:C:/dir/a.pdf" without percent-encoding.
	if !strings.HasPrefix(loc, "//") {
		return loc
	}
	if dec, err := url.PathUnescape(loc); err == nil {
		loc = dec
	}
	if !strings.HasPrefix(loc, "///") {
		// file://server/share keeps its UNC host
		return loc
	}
	loc = loc[2:]
	// file:///C:/x leaves "/C:/x"
	if len(loc) > 2 && loc[2] == ':' {
		loc = loc[1:]
	}
	return loc
}

// Filters are the fixed restrictions compiled into every native query.
type Filters struct {
	Extensions   []string
	MaxSizeBytes int64
	MaxResults   int
}

// DefaultFilters matches the filter policy the bridge ships with.
func DefaultFilters() Filters {
	return Filters{
		Extensions:   []string{".pdf", ".png", ".jpg", ".jpeg"},
		MaxSizeBytes: 10_000_000,
		MaxResults:   MaxResultsCeiling,
	}
}

// QuerySpec is consumed once by a builder and discarded.
type QuerySpec struct {
	Fragment string
	Filters
}

func (s QuerySpec) Validate() error {
	if s.MaxResults <= 0 || s.MaxResults > MaxResultsCeiling {
		return newError(StageBuild, "validate", fmt.Sprintf("max results must be in 1..%d, got %d", MaxResultsCeiling, s.MaxResults))
	}
	if s.MaxSizeBytes <= 0 {
		return newError(StageBuild, "validate", fmt.Sprintf("max size must be positive, got %d", s.MaxSizeBytes))
	}
	if len(s.Extensions) == 0 {
		return newError(StageBuild, "validate", "extension allow-list is empty")
	}
	for _, ext := range s.Extensions {
		if !validExtension(ext) {
			return newError(StageBuild, "validate", fmt.Sprintf("invalid extension %q", ext))
		}
	}
	return validateFragment(s.Fragment)
}

// validExtension accepts "." followed by 1..16 ASCII letters or digits.
// Extensions are embedded in native queries without further escaping.
func validExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 17 || ext[0] != '.' {
		return false
	}
	for i := 1; i < len(ext); i++ {
		c := ext[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
