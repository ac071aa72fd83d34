package nativesearch

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Columns selected from the Windows SystemIndex, in materialization order.
var sqlColumns = [...]string{"System.FileName", "System.ItemUrl", "System.Size"}

// validateFragment rejects fragments that cannot be carried by either native
// query dialect. A fragment is never truncated to make it fit.
func validateFragment(fragment string) error {
	if !utf8.ValidString(fragment) {
		return newError(StageBuild, "encode fragment", "fragment is not valid UTF-8")
	}
	for i, r := range fragment {
		if r == 0 {
			return newError(StageBuild, "encode fragment", fmt.Sprintf("fragment contains NUL at byte %d", i))
		}
		if r < 0x20 || r == 0x7f {
			return newError(StageBuild, "encode fragment", fmt.Sprintf("fragment contains control character %U at byte %d", r, i))
		}
	}
	return nil
}

// BuildSQL compiles spec into a Windows Search SQL statement for the
// Search.CollatorDSO provider.
func BuildSQL(spec QuerySpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("SELECT TOP ")
	sb.WriteString(strconv.Itoa(spec.MaxResults))
	sb.WriteByte(' ')
	sb.WriteString(strings.Join(sqlColumns[:], ", "))
	sb.WriteString(" FROM SystemIndex WHERE SCOPE='file:' AND (")
	for i, ext := range spec.Extensions {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("System.FileExtension = '")
		sb.WriteString(strings.ToLower(ext))
		sb.WriteByte('\'')
	}
	sb.WriteString(") AND System.Size < ")
	sb.WriteString(strconv.FormatInt(spec.MaxSizeBytes, 10))

	if frag := strings.TrimSpace(spec.Fragment); frag != "" {
		sb.WriteString(" AND System.FileName LIKE '%")
		sb.WriteString(likePattern(frag))
		sb.WriteString("%'")
	}
	return sb.String(), nil
}

// likePattern turns a user fragment into the body of a LIKE literal:
// '*' and '?' become wildcards, LIKE metacharacters are bracket-escaped and
// single quotes are doubled.
func likePattern(frag string) string {
	var sb strings.Builder
	sb.Grow(len(frag) + 8)
	for _, r := range frag {
		switch r {
		case '*':
			sb.WriteByte('%')
		case '?':
			sb.WriteByte('_')
		case '%', '_', '[':
			sb.WriteByte('[')
			sb.WriteRune(r)
			sb.WriteByte(']')
		case '\'':
			sb.WriteString("''")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// BuildPredicate compiles spec into a Spotlight metadata query string for
// +[NSPredicate predicateFromMetadataQueryString:].
func BuildPredicate(spec QuerySpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteByte('(')
	for i, ext := range spec.Extensions {
		if i > 0 {
			sb.WriteString(" || ")
		}
		sb.WriteString(`kMDItemFSName == "*`)
		sb.WriteString(ext)
		sb.WriteString(`"c`)
	}
	sb.WriteString(") && kMDItemFSSize < ")
	sb.WriteString(strconv.FormatInt(spec.MaxSizeBytes, 10))

	if frag := strings.TrimSpace(spec.Fragment); frag != "" {
		sb.WriteString(` && kMDItemDisplayName == "*`)
		sb.WriteString(mdqueryEscape(frag))
		sb.WriteString(`*"cd`)
	}
	return sb.String(), nil
}

// mdqueryEscape escapes a fragment for a double-quoted metadata query
// literal. '*' and '?' stay wildcards.
func mdqueryEscape(frag string) string {
	var sb strings.Builder
	sb.Grow(len(frag) + 8)
	for _, r := range frag {
		switch r {
		case '\\', '"', '\'':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
