package message

import (
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// maxLineLength is the soft wrap limit for folded header lines.
const maxLineLength = 76

// Unfold removes all CR and LF characters from a header value, physically
// joining continuation lines. The input is returned unchanged when it
// contains no line breaks.
func Unfold(text string) string {
	if !strings.ContainsAny(text, "\r\n") {
		return text
	}
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, text)
}

// DecodeHeader decodes RFC 2047 encoded-words into plain Unicode text.
// Values that contain no encoded-words, or that fail to decode, are returned
// unchanged.
func DecodeHeader(text string) string {
	if !strings.Contains(text, "=?") {
		return text
	}
	decoded, err := wordDecoder.DecodeHeader(text)
	if err != nil {
		return text
	}
	return decoded
}

// UnfoldAndDecode unfolds a header value and decodes its encoded-words.
func UnfoldAndDecode(text string) string {
	return DecodeHeader(Unfold(text))
}

var wordDecoder = &mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := ianaindex.MIME.Encoding(normalizeCharset(charset))
		if err != nil {
			return nil, err
		}
		if enc == nil {
			return nil, fmt.Errorf("unsupported charset %q", charset)
		}
		return transform.NewReader(input, enc.NewDecoder()), nil
	},
}

// HeaderParameter extracts a parameter from a ;-separated header value. An
// empty name returns the first segment trimmed (the header's base value,
// e.g. the media type of a Content-Type). Otherwise the first segment whose
// trimmed form starts with the name (case-insensitive) is split on its first
// "=" and one layer of surrounding double quotes is stripped.
//
// The prefix match is deliberate and matches long-standing mail client
// behavior: looking up "charset" will also hit a parameter named "charset2".
// Segments without an "=" report no match.
func HeaderParameter(header, name string) (string, bool) {
	if header == "" {
		return "", false
	}
	header = Unfold(header)
	segments := strings.Split(header, ";")
	if name == "" {
		return strings.TrimSpace(segments[0]), true
	}
	want := strings.ToLower(name)
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if !strings.HasPrefix(strings.ToLower(segment), want) {
			continue
		}
		eq := strings.Index(segment, "=")
		if eq < 0 {
			return "", false
		}
		value := strings.TrimSpace(segment[eq+1:])
		if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
			value = value[1 : len(value)-1]
		}
		return value, true
	}
	return "", false
}

// Fold wraps text to 76-column lines by inserting CRLF at the whitespace
// boundary nearest the limit, accounting for usedColumns already consumed on
// the first line. A single token longer than the limit is emitted on its own
// over-length line rather than split. Folding round-trips under Unfold.
func Fold(text string, usedColumns int) string {
	limit := maxLineLength - usedColumns
	if limit < 1 {
		limit = 1
	}
	if len(text) <= limit {
		return text
	}

	var b strings.Builder
	rest := text
	for len(rest) > limit {
		cut := strings.LastIndexAny(rest[:limit+1], " \t")
		if cut <= 0 {
			// Over-length token: break after it, at the next whitespace.
			next := strings.IndexAny(rest[limit:], " \t")
			if next < 0 {
				break
			}
			cut = limit + next
		}
		b.WriteString(rest[:cut])
		b.WriteString("\r\n")
		rest = rest[cut:]
		limit = maxLineLength
	}
	b.WriteString(rest)
	return b.String()
}

var (
	globCacheMu sync.Mutex
	globCache   = map[string]*regexp.Regexp{}
)

// MimeTypeMatches reports whether a MIME type matches a glob pattern where
// "*" is the only wildcard. The match is case-insensitive and anchored.
func MimeTypeMatches(mimeType, pattern string) bool {
	globCacheMu.Lock()
	re, ok := globCache[pattern]
	if !ok {
		expr := "(?i)^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
		var err error
		re, err = regexp.Compile(expr)
		if err != nil {
			globCacheMu.Unlock()
			return false
		}
		globCache[pattern] = re
	}
	globCacheMu.Unlock()
	return re.MatchString(mimeType)
}

// MimeTypeMatchesAny reports whether a MIME type matches any of the patterns.
func MimeTypeMatchesAny(mimeType string, patterns []string) bool {
	for _, pattern := range patterns {
		if MimeTypeMatches(mimeType, pattern) {
			return true
		}
	}
	return false
}
