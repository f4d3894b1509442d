package parser

import (
	"regexp"
	"strings"

	"github.com/woofnb/woofnb/internal/woofterr"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

func isKeyChar(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_' || b == '-'
}

func isBareValueChar(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '_', '-', '.', ',', ':', '/', '@':
		return true
	}
	return false
}

// cellToken is one key[=value] pair parsed from a fence-open line's
// remainder, per spec.md §4.1.
type cellToken struct {
	Key   string
	Value string
}

// tokenizeCellHeader splits the text following "```cell" into tokens.
// Bare values are terminated by whitespace; quoted values support \" and
// \\ escapes and otherwise preserve backslashes literally. A key with no
// "=value" is recorded with value "true". Duplicate keys are an error.
func tokenizeCellHeader(s string, line int) ([]cellToken, error) {
	var tokens []cellToken
	seen := map[string]bool{}
	i, n := 0, len(s)

	for i < n {
		for i < n && isSpace(s[i]) {
			i++
		}
		if i >= n {
			break
		}

		start := i
		for i < n && isKeyChar(s[i]) {
			i++
		}
		key := s[start:i]
		if key == "" || !keyPattern.MatchString(key) {
			return nil, woofterr.Atf(woofterr.KindBadTokenSyntax, line, "invalid token near %q", s[start:])
		}

		var value string
		if i < n && s[i] == '=' {
			i++
			if i < n && s[i] == '"' {
				i++
				var b strings.Builder
				closed := false
				for i < n {
					c := s[i]
					if c == '\\' && i+1 < n && (s[i+1] == '"' || s[i+1] == '\\') {
						b.WriteByte(s[i+1])
						i += 2
						continue
					}
					if c == '"' {
						closed = true
						i++
						break
					}
					b.WriteByte(c)
					i++
				}
				if !closed {
					return nil, woofterr.Atf(woofterr.KindBadTokenSyntax, line, "unterminated quoted value for %q", key)
				}
				value = b.String()
			} else {
				vs := i
				for i < n && isBareValueChar(s[i]) {
					i++
				}
				if vs == i {
					return nil, woofterr.Atf(woofterr.KindBadTokenSyntax, line, "missing value for %q", key)
				}
				value = s[vs:i]
			}
		} else {
			value = "true"
		}

		if seen[key] {
			return nil, woofterr.Atf(woofterr.KindDuplicateToken, line, "duplicate token %q", key)
		}
		seen[key] = true
		tokens = append(tokens, cellToken{Key: key, Value: value})
	}

	return tokens, nil
}

func splitCommaList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
