package keys

import (
	"regexp"
	"strings"
	"unicode"
)

// minKeyLength is the shortest token treated as a credential
const minKeyLength = 20

var (
	keyToken = regexp.MustCompile(`[A-Za-z0-9_-]{20,}`)
	validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	quotes   = strings.NewReplacer(`"`, "", `'`, "")
)

// ParseKeys extracts credentials from free-form text such as a pasted file.
// Tokens are separated by newlines, commas or whitespace. Quotes and URL
// prefixes are stripped, tokens shorter than twenty characters are ignored and
// duplicates are removed preserving first occurrence.
func ParseKeys(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(fields))
	result := make([]string, 0, len(fields))
	for _, f := range fields {
		f = quotes.Replace(f)
		if m := keyToken.FindString(f); m != "" {
			f = m
		}
		if len(f) < minKeyLength || !validKey.MatchString(f) {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		result = append(result, f)
	}
	return result
}

// MaskKey hides everything but the first six characters of a credential.
func MaskKey(key string) string {
	if len(key) <= 6 {
		return "******"
	}
	return key[:6] + "******"
}
