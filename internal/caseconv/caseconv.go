// Package caseconv rewrites record keys between naming conventions. It is
// used at the boundary between snake_case storage rows and camelCase domain
// payloads: only keys are rewritten, values are never altered.
package caseconv

import (
	"regexp"
	"strings"

	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

// Case enumerates the supported target conventions.
type Case string

const (
	Camel          Case = "camelCase"
	Snake          Case = "snakeCase"
	Kebab          Case = "kebabCase"
	Pascal         Case = "pascalCase"
	ScreamingSnake Case = "screamingSnakeCase"
	Dot            Case = "dotCase"
)

// Options adjusts key conversion.
type Options struct {
	// PreserveKeys lists key names copied unchanged. Their values are still
	// converted recursively when they are records.
	PreserveKeys []string
	// PreserveConsecutiveUppercase splits an uppercase run into its own
	// token (HTTPServer -> http_server instead of httpserver).
	PreserveConsecutiveUppercase bool
}

var (
	separatorThenChar = regexp.MustCompile(`[-_.](\w)`)
	// a word boundary is an uppercase letter after a lowercase letter or a
	// digit; uppercase runs stay together so already-converted keys survive
	// re-conversion unchanged
	caseBoundary   = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	separatorSplit = regexp.MustCompile(`[-_.]`)
)

// ConvertKey converts a single key to the target case.
func ConvertKey(key string, target Case, opts Options) string {
	if opts.PreserveConsecutiveUppercase {
		key = groupUppercaseRuns(key)
	}

	switch target {
	case Camel:
		return separatorThenChar.ReplaceAllStringFunc(key, func(m string) string {
			return strings.ToUpper(m[1:])
		})
	case Snake:
		return withSeparator(key, "_")
	case Kebab:
		return withSeparator(key, "-")
	case Dot:
		return withSeparator(key, ".")
	case ScreamingSnake:
		return strings.ToUpper(withSeparator(key, "_"))
	case Pascal:
		// normalize to snake first so case boundaries split words too
		words := separatorSplit.Split(withSeparator(key, "_"), -1)
		var b strings.Builder
		for _, word := range words {
			if word == "" {
				continue
			}
			b.WriteString(strings.ToUpper(word[:1]))
			b.WriteString(word[1:])
		}
		return b.String()
	default:
		return key
	}
}

// groupUppercaseRuns lowercases runs of uppercase letters as single tokens
// separated by underscores. A run followed by a lowercase letter donates its
// last letter to the next word: HTTPServer -> http_server, parentID ->
// parent_id.
func groupUppercaseRuns(key string) string {
	isUpper := func(r rune) bool { return r >= 'A' && r <= 'Z' }
	isLower := func(r rune) bool { return r >= 'a' && r <= 'z' }
	isSep := func(r rune) bool { return r == '_' || r == '-' || r == '.' }

	runes := []rune(key)
	var b strings.Builder
	sep := func() {
		if b.Len() == 0 {
			return
		}
		if prev := rune(b.String()[b.Len()-1]); isSep(prev) {
			return
		}
		b.WriteByte('_')
	}

	for i := 0; i < len(runes); {
		if !isUpper(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		end := i
		for end < len(runes) && isUpper(runes[end]) {
			end++
		}
		runLen := end - i
		startsWord := end < len(runes) && isLower(runes[end])
		switch {
		case startsWord && runLen == 1:
			// word-initial capital, keep it with the word
			sep()
			b.WriteString(strings.ToLower(string(runes[i])))
		case startsWord:
			// last capital of the run opens the next word
			sep()
			b.WriteString(strings.ToLower(string(runes[i : end-1])))
			b.WriteByte('_')
			b.WriteString(strings.ToLower(string(runes[end-1])))
		default:
			sep()
			b.WriteString(strings.ToLower(string(runes[i:end])))
			if end < len(runes) && !isSep(runes[end]) {
				b.WriteByte('_')
			}
		}
		i = end
	}
	return strings.Trim(b.String(), "_")
}

// withSeparator lowercases the key inserting sep at case boundaries and
// normalizing the other separators. A key already in the target case comes
// back unchanged.
func withSeparator(key, sep string) string {
	out := caseBoundary.ReplaceAllString(key, "${1}"+sep+"${2}")
	out = strings.ToLower(out)
	out = strings.TrimPrefix(out, sep)
	for _, other := range []string{"-", "_", "."} {
		if other != sep {
			out = strings.ReplaceAll(out, other, sep)
		}
	}
	return out
}

// Convert rewrites every key of record to the target case, recursing into
// nested records and into record elements of nested slices. The top-level
// argument must be a record.
func Convert(record map[string]interface{}, target Case, opts Options) (map[string]interface{}, error) {
	if record == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "input must be a record")
	}
	return convertRecord(record, target, opts), nil
}

// ConvertValue accepts an arbitrary decoded value and rejects anything that
// is not a record at the top level, including arrays.
func ConvertValue(value interface{}, target Case, opts Options) (map[string]interface{}, error) {
	record, ok := value.(map[string]interface{})
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "input must be a record")
	}
	return Convert(record, target, opts)
}

func convertRecord(record map[string]interface{}, target Case, opts Options) map[string]interface{} {
	out := make(map[string]interface{}, len(record))
	for key, value := range record {
		name := key
		if !preserved(key, opts.PreserveKeys) {
			name = ConvertKey(key, target, opts)
		}
		out[name] = convertValue(value, target, opts)
	}
	return out
}

func convertValue(value interface{}, target Case, opts Options) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return convertRecord(v, target, opts)
	case []interface{}:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = convertValue(item, target, opts)
		}
		return items
	case []map[string]interface{}:
		items := make([]map[string]interface{}, len(v))
		for i, item := range v {
			items[i] = convertRecord(item, target, opts)
		}
		return items
	default:
		return value
	}
}

func preserved(key string, keys []string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
