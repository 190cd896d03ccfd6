package filters

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// Pure helper functions injected into the templating environment. The
// pongo2 bindings live in pongo2.go; everything here is directly testable.

const isoLayout = "2006-01-02T15:04:05"

var romans = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"}, {100, "C"}, {90, "XC"},
	{50, "L"}, {40, "XL"}, {10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

var markdownRenderer = goldmark.New(
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// DatetimeFormat parses an ISO 8601 timestamp, ignoring any fractional
// seconds suffix, and formats it with a strftime-style spec
func DatetimeFormat(isoTimestamp, format string) (string, error) {
	stripped := strings.SplitN(isoTimestamp, ".", 2)[0]
	t, err := time.Parse(isoLayout, stripped)
	if err != nil {
		return "", fmt.Errorf("failed to parse timestamp %q: %w", isoTimestamp, err)
	}
	return timefmt.Format(t, format), nil
}

// Extract returns obj[k] for each key in keys that obj contains, in key
// order
func Extract(obj map[string]interface{}, keys []interface{}) []interface{} {
	result := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		if value, ok := obj[fmt.Sprint(key)]; ok {
			result = append(result, value)
		}
	}
	return result
}

// OfAlphabet labels n positionally over a..z in bijective base 26:
// 0 -> a, 25 -> z, 26 -> aa, 701 -> zz, 702 -> aaa
func OfAlphabet(n int) string {
	if n < 0 {
		return ""
	}
	n++
	var result []byte
	for n > 0 {
		n--
		result = append([]byte{byte('a' + n%26)}, result...)
		n /= 26
	}
	return string(result)
}

// Roman renders positive n as classical Roman numerals, "" otherwise
func Roman(n int) string {
	var b strings.Builder
	for n > 0 {
		for _, r := range romans {
			for n >= r.value {
				b.WriteString(r.symbol)
				n -= r.value
			}
		}
	}
	return b.String()
}

// Markdown renders markdown text as HTML
func Markdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// Dot appends a period unless the text is blank or already ends in one
func Dot(text string) string {
	if strings.HasSuffix(text, ".") || len(strings.TrimSpace(text)) == 0 {
		return text
	}
	return text + "."
}

// NotEmpty reports whether x has positive length, or is non-nil for
// length-less values
func NotEmpty(x interface{}) bool {
	if x == nil {
		return false
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return v.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !v.IsNil()
	}
	return true
}

// Truthy follows template truthiness: nil, false, zero numbers, empty
// strings and empty collections are false
func Truthy(x interface{}) bool {
	switch v := x.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

// Any reports whether at least one item is truthy
func Any(items []interface{}) bool {
	for _, item := range items {
		if Truthy(item) {
			return true
		}
	}
	return false
}

// All reports whether every item is truthy; true for an empty sequence
func All(items []interface{}) bool {
	for _, item := range items {
		if !Truthy(item) {
			return false
		}
	}
	return true
}
