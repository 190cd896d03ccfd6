package filters

import (
	"testing"

	"github.com/flosch/pongo2/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatetimeFormat(t *testing.T) {
	out, err := DatetimeFormat("2024-03-01T14:30:05", "%d.%m.%Y")
	require.NoError(t, err)
	assert.Equal(t, "01.03.2024", out)

	// Fractional seconds are dropped before parsing
	out, err = DatetimeFormat("2024-03-01T14:30:05.123456", "%H:%M")
	require.NoError(t, err)
	assert.Equal(t, "14:30", out)

	_, err = DatetimeFormat("not a timestamp", "%Y")
	assert.Error(t, err)
}

func TestExtract(t *testing.T) {
	obj := map[string]interface{}{"a": 1, "b": 2, "c": 3}
	assert.Equal(t, []interface{}{3, 1}, Extract(obj, []interface{}{"c", "missing", "a"}))
	assert.Empty(t, Extract(obj, nil))
	assert.Empty(t, Extract(nil, []interface{}{"a"}))
}

func TestOfAlphabet(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "a"},
		{1, "b"},
		{25, "z"},
		{26, "aa"},
		{27, "ab"},
		{701, "zz"},
		{702, "aaa"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OfAlphabet(tt.n), "of_alphabet(%d)", tt.n)
	}
	assert.Equal(t, "", OfAlphabet(-1))
}

func TestRoman(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "I"},
		{4, "IV"},
		{9, "IX"},
		{14, "XIV"},
		{1994, "MCMXCIV"},
		{3999, "MMMCMXCIX"},
		{0, ""},
		{-5, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Roman(tt.n), "roman(%d)", tt.n)
	}
}

func TestMarkdown(t *testing.T) {
	out, err := Markdown("**bold** and `code`")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<code>code</code>")

	// Lists directly after a paragraph line still render as lists
	out, err = Markdown("items:\n- one\n- two")
	require.NoError(t, err)
	assert.Contains(t, out, "<li>one</li>")
}

func TestDot(t *testing.T) {
	assert.Equal(t, "abc.", Dot("abc"))
	assert.Equal(t, "abc.", Dot("abc."))
	assert.Equal(t, "   ", Dot("   "))
	assert.Equal(t, "", Dot(""))
}

func TestNotEmpty(t *testing.T) {
	assert.True(t, NotEmpty("x"))
	assert.False(t, NotEmpty(""))
	assert.True(t, NotEmpty([]interface{}{1}))
	assert.False(t, NotEmpty([]interface{}{}))
	assert.False(t, NotEmpty(nil))
	assert.True(t, NotEmpty(0))
}

func TestAnyAll(t *testing.T) {
	assert.True(t, Any([]interface{}{false, "", 1}))
	assert.False(t, Any([]interface{}{false, "", 0}))
	assert.False(t, Any(nil))

	assert.True(t, All([]interface{}{true, "x", 1}))
	assert.False(t, All([]interface{}{true, ""}))
	assert.True(t, All(nil))
}

func TestPongo2Bindings(t *testing.T) {
	RegisterAll()

	tpl, err := pongo2.FromString(
		`{{ n|of_alphabet }} {{ year|roman }} {{ text|dot }} {{ ts|datetime_format:"%Y" }}`)
	require.NoError(t, err)

	out, err := tpl.Execute(pongo2.Context{
		"n":    26,
		"year": 4,
		"text": "done",
		"ts":   "2024-03-01T14:30:05",
	})
	require.NoError(t, err)
	assert.Equal(t, "aa IV done. 2024", out)
}

func TestPongo2MarkdownIsSafe(t *testing.T) {
	RegisterAll()

	tpl, err := pongo2.FromString(`{{ text|markdown }}`)
	require.NoError(t, err)

	out, err := tpl.Execute(pongo2.Context{"text": "*hi*"})
	require.NoError(t, err)
	assert.Contains(t, out, "<em>hi</em>")
}

func TestPongo2NilDatetime(t *testing.T) {
	RegisterAll()

	tpl, err := pongo2.FromString(`[{{ ts|datetime_format:"%Y" }}]`)
	require.NoError(t, err)

	out, err := tpl.Execute(pongo2.Context{"ts": nil})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}
