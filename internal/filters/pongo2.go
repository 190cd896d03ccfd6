package filters

import (
	"sync"

	"github.com/flosch/pongo2/v6"
)

// RegisterAll binds the filter set into pongo2's global registry. Safe to
// call from every jinja step construction; registration happens once per
// process. find_reply takes more than one argument and is therefore bound
// into the render context by the jinja step instead of being a filter.
func RegisterAll() {
	registerOnce.Do(registerFilters)
}

var registerOnce sync.Once

func registerFilters() {
	register := map[string]pongo2.FilterFunction{
		"any":               filterAny,
		"all":               filterAll,
		"datetime_format":   filterDatetimeFormat,
		"extract":           filterExtract,
		"of_alphabet":       filterOfAlphabet,
		"roman":             filterRoman,
		"markdown":          filterMarkdown,
		"dot":               filterDot,
		"reply_str_value":   filterReplyStrValue,
		"reply_int_value":   filterReplyIntValue,
		"reply_float_value": filterReplyFloatValue,
		"reply_items":       filterReplyItems,
		"reply_path":        filterReplyPath,
		"not_empty":         filterNotEmpty,
	}
	for name, fn := range register {
		// Registration collisions only happen on double-registration,
		// which the once above rules out
		_ = pongo2.RegisterFilter(name, fn)
	}
}

func filterError(sender string, err error) *pongo2.Error {
	return &pongo2.Error{Sender: sender, OrigError: err}
}

func filterDatetimeFormat(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsValue(""), nil
	}
	out, err := DatetimeFormat(in.String(), param.String())
	if err != nil {
		return nil, filterError("filter:datetime_format", err)
	}
	return pongo2.AsValue(out), nil
}

func filterExtract(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	obj, _ := in.Interface().(map[string]interface{})
	return pongo2.AsValue(Extract(obj, anySlice(param.Interface()))), nil
}

func filterOfAlphabet(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(OfAlphabet(in.Integer())), nil
}

func filterRoman(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(Roman(in.Integer())), nil
}

func filterMarkdown(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsValue(""), nil
	}
	out, err := Markdown(in.String())
	if err != nil {
		return nil, filterError("filter:markdown", err)
	}
	// Rendered HTML is intentionally exempt from autoescaping
	return pongo2.AsSafeValue(out), nil
}

func filterDot(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(Dot(in.String())), nil
}

func filterReplyStrValue(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(ReplyStrValue(in.Interface())), nil
}

func filterReplyIntValue(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(ReplyIntValue(in.Interface())), nil
}

func filterReplyFloatValue(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(ReplyFloatValue(in.Interface())), nil
}

func filterReplyItems(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(ReplyItems(in.Interface())), nil
}

func filterReplyPath(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(ReplyPath(anySlice(in.Interface()))), nil
}

func filterNotEmpty(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(NotEmpty(in.Interface())), nil
}

func filterAny(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(Any(anySlice(in.Interface()))), nil
}

func filterAll(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(All(anySlice(in.Interface()))), nil
}

// anySlice widens typed slices coming out of templates into []interface{}
func anySlice(v interface{}) []interface{} {
	switch s := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return s
	case []string:
		out := make([]interface{}, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out
	}
	return []interface{}{v}
}
