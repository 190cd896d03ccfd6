package filters

import (
	"fmt"
	"strconv"
	"strings"
)

// Reply lookups. A reply map has the shape {path: {value: {value: X}}};
// every accessor degrades gracefully to its zero result when the path is
// absent or the shape is wrong.

// replyValue unwraps the nested {value: {value: X}} shell
func replyValue(reply interface{}) (interface{}, bool) {
	outer, ok := reply.(map[string]interface{})
	if !ok {
		return nil, false
	}
	inner, ok := outer["value"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	value, ok := inner["value"]
	return value, ok
}

// ReplyStrValue returns the reply value as a string, "" when absent
func ReplyStrValue(reply interface{}) string {
	value, ok := replyValue(reply)
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

// ReplyIntValue returns the reply value as an int, 0 when absent or not
// coercible
func ReplyIntValue(reply interface{}) int {
	value, ok := replyValue(reply)
	if !ok {
		return 0
	}
	return coerceInt(value)
}

// ReplyFloatValue returns the reply value as a float, 0.0 when absent or
// not coercible
func ReplyFloatValue(reply interface{}) float64 {
	value, ok := replyValue(reply)
	if !ok {
		return 0
	}
	return coerceFloat(value)
}

// ReplyItems returns the reply value as a list, [] when absent or not a
// list
func ReplyItems(reply interface{}) []interface{} {
	value, ok := replyValue(reply)
	if !ok {
		return []interface{}{}
	}
	if items, ok := value.([]interface{}); ok {
		return items
	}
	return []interface{}{}
}

// ReplyPath dot-joins a sequence of reply path segments
func ReplyPath(uuids []interface{}) string {
	parts := make([]string, len(uuids))
	for i, u := range uuids {
		parts[i] = fmt.Sprint(u)
	}
	return strings.Join(parts, ".")
}

// FindReply looks a reply up by path (a string or a segment list) and
// coerces its value to asType ("string", "int", "float" or "list").
// An absent path or a missing value yields nil.
func FindReply(replies map[string]interface{}, path interface{}, asType string) interface{} {
	key, ok := path.(string)
	if !ok {
		if segments, isList := path.([]interface{}); isList {
			key = ReplyPath(segments)
		} else {
			key = fmt.Sprint(path)
		}
	}
	reply, ok := replies[key]
	if !ok {
		return nil
	}
	value, ok := replyValue(reply)
	if !ok {
		return nil
	}
	switch asType {
	case "int":
		return coerceInt(value)
	case "float":
		return coerceFloat(value)
	case "list":
		if items, ok := value.([]interface{}); ok {
			return items
		}
		return []interface{}{}
	default:
		if value == nil {
			return ""
		}
		return fmt.Sprint(value)
	}
}

func coerceInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

func coerceFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}
