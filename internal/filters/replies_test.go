package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func reply(value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"value": map[string]interface{}{"value": value},
	}
}

func TestReplyValueAccessors(t *testing.T) {
	assert.Equal(t, "hello", ReplyStrValue(reply("hello")))
	assert.Equal(t, "7", ReplyStrValue(reply(7)))
	assert.Equal(t, "", ReplyStrValue(nil))
	assert.Equal(t, "", ReplyStrValue(map[string]interface{}{"value": "flat"}))

	assert.Equal(t, 42, ReplyIntValue(reply(42)))
	assert.Equal(t, 42, ReplyIntValue(reply(42.9)))
	assert.Equal(t, 42, ReplyIntValue(reply("42")))
	assert.Equal(t, 0, ReplyIntValue(reply("nope")))
	assert.Equal(t, 0, ReplyIntValue(nil))

	assert.Equal(t, 1.5, ReplyFloatValue(reply(1.5)))
	assert.Equal(t, 2.0, ReplyFloatValue(reply(2)))
	assert.Equal(t, 0.0, ReplyFloatValue("garbage"))

	assert.Equal(t, []interface{}{"a", "b"}, ReplyItems(reply([]interface{}{"a", "b"})))
	assert.Equal(t, []interface{}{}, ReplyItems(reply("not a list")))
	assert.Equal(t, []interface{}{}, ReplyItems(nil))
}

func TestReplyPath(t *testing.T) {
	assert.Equal(t, "a.b.c", ReplyPath([]interface{}{"a", "b", "c"}))
	assert.Equal(t, "", ReplyPath(nil))
	assert.Equal(t, "1.2", ReplyPath([]interface{}{1, 2}))
}

func TestFindReply(t *testing.T) {
	replies := map[string]interface{}{
		"q1":    reply("yes"),
		"q1.q2": reply(3),
		"q3":    reply([]interface{}{"x"}),
	}

	assert.Equal(t, "yes", FindReply(replies, "q1", "string"))
	assert.Equal(t, 3, FindReply(replies, []interface{}{"q1", "q2"}, "int"))
	assert.Equal(t, 3.0, FindReply(replies, "q1.q2", "float"))
	assert.Equal(t, []interface{}{"x"}, FindReply(replies, "q3", "list"))

	// Wrong shapes and absent paths degrade to nil
	assert.Nil(t, FindReply(replies, "missing", "string"))
	assert.Nil(t, FindReply(map[string]interface{}{"q": "flat"}, "q", "string"))
}
