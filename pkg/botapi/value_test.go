package botapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValue_PreservesOrder(t *testing.T) {
	t.Parallel()

	const raw = `{"b":1,"a":{"z":true,"y":null},"c":[1,{"d":"x"}]}`

	value, err := decodeValue([]byte(raw))
	require.NoError(t, err)

	dict, ok := value.(*Dict)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "c"}, dict.Keys())

	nested, ok := dict.Dict("a")
	require.True(t, ok)
	assert.Equal(t, []string{"z", "y"}, nested.Keys())

	list, ok := dict.List("c")
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, json.Number("1"), list[0])

	encoded, err := json.Marshal(dict)
	require.NoError(t, err)
	assert.Equal(t, raw, string(encoded))
}

func TestDecodeValue_TopLevelArray(t *testing.T) {
	t.Parallel()

	value, err := decodeValue([]byte(`[1,2,3]`))
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("1"), json.Number("2"), json.Number("3")}, value)
}

func TestDecodeValue_Invalid(t *testing.T) {
	t.Parallel()

	testCases := [...]struct {
		desc string
		raw  string
	}{
		{desc: "empty body", raw: ``},
		{desc: "truncated object", raw: `{"ok":`},
		{desc: "trailing value", raw: `{"ok":true} {"ok":false}`},
		{desc: "html", raw: `<html></html>`},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			_, err := decodeValue([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}

func TestDict_FromAlias(t *testing.T) {
	t.Parallel()

	var update Dict
	require.NoError(t, json.Unmarshal([]byte(`{"message":{"from":{"id":7,"first_name":"Kaede"}}}`), &update))

	message, ok := update.Dict("message")
	require.True(t, ok)

	sender, ok := message.Dict("_from")
	require.True(t, ok)

	id, ok := sender.Int64("id")
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
	assert.True(t, message.Has("_from"))
	assert.Equal(t, []string{"from"}, message.Keys(), "the alias is not a key")
}

func TestDict_OwnKeyWinsOverAlias(t *testing.T) {
	t.Parallel()

	dict := NewDict()
	dict.Set("from", "real")
	dict.Set("_from", "own")

	value, ok := dict.Get("_from")
	require.True(t, ok)
	assert.Equal(t, "own", value)
}

func TestDict_Getters(t *testing.T) {
	t.Parallel()

	var dict Dict
	require.NoError(t, json.Unmarshal([]byte(`{"ok":true,"text":"hi","n":12,"f":1.5}`), &dict))

	ok, found := dict.Bool("ok")
	assert.True(t, found)
	assert.True(t, ok)

	text, found := dict.String("text")
	assert.True(t, found)
	assert.Equal(t, "hi", text)

	n, found := dict.Int64("n")
	assert.True(t, found)
	assert.Equal(t, int64(12), n)

	_, found = dict.Int64("f")
	assert.False(t, found, "fractions are not integers")

	_, found = dict.String("n")
	assert.False(t, found, "type mismatch")

	_, found = dict.Get("missing")
	assert.False(t, found)

	var nilDict *Dict
	_, found = nilDict.Get("ok")
	assert.False(t, found)
	assert.Zero(t, nilDict.Len())
}

func TestDict_SetKeepsPosition(t *testing.T) {
	t.Parallel()

	dict := NewDict()
	dict.Set("a", 1)
	dict.Set("b", 2)
	dict.Set("a", 3)

	assert.Equal(t, []string{"a", "b"}, dict.Keys())
	assert.Equal(t, 2, dict.Len())

	value, _ := dict.Get("a")
	assert.Equal(t, 3, value)
}

func TestDict_UnmarshalNonObject(t *testing.T) {
	t.Parallel()

	var dict Dict
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &dict))
}

func TestDict_Decode(t *testing.T) {
	t.Parallel()

	var dict Dict
	require.NoError(t, json.Unmarshal([]byte(`{"update_id":5,"message":{"text":"hi"}}`), &dict))

	var out struct {
		UpdateID int `json:"update_id"`
		Message  struct {
			Text string `json:"text"`
		} `json:"message"`
	}
	require.NoError(t, dict.Decode(&out))
	assert.Equal(t, 5, out.UpdateID)
	assert.Equal(t, "hi", out.Message.Text)
}
