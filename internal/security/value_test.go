package security

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	decode := func(t *testing.T, raw string) Value {
		t.Helper()
		var holder struct {
			V Value `json:"v"`
		}
		require.NoError(t, json.Unmarshal([]byte(raw), &holder))
		return holder.V
	}

	t.Run("flag forms", func(t *testing.T) {
		tests := []struct {
			raw    string
			set    bool
			wantOK bool
		}{
			{`{"v":1}`, true, true},
			{`{"v":"1"}`, true, true},
			{`{"v":true}`, true, true},
			{`{"v":0}`, false, true},
			{`{"v":"0"}`, false, true},
			{`{"v":false}`, false, true},
			{`{"v":null}`, false, false},
			{`{}`, false, false},
			{`{"v":""}`, false, false},
			{`{"v":"0.05"}`, false, false},
			{`{"v":2}`, false, false},
		}
		for _, tt := range tests {
			set, ok := decode(t, tt.raw).Flag()
			assert.Equal(t, tt.wantOK, ok, tt.raw)
			assert.Equal(t, tt.set, set, tt.raw)
		}
	})

	t.Run("presence", func(t *testing.T) {
		assert.False(t, decode(t, `{}`).Present())
		assert.False(t, decode(t, `{"v":null}`).Present())
		assert.True(t, decode(t, `{"v":""}`).Present())
		assert.True(t, decode(t, `{"v":0}`).Present())
	})

	t.Run("numbers keep their literal", func(t *testing.T) {
		assert.Equal(t, "1000000000000000000000", decode(t, `{"v":1000000000000000000000}`).String())
		assert.Equal(t, "0.0025", decode(t, `{"v":0.0025}`).String())
	})

	t.Run("objects are kept as text", func(t *testing.T) {
		assert.Equal(t, `{"a":1}`, decode(t, `{"v":{"a":1}}`).String())
	})

	t.Run("or", func(t *testing.T) {
		assert.Equal(t, Str("x"), Value{}.Or(Str("x")))
		assert.Equal(t, Str("x"), Null().Or(Str("x")))
		assert.Equal(t, Str("x"), Str("").Or(Str("x")))
		assert.Equal(t, Num("0"), Num("0").Or(Str("x")))
	})

	t.Run("marshal", func(t *testing.T) {
		out, err := json.Marshal(struct {
			A Value `json:"a"`
			B Value `json:"b"`
			C Value `json:"c"`
			D Value `json:"d,omitzero"`
			E Value `json:"e"`
		}{A: Str("1"), B: Num("2.5"), C: Bool(true), E: Null()})
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":"1","b":2.5,"c":true,"e":null}`, string(out))
	})
}
