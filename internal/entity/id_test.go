package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshalJSON(t *testing.T) {
	var v struct {
		A ID   `json:"a"`
		B ID   `json:"b"`
		C []ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12, "b": "7", "c": [1, "2"]}`), &v))
	assert.Equal(t, ID("12"), v.A)
	assert.Equal(t, ID("7"), v.B)
	assert.Equal(t, []ID{"1", "2"}, v.C)

	for _, raw := range []string{`{"a": -1}`, `{"a": "abc"}`, `{"c": ["1", "x2"]}`, `{"b": "-3"}`, `{"a": true}`} {
		assert.ErrorIs(t, json.Unmarshal([]byte(raw), &v), ErrInvalid, raw)
	}

	v.A = "9"
	require.NoError(t, json.Unmarshal([]byte(`{"a": ""}`), &v))
	assert.True(t, v.A.IsZero())
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	n, err := id.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint(42), n)

	_, err = ParseID("abc")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = ID("abc").Uint()
	assert.ErrorIs(t, err, ErrInvalid)
	assert.NoError(t, ID("").Validate("x"))
	assert.ErrorIs(t, ID("1.5").Validate("x"), ErrInvalid)
}
