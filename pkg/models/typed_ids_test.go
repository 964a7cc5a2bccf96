package models_test

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebase/notebase/pkg/models"
)

func TestBlockIDCodecs(t *testing.T) {
	id := models.NewBlockID()

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(id)
		require.NoError(t, err)
		assert.Equal(t, `"`+id.String()+`"`, string(data))

		var back models.BlockID
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, id, back)
	})

	t.Run("cbor", func(t *testing.T) {
		data, err := cbor.Marshal(id)
		require.NoError(t, err)

		var back models.BlockID
		require.NoError(t, cbor.Unmarshal(data, &back))
		assert.Equal(t, id, back)
	})

	t.Run("sql", func(t *testing.T) {
		v, err := id.Value()
		require.NoError(t, err)

		var back models.BlockID
		require.NoError(t, back.Scan(v))
		assert.Equal(t, id, back)
	})

	t.Run("zero", func(t *testing.T) {
		var zero models.BlockID
		assert.True(t, zero.IsZero())

		v, err := zero.Value()
		require.NoError(t, err)
		assert.Nil(t, v, "zero ids store as NULL")
	})

	t.Run("parse rejects garbage", func(t *testing.T) {
		_, err := models.ParseBlockID("not-a-uuid")
		assert.Error(t, err)
	})
}

func TestJSONMapScan(t *testing.T) {
	var m models.JSONMap
	require.NoError(t, m.Scan([]byte(`{"text":"hi","depth":2}`)))
	assert.Equal(t, "hi", m["text"])
	assert.Equal(t, float64(2), m["depth"])

	v, err := m.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hi","depth":2}`, string(v.([]byte)))
}
