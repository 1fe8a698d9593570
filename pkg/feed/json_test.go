package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_TopLevelArray(t *testing.T) {
	data := []byte(`[
		{"id": "SKU-1", "title": "Polo Shirt", "price": "15.00 USD"},
		{"id": "SKU-2", "title": "Tee"}
	]`)

	records, err := ParseJSON(data, JSONOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 2, records[0].Row)
	assert.Equal(t, 3, records[1].Row)
	assert.Equal(t, "SKU-1", records[0].Get("id"))
	assert.Equal(t, "15.00 USD", records[0].Get("price"))
}

func TestParseJSON_ItemsWrapper(t *testing.T) {
	data := []byte(`{"items": [{"id": "SKU-1", "title": "Polo"}]}`)

	records, err := ParseJSON(data, JSONOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Row)
}

func TestParseJSON_ScalarCoercion(t *testing.T) {
	data := []byte(`[{"id": 12345, "price": 15.10, "title": "  Polo  ", "gtin": null, "is_bundle": false}]`)

	records, err := ParseJSON(data, JSONOptions{})
	require.NoError(t, err)

	rec := records[0]
	assert.Equal(t, "12345", rec.Get("id"))
	// Numbers keep their literal form; 15.10 must not become 15.1.
	assert.Equal(t, "15.10", rec.Get("price"))
	assert.Equal(t, "Polo", rec.Get("title"))
	assert.Equal(t, "", rec.Get("gtin"))
	assert.False(t, rec.Has("gtin"))
	assert.Equal(t, "false", rec.Get("is_bundle"))
}

func TestParseJSON_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"not json", "id,title\nSKU-1,Polo"},
		{"truncated", `[{"id": "SKU-1"`},
		{"scalar document", `"hello"`},
		{"object without items", `{"products": []}`},
		{"array of scalars", `[1, 2, 3]`},
		{"empty array", `[]`},
		{"empty items", `{"items": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.data), JSONOptions{})
			require.ErrorIs(t, err, ErrMalformedFeed)
		})
	}
}

func TestParseJSON_MaxRows(t *testing.T) {
	data := []byte(`[{"id": "1"}, {"id": "2"}, {"id": "3"}]`)

	_, err := ParseJSON(data, JSONOptions{MaxRows: 2})
	require.ErrorIs(t, err, ErrMalformedFeed)

	records, err := ParseJSON(data, JSONOptions{MaxRows: 3})
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestRecordGetTrims(t *testing.T) {
	rec := Record{Row: 2, Values: map[string]string{"title": "  Polo  ", "empty": "   "}}

	assert.Equal(t, "Polo", rec.Get("title"))
	assert.True(t, rec.Has("title"))
	assert.Equal(t, "", rec.Get("empty"))
	assert.False(t, rec.Has("empty"))
	assert.Equal(t, "", rec.Get("missing"))
}
