package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_Basic(t *testing.T) {
	data := []byte("id,title,price\nSKU-1,Polo Shirt,15.00 USD\nSKU-2,Tee,9.99 USD\n")

	records, err := ParseCSV(data, CSVOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Header is row 1; data rows start at 2.
	assert.Equal(t, 2, records[0].Row)
	assert.Equal(t, 3, records[1].Row)
	assert.Equal(t, "SKU-1", records[0].Get("id"))
	assert.Equal(t, "15.00 USD", records[0].Get("price"))
}

func TestParseCSV_TrimsHeadersAndCells(t *testing.T) {
	data := []byte(" id , title \n SKU-1 ,  Polo Shirt \n")

	records, err := ParseCSV(data, CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", records[0].Get("id"))
	assert.Equal(t, "Polo Shirt", records[0].Get("title"))
}

func TestParseCSV_SniffsDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"semicolon", "id;title;price\nSKU-1;Polo;15.00 USD\n"},
		{"tab", "id\ttitle\tprice\nSKU-1\tPolo\t15.00 USD\n"},
		{"pipe", "id|title|price\nSKU-1|Polo|15.00 USD\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ParseCSV([]byte(tt.data), CSVOptions{})
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "SKU-1", records[0].Get("id"))
			assert.Equal(t, "15.00 USD", records[0].Get("price"))
		})
	}
}

func TestParseCSV_ExplicitDelimiter(t *testing.T) {
	// A comma-heavy title would fool the sniffer; the explicit delimiter wins.
	data := []byte("id;title\nSKU-1;Soft, warm, cozy scarf\n")

	records, err := ParseCSV(data, CSVOptions{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, "Soft, warm, cozy scarf", records[0].Get("title"))
}

func TestParseCSV_ShortRowsPadded(t *testing.T) {
	data := []byte("id,title,price\nSKU-1,Polo\n")

	records, err := ParseCSV(data, CSVOptions{})
	require.NoError(t, err)
	assert.True(t, records[0].Has("title"))
	assert.False(t, records[0].Has("price"))
	assert.Equal(t, "", records[0].Get("price"))
}

func TestParseCSV_BOMStripped(t *testing.T) {
	data := []byte("\xef\xbb\xbfid,title\nSKU-1,Polo\n")

	records, err := ParseCSV(data, CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", records[0].Get("id"))
}

func TestParseCSV_Latin1(t *testing.T) {
	// "Café" with an ISO-8859-1 é byte (0xE9), invalid as UTF-8.
	data := []byte("id,title\nSKU-1,Caf\xe9\n")

	_, err := ParseCSV(data, CSVOptions{})
	require.ErrorIs(t, err, ErrMalformedFeed)

	records, err := ParseCSV(data, CSVOptions{Encoding: "latin-1"})
	require.NoError(t, err)
	assert.Equal(t, "Café", records[0].Get("title"))
}

func TestParseCSV_UnsupportedEncoding(t *testing.T) {
	_, err := ParseCSV([]byte("id\n1\n"), CSVOptions{Encoding: "utf-16"})
	require.ErrorIs(t, err, ErrMalformedFeed)
	assert.Contains(t, err.Error(), "unsupported encoding")
}

func TestParseCSV_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"whitespace only", "   \n  "},
		{"header only", "id,title,price\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV([]byte(tt.data), CSVOptions{})
			require.ErrorIs(t, err, ErrMalformedFeed)
		})
	}
}

func TestParseCSV_MaxRows(t *testing.T) {
	data := []byte("id\n1\n2\n3\n")

	_, err := ParseCSV(data, CSVOptions{MaxRows: 2})
	require.ErrorIs(t, err, ErrMalformedFeed)
	assert.Contains(t, err.Error(), "exceeds 2 rows")

	records, err := ParseCSV(data, CSVOptions{MaxRows: 3})
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestParseCSV_QuotedFields(t *testing.T) {
	data := []byte("id,description\nSKU-1,\"Made from 100% cotton, pre-shrunk\"\n")

	records, err := ParseCSV(data, CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Made from 100% cotton, pre-shrunk", records[0].Get("description"))
}
