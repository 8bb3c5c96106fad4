package news

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-lab/pkg/models"
)

var eastern = models.FixedOffset(-4)

func TestReadCSV_Cleaning(t *testing.T) {
	input := `,headline,url,publisher,date,stock
0,Test headline,http://a,Reuters,2024-01-01 09:30:00-04:00,AAPL
1,Test headline,http://a,Reuters,2024-01-01 09:30:00-04:00,AAPL
2,Another headline,http://b,Benzinga,2024-01-02 10:00:00-04:00,msft
3,,http://c,Benzinga,2024-01-03 10:00:00-04:00,GOOGL
4,   ,http://d,Benzinga,2024-01-03 10:00:00-04:00,GOOGL
`
	records, err := ReadCSV(strings.NewReader(input), Options{Location: eastern, DropMalformed: true})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Test headline", records[0].Headline)
	assert.Equal(t, "Reuters", records[0].Publisher)
	assert.Equal(t, "AAPL", records[0].Stock)
	assert.Equal(t, "MSFT", records[1].Stock, "stock symbols are upper-cased")
}

func TestReadCSV_SameHeadlineDifferentStock(t *testing.T) {
	input := `headline,date,stock
Chip stocks rally,2024-01-01,AAPL
Chip stocks rally,2024-01-01,NVDA
`
	records, err := ReadCSV(strings.NewReader(input), Options{DropMalformed: true})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReadCSV_MalformedDates(t *testing.T) {
	input := `headline,date,stock
Good row,2024-01-01 10:00:00,AAPL
Bad row,not-a-date,AAPL
`
	t.Run("dropped", func(t *testing.T) {
		records, err := ReadCSV(strings.NewReader(input), Options{Location: eastern, DropMalformed: true})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Good row", records[0].Headline)
	})

	t.Run("rejected", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(input), Options{Location: eastern})
		require.ErrorIs(t, err, models.ErrDataIntegrity)
		assert.Contains(t, err.Error(), "row 3")
	})
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("headline,url\nx,y\n"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date")
}

func TestReadCSV_Empty(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(""), Options{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadJSON(t *testing.T) {
	input := `[
		{"title": "Stocks surge on earnings", "date": "2024-03-05T16:00:00Z", "ticker": "aapl", "publisher": "WSJ"},
		{"headline": "", "date": "2024-03-05", "stock": "AAPL"},
		{"headline": "Weak guidance", "date": "2024-03-06", "stock": "MSFT", "url": "http://x"}
	]`

	records, err := ReadJSON(strings.NewReader(input), Options{Location: eastern, DropMalformed: true})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Stocks surge on earnings", records[0].Headline)
	assert.Equal(t, "AAPL", records[0].Stock)
	assert.True(t, records[0].Date.Equal(time.Date(2024, 3, 5, 16, 0, 0, 0, time.UTC)))
	assert.Equal(t, "http://x", records[1].URL)
}

func TestReadJSON_Invalid(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"headline": "x"}`), Options{})
	require.Error(t, err)

	_, err = ReadJSON(strings.NewReader(`[{"headline": `), Options{})
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{name: "with offset", value: "2020-06-05 10:30:54-04:00", want: time.Date(2020, 6, 5, 14, 30, 54, 0, time.UTC)},
		{name: "rfc3339", value: "2020-06-05T10:30:54Z", want: time.Date(2020, 6, 5, 10, 30, 54, 0, time.UTC)},
		{name: "naive uses source offset", value: "2020-06-05 22:00:00", want: time.Date(2020, 6, 6, 2, 0, 0, 0, time.UTC)},
		{name: "date only", value: "2020-06-05", want: time.Date(2020, 6, 5, 4, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.value, eastern)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseTimestamp("06/05/2020", eastern)
	assert.Error(t, err)
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "news.csv")
	jsonPath := filepath.Join(dir, "news.JSON")

	require.NoError(t, os.WriteFile(csvPath, []byte("headline,date,stock\nA,2024-01-01,AAPL\n"), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"headline":"B","date":"2024-01-01","stock":"MSFT"}]`), 0o644))

	fromCSV, err := NewFileLoader(csvPath, Options{Location: eastern}).LoadNews(context.Background())
	require.NoError(t, err)
	require.Len(t, fromCSV, 1)
	assert.Equal(t, "AAPL", fromCSV[0].Stock)

	fromJSON, err := NewFileLoader(jsonPath, Options{Location: eastern}).LoadNews(context.Background())
	require.NoError(t, err)
	require.Len(t, fromJSON, 1)
	assert.Equal(t, "MSFT", fromJSON[0].Stock)

	_, err = NewFileLoader(filepath.Join(dir, "missing.csv"), Options{}).LoadNews(context.Background())
	assert.Error(t, err)
}
