package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qrforge/qrforge/internal/qr"
)

func ids(records []qr.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func sampleRecords() []qr.Record {
	a := newRecord("a", qr.TypeURL, "https://example.com/", 10)
	a.Name = "Homepage"
	b := newRecord("b", qr.TypeText, "Hello World", 30)
	b.Name = "greeting"
	c := newRecord("c", qr.TypeWifi, `{"ssid":"Office","password":"x","encryption":"WPA"}`, 20)
	d := newRecord("d", qr.TypeText, "untitled note", 20)
	return []qr.Record{a, b, c, d}
}

func TestQueryDefaultSortsNewestFirst(t *testing.T) {
	got := Query{}.Apply(sampleRecords())
	require.Equal(t, []string{"b", "c", "d", "a"}, ids(got))
}

func TestQuerySearchMatchesNameOrContent(t *testing.T) {
	records := sampleRecords()

	require.Equal(t, []string{"a"}, ids(Query{Search: "HOME"}.Apply(records)))
	require.Equal(t, []string{"c"}, ids(Query{Search: "office"}.Apply(records)))
	require.Equal(t, []string{"b", "d"}, ids(Query{Search: "o", Type: qr.TypeText}.Apply(records)))
	require.Empty(t, Query{Search: "nothing"}.Apply(records))
}

func TestQuerySortByNameAndType(t *testing.T) {
	records := sampleRecords()

	require.Equal(t, []string{"c", "d", "b", "a"}, ids(Query{SortBy: SortName}.Apply(records)))
	require.Equal(t, []string{"b", "d", "a", "c"}, ids(Query{SortBy: SortType}.Apply(records)))
}

func TestQueryDoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	_ = Query{SortBy: SortName}.Apply(records)
	require.Equal(t, []string{"a", "b", "c", "d"}, ids(records))
}

func TestParseSortBy(t *testing.T) {
	for in, want := range map[string]SortBy{"": SortDate, "Date": SortDate, "name": SortName, "type": SortType} {
		got, ok := ParseSortBy(in)
		require.True(t, ok, in)
		require.Equal(t, want, got)
	}
	_, ok := ParseSortBy("size")
	require.False(t, ok)
}
