package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRecords(t *testing.T, path string) []CSVRecord {
	t.Helper()
	reader, err := OpenCSV(path)
	require.NoError(t, err)
	defer reader.Close()

	var out []CSVRecord
	for rec, err := range reader.Records() {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestOpenCSVNotFound(t *testing.T) {
	_, err := OpenCSV("does/not/exist.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = OpenCSV(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound, "a directory is not a readable file")
}

func TestRecordsTrimAndKeyByHeader(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "regions.csv",
		" code , name ,status",
		"  0100000000 ,  Ilocos Region  , active ",
	)

	records := collectRecords(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, "0100000000", records[0].Get("code"))
	assert.Equal(t, "Ilocos Region", records[0].Get("name"))
	assert.Equal(t, "active", records[0].Get("status"))
	assert.Equal(t, 2, records[0].Line)
}

func TestRecordsSkipBlankAndMisalignedRows(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "provinces.csv",
		"",
		",,",
		"code,name,region_code",
		"0102800000,Ilocos Norte,0100000000",
		"",
		"0102900000,Ilocos Sur",
		"0103300000,La Union,0100000000,extra",
		" , , ",
		"0105500000,Pangasinan,0100000000",
	)

	records := collectRecords(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "0102800000", records[0].Get("code"))
	assert.Equal(t, "0105500000", records[1].Get("code"))
}

func TestRecordsSkipUnparsableRows(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "regions.csv",
		"code,name",
		`0100000000,"Ilocos "Region"`,
		"0200000000,Cagayan Valley",
	)

	records := collectRecords(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, "0200000000", records[0].Get("code"))
}

func TestRecordsStripBOM(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "regions.csv",
		"\xEF\xBB\xBFcode,name",
		"0100000000,Ilocos Region",
	)

	records := collectRecords(t, path)
	require.Len(t, records, 1)
	assert.True(t, records[0].Has("code"))
	assert.Equal(t, "0100000000", records[0].Get("code"))
}

func TestRecordsMissingColumnIsEmpty(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "regions.csv",
		"code,name",
		"0100000000,Ilocos Region",
	)

	records := collectRecords(t, path)
	require.Len(t, records, 1)
	assert.False(t, records[0].Has("status"))
	assert.Equal(t, "", records[0].Get("status"))
}

func TestRecordsStopEarly(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "regions.csv",
		"code,name",
		"0100000000,A",
		"0200000000,B",
		"0300000000,C",
	)

	reader, err := OpenCSV(path)
	require.NoError(t, err)
	defer reader.Close()

	seen := 0
	for range reader.Records() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}
