package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_DropsPlaceholderColumns(t *testing.T) {
	data := "Unnamed: 0,Subject,Time,Phase,Blood_pressure,,right_MCA_BFV\n" +
		"0,S01,0,Resting,80.5,x,55\n" +
		"1,S01,1,Resting,81,y,56\n"

	table, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Subject", "Time", "Phase", "Blood_pressure", "right_MCA_BFV"}, table.Columns)
	assert.Equal(t, []string{"Unnamed: 0", ""}, table.DroppedColumns)
	require.Len(t, table.Rows, 2)
	for _, row := range table.Rows {
		for key := range row {
			assert.False(t, IsPlaceholderColumn(key), "placeholder column %q leaked", key)
		}
	}
	assert.Equal(t, "80.5", table.Rows[0]["Blood_pressure"])
}

func TestReadCSV_ShortAndLongRows(t *testing.T) {
	data := "Subject,Time,Blood_pressure\n" +
		"S01,0\n" +
		"S01,1,90,extra\n" +
		",,\n"

	table, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)

	require.Len(t, table.Rows, 2, "blank record should be skipped")
	assert.Equal(t, "", table.Rows[0]["Blood_pressure"])
	assert.Equal(t, "90", table.Rows[1]["Blood_pressure"])
	require.Len(t, table.ParseErrors, 1)
	assert.Contains(t, table.ParseErrors[0], "line 3")
}

func TestReadCSV_EmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)

	_, err = ReadCSV(strings.NewReader("Unnamed: 0,\n1,2\n"))
	require.Error(t, err)
}

func TestParseCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combined_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffSubject,Time\nS01,0\n"), 0o644))

	table, err := ParseCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Subject", "Time"}, table.Columns)

	_, err = ParseCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestIsPlaceholderColumn(t *testing.T) {
	cases := map[string]bool{
		"":              true,
		"   ":           true,
		"Unnamed: 12":   true,
		"Subject":       false,
		"left_MCA_BFV":  false,
		"unnamed_thing": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsPlaceholderColumn(in), "input %q", in)
	}
}
