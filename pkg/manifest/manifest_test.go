package manifest_test

import (
	"testing"

	"github.com/Subaru-PFS/qadb/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tables = []string{"pfs_visit", "seeing", "moon", "telescope"}

func TestTableName(t *testing.T) {
	tests := []struct {
		msg  string
		in   manifest.Input
		want string
	}{
		{"explicit", manifest.Input{Table: "seeing", Location: "run21.csv"}, "seeing"},
		{"file", manifest.Input{Location: "moon.csv"}, "moon"},
		{"nested", manifest.Input{Location: "/data/run21/telescope.jsonl"}, "telescope"},
		{"s3", manifest.Input{Location: "s3://pfs-qa/run21/detectormap_qa.csv"}, "detectormap_qa"},
		{"no extension", manifest.Input{Location: "sky"}, "sky"},
	}

	for _, v := range tests {
		assert.Equal(t, v.want, v.in.TableName(), v.msg)
	}
	assert.True(t, manifest.Input{Location: "s3://b/k.csv"}.IsS3())
	assert.False(t, manifest.Input{Location: "k.csv"}.IsS3())
}

func TestValidate(t *testing.T) {
	m := manifest.Manifest{Inputs: []manifest.Input{
		{Table: "seeing", Location: " run21.csv "},
		{Location: "moon.csv"},
		{Table: "telescope", Location: "telescope.dat", Format: "TSV"},
		{Table: "seeing", Location: "run21.csv"},
	}}

	require.NoError(t, m.Validate(tables))
	assert.Equal(t, "run21.csv", m.Inputs[0].Location)
	assert.Equal(t, "tsv", m.Inputs[2].Format)

	require.Len(t, m.Warnings, 2)
	assert.Equal(t, 2, m.Warnings[0].Position)
	assert.Equal(t, "table", m.Warnings[0].Field)
	assert.Equal(t, 4, m.Warnings[1].Position)
	assert.Equal(t, "location", m.Warnings[1].Field)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		msg string
		in  manifest.Input
		err string
	}{
		{"no location", manifest.Input{Table: "seeing"}, "location is required"},
		{"bad format", manifest.Input{Location: "a.csv", Format: "xlsx"}, "invalid format"},
		{"unknown extension", manifest.Input{Location: "seeing.dat"}, "cannot guess format"},
		{"derived table", manifest.Input{Location: "run21.csv"}, "set 'table'"},
		{"unknown table", manifest.Input{Table: "fwhm", Location: "a.csv"}, "unknown table"},
	}

	for _, v := range tests {
		m := manifest.Manifest{Inputs: []manifest.Input{v.in}}
		err := m.Validate(tables)
		require.Error(t, err, v.msg)
		assert.Contains(t, err.Error(), v.err, v.msg)
		assert.Contains(t, err.Error(), "input 1", v.msg)
	}

	m := manifest.Manifest{}
	assert.Error(t, m.Validate(nil))

	m = manifest.Manifest{Inputs: []manifest.Input{{Location: "fwhm.csv"}}}
	assert.NoError(t, m.Validate(nil), "tables are not checked without a list")
}

func TestFilter(t *testing.T) {
	inputs := []manifest.Input{
		{Location: "pfs_visit.csv"},
		{Location: "seeing.csv"},
		{Location: "moon.csv"},
		{Table: "telescope", Location: "tel.jsonl"},
		{Location: "s3://qa/seeing_agc_exposure.csv"},
	}
	locations := func(in []manifest.Input) []string {
		res := make([]string, len(in))
		for i, v := range in {
			res[i] = v.Location
		}
		return res
	}

	tests := []struct {
		msg      string
		filter   string
		want     []string
		warnings int
	}{
		{"all", "", locations(inputs), 0},
		{"positions", "1,3", []string{"pfs_visit.csv", "moon.csv"}, 0},
		{"range", "2-3", []string{"seeing.csv", "moon.csv"}, 0},
		{"open start", "-2", []string{"pfs_visit.csv", "seeing.csv"}, 0},
		{"open end", "4-", []string{"tel.jsonl", "s3://qa/seeing_agc_exposure.csv"}, 0},
		{"tables", "telescope, moon", []string{"moon.csv", "tel.jsonl"}, 0},
		{"mix", "1,seeing,9", []string{"pfs_visit.csv", "seeing.csv"}, 1},
		{"missing table", "moon,sky", []string{"moon.csv"}, 1},
	}

	for _, v := range tests {
		res, warnings, err := manifest.Filter(inputs, v.filter)
		require.NoError(t, err, v.msg)
		assert.Equal(t, v.want, locations(res), v.msg)
		assert.Len(t, warnings, v.warnings, v.msg)
	}
}

func TestFilterErrors(t *testing.T) {
	inputs := []manifest.Input{{Location: "seeing.csv"}, {Location: "moon.csv"}}

	_, warnings, err := manifest.Filter(inputs, "7")
	assert.Error(t, err)
	assert.Len(t, warnings, 1)

	_, _, err = manifest.Filter(inputs, "3-")
	assert.Error(t, err)

	_, _, err = manifest.Filter(inputs, "2-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be <= end")

	_, _, err = manifest.Filter(inputs, "sky")
	assert.Error(t, err)
}
