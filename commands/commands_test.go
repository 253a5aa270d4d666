package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metadataCSV = `tag,org,system,b_number
105,lbl,non-condensing,2
108,lbl,district hw,NA
`

const availabilityCSV = `tag,org,datetime,sup1,ret1,sup2,ret2,pmp1_pwr,pmp2_pwr,oat,flow,pmp1_spd
105,lbl,1,1,1,1,1,1,1,1,0,0
108,lbl,1,0,0,0,0,0,0,0,1,1
`

func writeFixtures(t *testing.T) (metadata, vars string) {
	t.Helper()
	dir := t.TempDir()
	metadata = filepath.Join(dir, "metadata.csv")
	vars = filepath.Join(dir, "vars.csv")
	require.NoError(t, os.WriteFile(metadata, []byte(metadataCSV), 0o644))
	require.NoError(t, os.WriteFile(vars, []byte(availabilityCSV), 0o644))
	return metadata, vars
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errBuf bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errBuf.String(), err
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hhwbrick version test")
}

func TestConvertCommand(t *testing.T) {
	metadata, vars := writeFixtures(t)
	outDir := t.TempDir()

	stdout, _, err := execute(t, "convert",
		"--metadata", metadata, "--vars", vars,
		"--output-dir", outDir, "--format", "turtle")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Compiled 2 building(s), 0 failed")

	data, err := os.ReadFile(filepath.Join(outDir, "building_105_non_condensing_lbl.ttl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "bldg:building105")

	_, err = os.Stat(filepath.Join(outDir, "building_108_district_hw_lbl.ttl"))
	require.NoError(t, err)
}

func TestConvertSingleBuilding(t *testing.T) {
	metadata, vars := writeFixtures(t)
	outDir := t.TempDir()

	stdout, _, err := execute(t, "convert",
		"--metadata", metadata, "--vars", vars,
		"--output-dir", outDir, "--building", "108")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Compiled 1 building(s)")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGroundTruthCommand(t *testing.T) {
	metadata, vars := writeFixtures(t)
	outPath := filepath.Join(t.TempDir(), "gt.csv")

	_, _, err := execute(t, "groundtruth",
		"--metadata", metadata, "--vars", vars, "--output", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "tag,system,point_count,boiler_count,pump_count,weather_station")
	assert.Contains(t, out, "105,non-condensing,7,2,3,true")
	assert.Contains(t, out, "108,district hw,2,0,1,false")
}

func TestValidateCommand(t *testing.T) {
	metadata, vars := writeFixtures(t)
	reportDir := t.TempDir()

	stdout, _, err := execute(t, "validate",
		"--metadata", metadata, "--vars", vars, "--report-dir", reportDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PASS  105")
	assert.Contains(t, stdout, "PASS  108")

	_, err = os.Stat(filepath.Join(reportDir, "report_105.json"))
	require.NoError(t, err)
}

func TestValidateFromGraphDir(t *testing.T) {
	metadata, vars := writeFixtures(t)
	outDir := t.TempDir()

	_, _, err := execute(t, "convert",
		"--metadata", metadata, "--vars", vars, "--output-dir", outDir)
	require.NoError(t, err)

	stdout, _, err := execute(t, "validate",
		"--metadata", metadata, "--vars", vars,
		"--graph-dir", outDir, "--graph-pattern", "building_105_*.ttl")
	require.NoError(t, err)
	assert.Contains(t, stdout, "PASS  105")
	assert.NotContains(t, stdout, "108", "pattern restricts the selection")
}

func TestBatchCommand(t *testing.T) {
	metadata, vars := writeFixtures(t)
	outDir := t.TempDir()

	stdout, _, err := execute(t, "batch",
		"--metadata", metadata, "--vars", vars,
		"--output-dir", outDir, "--workers", "2",
		"--ground-truth", "gt.csv", "--summary", "summary.txt", "--warnings", "warnings.txt")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Buildings: 2 total, 2 succeeded, 0 failed")

	for _, name := range []string{
		"building_105_non_condensing_lbl.ttl",
		"building_108_district_hw_lbl.ttl",
		"gt.csv",
		"summary.txt",
		"warnings.txt",
	} {
		_, err := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, err, name)
	}
}

func TestTagFromFileName(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		ok   bool
	}{
		{"building_105_non_condensing_lbl.ttl", "105", true},
		{"building_108_district_hw.nt", "108", true},
		{"summary.txt", "", false},
		{"building_.ttl", "", false},
	}
	for _, tc := range tests {
		tag, ok := tagFromFileName(tc.name)
		assert.Equal(t, tc.ok, ok, tc.name)
		assert.Equal(t, tc.tag, tag, tc.name)
	}
}
