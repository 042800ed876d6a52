package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliCSV = `Unnamed: 0,Subject,Time,Phase,Blood_pressure,right_MCA_BFV,left_MCA_BFV,resp_uncalibrated,i1_850,i1_805
0,S01,0,Resting,80,50,51,0.1,1.0,2.0
1,S01,300,Resting,84,52,53,0.2,1.2,2.2
2,S01,600,Standing,70,45,46,0.3,1.4,2.4
3,S01,900,Sitting,76,48,49,0.2,1.6,2.6
4,S02,0,,90,60,61,0.1,1.0,1.0
5,S02,1000,,92,61,62,0.1,1.1,1.0
`

// run executes the CLI in an empty working directory so no stray config is read.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level=error"}, args...))
	err = root.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "combined_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(cliCSV), 0o644))
	return path
}

func TestSubjectsCmd(t *testing.T) {
	out, err := run(t, "subjects", "--csv", writeCSV(t))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "S01")
	assert.Contains(t, lines[1], "labels")
	assert.Contains(t, lines[2], "S02")
	assert.Contains(t, lines[2], "fractions")
}

func TestSummaryCmd(t *testing.T) {
	csv := writeCSV(t)

	out, err := run(t, "summary", "--csv", csv, "--subject", "S01", "--phase", "Resting")
	require.NoError(t, err)
	assert.Contains(t, out, "phase Resting")
	assert.Contains(t, out, "82.000")

	_, err = run(t, "summary", "--csv", csv, "--subject", "S99")
	assert.Error(t, err)

	_, err = run(t, "summary", "--csv", csv)
	assert.Error(t, err, "subject is required")
}

func TestGenerateCmd(t *testing.T) {
	csv := writeCSV(t)
	pdf := filepath.Join(t.TempDir(), "S01.pdf")

	out, err := run(t, "generate", "--csv", csv, "--subject", "S01", "--pdf", pdf, "--profile", "Blood_pressure=90")
	require.NoError(t, err)
	assert.Contains(t, out, pdf)
	info, err := os.Stat(pdf)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestGenerateCmd_All(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CBF_OUTPUT_DIR", dir)

	_, err := run(t, "generate", "--csv", writeCSV(t), "--all")
	require.NoError(t, err)
	for _, id := range []string{"S01", "S02"} {
		_, err := os.Stat(filepath.Join(dir, id+"_report.pdf"))
		assert.NoError(t, err, id)
	}
}

func TestGenerateCmd_BadArgs(t *testing.T) {
	csv := writeCSV(t)
	cases := map[string][]string{
		"no subject":    {"generate", "--csv", csv},
		"both":          {"generate", "--csv", csv, "--all", "--subject", "S01"},
		"pdf with all":  {"generate", "--csv", csv, "--all", "--pdf", "x.pdf"},
		"bad profile":   {"generate", "--csv", csv, "--subject", "S01", "--profile", "Blood_pressure=high"},
		"unknown":       {"generate", "--csv", csv, "--subject", "S99", "--pdf", "x.pdf"},
		"missing csv":   {"generate", "--subject", "S01"},
		"bad log level": {"subjects", "--csv", csv, "--log-level", "loud"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, args...)
			assert.Error(t, err)
		})
	}
}
