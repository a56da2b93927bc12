package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteStandaloneTrain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.csv")
	out := filepath.Join(dir, "out", "train.html")
	require.NoError(t, os.WriteFile(path, []byte("step,episode_return\n1,1\n2,oops\n3,3\n"), 0644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"train", "--file", path, "--smooth", "2", "--output", out})
	require.NoError(t, cmd.Execute())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(b), "Smoothed (k=2)")
}

func TestWriteStandaloneEval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eval.csv")
	out := filepath.Join(dir, "eval.html")
	require.NoError(t, os.WriteFile(path, []byte("step,avg_return,alpha\n1000,-5,0.2\n2000,3,0.1\n"), 0644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"eval", "-f", path, "-o", out})
	require.NoError(t, cmd.Execute())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(b), "Alpha")
}

func TestMissingAndEmptyLogsExitCleanly(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "never.html")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"train", "--file", filepath.Join(dir, "missing.csv"), "--output", out})
	require.NoError(t, cmd.Execute())

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("step,avg_return,alpha\n"), 0644))
	cmd = newRootCmd()
	cmd.SetArgs([]string{"eval", "--file", empty, "--output", out})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(out)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMissingColumnExitsCleanly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte("step,reward\n1,1\n"), 0644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"train", "--file", path, "--output", path + ".html"})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(path + ".html")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNonFiniteStepStillWritesChart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.csv")
	out := filepath.Join(dir, "train.html")
	require.NoError(t, os.WriteFile(path, []byte("step,episode_return\n1,1\nnan,2\n3,nan\n"), 0644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"train", "--file", path, "--smooth", "2", "--output", out})
	require.NoError(t, cmd.Execute())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(b), "new Chart(")
}
