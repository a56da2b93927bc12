package csvlog

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	csvData := `step,episode_return
200,-1500.5
400,-1320.25
600,-980`

	tbl, err := Read(strings.NewReader(csvData), ColStep, ColEpisodeReturn)
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())
	require.Zero(t, tbl.Skipped)
	require.Equal(t, []float64{200, 400, 600}, tbl.Column(ColStep))
	require.Equal(t, []float64{-1500.5, -1320.25, -980}, tbl.Column(ColEpisodeReturn))
}

func TestReadColumnOrderFollowsRequest(t *testing.T) {
	csvData := `alpha, avg_return, step
0.2, -900, 1000
0.1, -400, 2000`

	tbl, err := Read(strings.NewReader(csvData), ColStep, ColAvgReturn, ColAlpha)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1000, -900, 0.2}, {2000, -400, 0.1}}, tbl.Rows)
}

func TestReadSkipsMalformedRows(t *testing.T) {
	csvData := `step,episode_return
100,-10
oops,-20
300,
400
500,-50
600,nan-ish`

	tbl, err := Read(strings.NewReader(csvData), ColStep, ColEpisodeReturn)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	require.Equal(t, 4, tbl.Skipped)
	require.Equal(t, []float64{100, 500}, tbl.Column(ColStep))
}

func TestReadEmpty(t *testing.T) {
	tbl, err := Read(strings.NewReader(""), ColStep)
	require.NoError(t, err)
	require.Zero(t, tbl.Len())

	tbl, err = Read(strings.NewReader("step,episode_return\n"), ColStep, ColEpisodeReturn)
	require.NoError(t, err)
	require.Zero(t, tbl.Len())
}

func TestReadMissingColumn(t *testing.T) {
	_, err := Read(strings.NewReader("step,reward\n1,2\n"), ColStep, ColEpisodeReturn)
	require.ErrorIs(t, err, ErrMissingColumn)
	require.Contains(t, err.Error(), ColEpisodeReturn)
}

func TestColumnUnknown(t *testing.T) {
	tbl := &Table{Columns: []string{ColStep}, Rows: [][]float64{{1}}}
	require.Nil(t, tbl.Column(ColAlpha))
}

func TestReadFileNotFound(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), ColStep)
	require.Error(t, err)
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReadTrainAndEval(t *testing.T) {
	dir := t.TempDir()

	trainPath := filepath.Join(dir, "train.csv")
	require.NoError(t, os.WriteFile(trainPath, []byte("step,episode_return\n200,-1200\n400,-800\n"), 0644))
	train, tbl, err := ReadTrain(trainPath)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	require.Equal(t, []TrainRow{{Step: 200, EpisodeReturn: -1200}, {Step: 400, EpisodeReturn: -800}}, train)

	evalPath := filepath.Join(dir, "eval.csv")
	require.NoError(t, os.WriteFile(evalPath, []byte("step,avg_return,alpha\n5000,-300.5,0.05\n"), 0644))
	eval, _, err := ReadEval(evalPath)
	require.NoError(t, err)
	require.Equal(t, []EvalRow{{Step: 5000, AvgReturn: -300.5, Alpha: 0.05}}, eval)
}
