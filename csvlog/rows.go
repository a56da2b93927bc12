package csvlog

// TrainRow is one finished episode from train.csv.
type TrainRow struct {
	Step          float64
	EpisodeReturn float64
}

// EvalRow is one evaluation pass from eval.csv.
type EvalRow struct {
	Step      float64
	AvgReturn float64
	Alpha     float64
}

func ReadTrain(path string) ([]TrainRow, *Table, error) {
	t, err := ReadFile(path, ColStep, ColEpisodeReturn)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]TrainRow, t.Len())
	for i, r := range t.Rows {
		rows[i] = TrainRow{Step: r[0], EpisodeReturn: r[1]}
	}
	return rows, t, nil
}

func ReadEval(path string) ([]EvalRow, *Table, error) {
	t, err := ReadFile(path, ColStep, ColAvgReturn, ColAlpha)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]EvalRow, t.Len())
	for i, r := range t.Rows {
		rows[i] = EvalRow{Step: r[0], AvgReturn: r[1], Alpha: r[2]}
	}
	return rows, t, nil
}
