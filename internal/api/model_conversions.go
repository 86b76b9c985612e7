package api

import (
	"database/sql"
	"sort"
	"time"

	"ged-backend/internal/core"
	"ged-backend/internal/database"
	"ged-backend/pkg/api"
)

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func convertRun(r database.TrainingRun) api.Run {
	run := api.Run{
		Id:             r.Id,
		Name:           r.Name,
		Status:         r.Status,
		TokenizerType:  r.TokenizerType,
		OutputDir:      r.OutputDir,
		CreationTime:   r.CreationTime,
		StartTime:      nullTime(r.StartTime),
		CompletionTime: nullTime(r.CompletionTime),
	}

	for _, m := range r.Metrics {
		run.Metrics = append(run.Metrics, api.RunMetric{
			Split:     m.Split,
			Precision: m.Precision,
			Recall:    m.Recall,
			F1:        m.F1,
			Support:   m.Support,
		})
	}
	sort.Slice(run.Metrics, func(i, j int) bool { return run.Metrics[i].Split < run.Metrics[j].Split })

	for _, e := range r.Errors {
		run.Errors = append(run.Errors, e.Error)
	}

	return run
}

func convertRuns(rs []database.TrainingRun) []api.Run {
	runs := make([]api.Run, 0, len(rs))
	for _, r := range rs {
		runs = append(runs, convertRun(r))
	}
	return runs
}

func convertWordStatuses(ws []core.WordStatus) []api.WordStatus {
	out := make([]api.WordStatus, 0, len(ws))
	for _, w := range ws {
		out = append(out, api.WordStatus{Word: w.Word, Incorrect: w.Incorrect})
	}
	return out
}
