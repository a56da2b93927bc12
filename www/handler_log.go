package www

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/angas/sacplot/database"
)

// LogReader is the part of the database the log page reads from.
type LogReader interface {
	GetLogEntries(ctx context.Context, minLvl slog.Level, page, pageSize int) ([]database.LogEntryRow, error)
}

func NewLogHandler(logger *slog.Logger, db LogReader, tm *TemplateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if db == nil {
			http.Error(w, "no database configured", http.StatusNotFound)
			return
		}

		page := max(intOrDefault(r.URL, "page", 1), 1)
		pageSize := intOrDefault(r.URL, "pageSize", 25)
		if pageSize < 1 {
			pageSize = 25
		}

		e, err := db.GetLogEntries(r.Context(), slog.LevelDebug, page, pageSize)
		if err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		data := struct {
			Page     int
			PageSize int
			More     bool
			Entries  []database.LogEntryRow
		}{
			Page:     page,
			PageSize: pageSize,
			More:     len(e) == pageSize,
			Entries:  e,
		}

		w.Header().Set("Content-Type", "text/html")
		if err := tm.ExecuteToWriter("log.html", data, w); err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
